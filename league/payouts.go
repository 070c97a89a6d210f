package league

import (
	"context"
	"sort"

	"github.com/ts4z/puttleague/model"
	"github.com/ts4z/puttleague/payout"
	"github.com/ts4z/puttleague/scoring"
)

// NightPayouts is the payout sheet for every division with check-ins.
type NightPayouts struct {
	LeagueNightID string
	TieBreakMode  model.TieBreakMode
	Divisions     []*model.DivisionPayout
}

// divisionSheet is one division's paid players, ranked.
type divisionSheet struct {
	division  *model.Division
	checkedIn int
	paid      int
	ranked    []*model.PlayerTotal
}

type nightSheet struct {
	night     *model.LeagueNight
	divisions []*divisionSheet
}

// sheet groups tonight's check-ins by division and ranks the paid players.
// Paid players who haven't thrown yet rank at zero, after everyone with
// shots, in check-in order.
func (m *Manager) sheet(ctx context.Context, nightID string) (*nightSheet, error) {
	night, err := m.storage.FetchLeagueNight(ctx, nightID)
	if err != nil {
		return nil, err
	}
	checkIns, err := m.storage.FetchCheckIns(ctx, nightID)
	if err != nil {
		return nil, err
	}
	shots, err := m.storage.FetchShots(ctx, nightID)
	if err != nil {
		return nil, err
	}
	roster, err := m.roster(ctx)
	if err != nil {
		return nil, err
	}
	totals := scoring.Totals(shots, roster)

	byDivision := map[string]*divisionSheet{}
	order := []*divisionSheet{}
	paidDivision := map[string]string{}
	for _, c := range checkIns {
		divisionID := c.DivisionID
		if divisionID == "" {
			if p, ok := roster.Players[c.PlayerID]; ok {
				divisionID = p.DivisionID
			}
		}
		d, ok := roster.Divisions[divisionID]
		if !ok {
			continue
		}
		ds, ok := byDivision[d.ID]
		if !ok {
			ds = &divisionSheet{division: d, ranked: []*model.PlayerTotal{}}
			byDivision[d.ID] = ds
			order = append(order, ds)
		}
		ds.checkedIn++
		if c.Paid {
			ds.paid++
			paidDivision[c.PlayerID] = d.ID
		}
	}

	// totals are already in canonical order; filtering keeps it.
	scored := map[string]bool{}
	for _, t := range totals {
		if divisionID, ok := paidDivision[t.PlayerID]; ok {
			byDivision[divisionID].ranked = append(byDivision[divisionID].ranked, t)
			scored[t.PlayerID] = true
		}
	}
	for _, c := range checkIns {
		divisionID, ok := paidDivision[c.PlayerID]
		if !ok || scored[c.PlayerID] {
			continue
		}
		scored[c.PlayerID] = true
		zero := scoring.ZeroTotal(c.PlayerID, roster)
		zero.DivisionID = divisionID
		zero.DivisionCode = byDivision[divisionID].division.Code
		byDivision[divisionID].ranked = append(byDivision[divisionID].ranked, zero)
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i].division, order[j].division
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.Code < b.Code
	})
	return &nightSheet{night: night, divisions: order}, nil
}

// Payouts lays out every division's prize money.  The pool is paid players
// times the entry fee.  A division whose only putt-offs were abandoned
// splits its tie even on a PUTT_OFF night; a restarted putt-off that is still
// running keeps the tie pending.
func (m *Manager) Payouts(ctx context.Context, nightID string) (*NightPayouts, error) {
	sheet, err := m.sheet(ctx, nightID)
	if err != nil {
		return nil, err
	}
	puttOffs, err := m.storage.FetchPuttOffs(ctx, nightID)
	if err != nil {
		return nil, err
	}
	// StartPuttOff allows one live putt-off per division, so a live one
	// always supersedes any abandoned ones.
	winners := map[string]string{}
	live := map[string]bool{}
	abandoned := map[string]bool{}
	for _, p := range puttOffs {
		switch p.Status {
		case model.PuttOffResolved:
			winners[p.DivisionID] = p.WinnerID
			live[p.DivisionID] = true
		case model.PuttOffAwaitingScores:
			live[p.DivisionID] = true
		case model.PuttOffAbandoned:
			abandoned[p.DivisionID] = true
		}
	}

	out := &NightPayouts{
		LeagueNightID: nightID,
		TieBreakMode:  sheet.night.TieBreakMode,
		Divisions:     []*model.DivisionPayout{},
	}
	for _, ds := range sheet.divisions {
		d := ds.division
		mode := sheet.night.TieBreakMode
		if abandoned[d.ID] && !live[d.ID] {
			mode = model.TieBreakSplit
		}
		pool := int64(ds.paid) * d.EntryFee
		result, err := payout.Calculate(pool, ds.ranked, payout.Options{
			Mode:            mode,
			PuttOffWinnerID: winners[d.ID],
			Paytable:        m.paytable,
		})
		if err != nil {
			return nil, err
		}
		out.Divisions = append(out.Divisions, &model.DivisionPayout{
			DivisionID:     d.ID,
			DivisionCode:   d.Code,
			DivisionName:   d.Name,
			EntryFee:       d.EntryFee,
			SortOrder:      d.SortOrder,
			CheckedInCount: ds.checkedIn,
			PaidCount:      ds.paid,
			Pool:           pool,
			Percentages:    m.paytable.Percentages(ds.paid),
			TieBreakMode:   mode,
			Entries:        result.Entries,
			Withheld:       result.Withheld,
		})
	}
	return out, nil
}
