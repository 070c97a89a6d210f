package league

import (
	"context"

	"github.com/ts4z/puttleague/he"
	"github.com/ts4z/puttleague/model"
	"github.com/ts4z/puttleague/ranking"
	"github.com/ts4z/puttleague/scoring"
)

// RecordShot validates and writes one shot.  Writing the same (player,
// hole, round, position) again replaces made and bonus but keeps the
// original entry time.
func (m *Manager) RecordShot(ctx context.Context, shot *model.ShotResult) error {
	return m.RecordShots(ctx, []*model.ShotResult{shot})
}

// RecordShots validates every shot before writing any, then writes them as
// one unit.  All shots must be for the same night.
func (m *Manager) RecordShots(ctx context.Context, shots []*model.ShotResult) error {
	if len(shots) == 0 {
		return he.EmptyInputErrorf("no shots to record")
	}
	nightID := ""
	for i, s := range shots {
		if err := scoring.ValidateShot(s); err != nil {
			return err
		}
		if i == 0 {
			nightID = s.LeagueNightID
		} else if s.LeagueNightID != nightID {
			return he.ValidationErrorf("shots for more than one night (%s and %s)", nightID, s.LeagueNightID)
		}
	}
	if _, err := m.storage.FetchLeagueNight(ctx, nightID); err != nil {
		return err
	}

	now := m.clock.Now()
	for _, s := range shots {
		scoring.Normalize(s)
		if s.EnteredAt.IsZero() {
			s.EnteredAt = now
		}
	}
	var err error
	if len(shots) == 1 {
		err = m.storage.UpsertShot(ctx, shots[0])
	} else {
		err = m.storage.UpsertShots(ctx, shots)
	}
	if err != nil {
		return err
	}

	m.changed(ctx, nightID, model.EventScoreUpdated, func(ev *model.NightEvent) {
		if totals, err := m.Totals(ctx, nightID); err == nil {
			ev.Totals = totals
		}
	})
	return nil
}

// roster loads the labels Totals needs.
func (m *Manager) roster(ctx context.Context) (scoring.Roster, error) {
	players, err := m.storage.FetchPlayers(ctx)
	if err != nil {
		return scoring.Roster{}, err
	}
	divisions, err := m.storage.FetchDivisions(ctx)
	if err != nil {
		return scoring.Roster{}, err
	}
	return scoring.NewRoster(players, divisions), nil
}

// Totals is the night's leaderboard: everyone with a shot, best first.
func (m *Manager) Totals(ctx context.Context, nightID string) ([]*model.PlayerTotal, error) {
	if _, err := m.storage.FetchLeagueNight(ctx, nightID); err != nil {
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
	return scoring.Totals(shots, roster), nil
}

// DetectTies reports each division whose paid players are tied for first.
// Divisions come back in display order.
func (m *Manager) DetectTies(ctx context.Context, nightID string) ([]*model.TiedGroup, error) {
	sheet, err := m.sheet(ctx, nightID)
	if err != nil {
		return nil, err
	}
	ties := []*model.TiedGroup{}
	for _, ds := range sheet.divisions {
		top := ranking.TopTie(ds.ranked)
		if top == nil {
			continue
		}
		ties = append(ties, &model.TiedGroup{
			DivisionID:   ds.division.ID,
			DivisionCode: ds.division.Code,
			Players:      top,
		})
	}
	return ties, nil
}
