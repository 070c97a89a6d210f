// Package payout distributes a division's prize pool over a ranking.
//
// Money is whole currency units and percentages are basis points, so the
// arithmetic is exact.  Every non-empty ranking accounts for the whole pool:
// the entries' payouts plus Result.Withheld always equal the pool.
package payout

import (
	"github.com/ts4z/puttleague/builtins"
	"github.com/ts4z/puttleague/he"
	"github.com/ts4z/puttleague/model"
	"github.com/ts4z/puttleague/paytable"
	"github.com/ts4z/puttleague/ranking"
)

type Options struct {
	// Mode is how the tie for first is settled.  Lower ties always split.
	Mode model.TieBreakMode
	// PuttOffWinnerID settles a PUTT_OFF tie for first once it's known.
	PuttOffWinnerID string
	// Paytable defaults to builtins.LeaguePaytable.
	Paytable *paytable.Paytable
}

// GroupAmount is the money assigned to one run of equal scores.
type GroupAmount struct {
	Place     int
	PlayerIDs []string
	// Basis is the sum of the percentage slice covering the group's places.
	Basis  int
	Amount int64
}

type Result struct {
	Entries []*model.PayoutEntry
	Groups  []*GroupAmount
	// Withheld is money waiting on a putt-off, or pool the table had no
	// places for.
	Withheld int64
}

// Total is the money paid out to entries.
func (r *Result) Total() int64 {
	var sum int64
	for _, e := range r.Entries {
		sum += e.Payout
	}
	return sum
}

// Calculate lays out payouts for ranked, which must already be in canonical
// order (see scoring.SortTotals).
func Calculate(pool int64, ranked []*model.PlayerTotal, opts Options) (*Result, error) {
	if pool < 0 {
		return nil, he.ValidationErrorf("prize pool can't be negative (%d)", pool)
	}
	if opts.Mode == "" {
		opts.Mode = model.TieBreakSplit
	}
	if !opts.Mode.Valid() {
		return nil, he.ValidationErrorf("unknown tie-break mode %q", opts.Mode)
	}
	pt := opts.Paytable
	if pt == nil {
		pt = builtins.LeaguePaytable()
	}

	r := &Result{
		Entries: []*model.PayoutEntry{},
		Groups:  []*GroupAmount{},
	}
	if len(ranked) == 0 {
		return r, nil
	}

	percentages := pt.Percentages(len(ranked))
	groups := ranking.GroupByConsecutiveScore(ranked)
	places := ranking.Places(groups)

	offset := 0
	for i, g := range groups {
		lo := min(offset, len(percentages))
		hi := min(offset+len(g), len(percentages))
		basis := 0
		for _, bp := range percentages[lo:hi] {
			basis += bp
		}
		ga := &GroupAmount{
			Place:  places[i],
			Basis:  basis,
			Amount: roundBasis(pool, basis),
		}
		for _, p := range g {
			ga.PlayerIDs = append(ga.PlayerIDs, p.PlayerID)
		}
		r.Groups = append(r.Groups, ga)
		offset += len(g)
	}

	r.Withheld += fixUp(pool, r.Groups)

	for i, g := range groups {
		r.distribute(g, r.Groups[i], i == 0, opts)
	}
	return r, nil
}

// roundBasis is pool × basis / 10000, rounded half up.
func roundBasis(pool int64, basis int) int64 {
	return (pool*int64(basis) + paytable.WholePool/2) / paytable.WholePool
}

// fixUp makes the group amounts add up to pool exactly.  The last group that
// rounded above zero absorbs the drift.  If nothing rounded above zero (a
// tiny pool), the best-placed group with any percentage takes the lot.  Returns
// whatever couldn't be placed at all.
func fixUp(pool int64, groups []*GroupAmount) int64 {
	last := -1
	for i := len(groups) - 1; i >= 0; i-- {
		if groups[i].Amount > 0 {
			last = i
			break
		}
	}
	if last < 0 {
		if pool == 0 {
			return 0
		}
		for i, g := range groups {
			if g.Basis > 0 {
				last = i
				break
			}
		}
		if last < 0 {
			return pool
		}
	}

	var earlier int64
	for _, g := range groups[:last] {
		earlier += g.Amount
	}
	groups[last].Amount = pool - earlier
	return 0
}

func (r *Result) distribute(g []*model.PlayerTotal, ga *GroupAmount, top bool, opts Options) {
	tied := len(g) > 1
	entries := make([]*model.PayoutEntry, len(g))
	for i, p := range g {
		entries[i] = &model.PayoutEntry{
			Place:      ga.Place + i,
			PlayerID:   p.PlayerID,
			PlayerName: p.PlayerName,
			TotalScore: p.TotalScore,
			IsTied:     tied,
		}
	}
	r.Entries = append(r.Entries, entries...)

	switch {
	case ga.Amount == 0:
		// Nothing to hand out.
	case !tied:
		entries[0].Payout = ga.Amount
	case top && opts.Mode == model.TieBreakPuttOff:
		for _, e := range entries {
			if opts.PuttOffWinnerID != "" && e.PlayerID == opts.PuttOffWinnerID {
				e.Payout = ga.Amount
				return
			}
		}
		for _, e := range entries {
			e.PendingPuttOff = true
		}
		r.Withheld += ga.Amount
	default:
		n := int64(len(entries))
		base := ga.Amount / n
		for _, e := range entries {
			e.Payout = base
		}
		entries[len(entries)-1].Payout += ga.Amount - base*n
	}
}
