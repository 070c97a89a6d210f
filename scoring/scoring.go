// Package scoring turns raw shot results into player totals.
//
// Totals are never stored.  They are re-derived from every shot for a night
// on each request, and SortTotals is the one ordering everything downstream
// (ties, payout remainders) relies on.
package scoring

import (
	"sort"
	"strings"

	"github.com/ts4z/puttleague/he"
	"github.com/ts4z/puttleague/model"
)

// Roster is what Totals needs to label a player.  Either map may be nil.
type Roster struct {
	Players   map[string]*model.Player
	Divisions map[string]*model.Division
}

// NewRoster indexes players and divisions by id.
func NewRoster(players []*model.Player, divisions []*model.Division) Roster {
	r := Roster{
		Players:   make(map[string]*model.Player, len(players)),
		Divisions: make(map[string]*model.Division, len(divisions)),
	}
	for _, p := range players {
		r.Players[p.ID] = p
	}
	for _, d := range divisions {
		r.Divisions[d.ID] = d
	}
	return r
}

// ValidateShot rejects a shot rather than clamping it.
func ValidateShot(s *model.ShotResult) error {
	if s == nil {
		return he.ValidationErrorf("missing shot")
	}
	if s.Made < 0 || s.Made > model.MaxMade {
		return he.ValidationErrorf("made must be between 0 and %d, got %d", model.MaxMade, s.Made)
	}
	if !s.Position.Valid() {
		return he.ValidationErrorf("unknown position %q", s.Position)
	}
	missing := []string{}
	if s.LeagueNightID == "" {
		missing = append(missing, "league night")
	}
	if s.PlayerID == "" {
		missing = append(missing, "player")
	}
	if s.HoleID == "" {
		missing = append(missing, "hole")
	}
	if s.RoundID == "" {
		missing = append(missing, "round")
	}
	if len(missing) > 0 {
		return he.ValidationErrorf("shot is missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Normalize derives the bonus flag from made.
func Normalize(s *model.ShotResult) {
	s.Bonus = s.Made == model.MaxMade
}

// OrderShots sorts shots into retrieval order: first-entered time, then
// player id.  Storage implementations use this so that every backend hands
// Totals the same sequence.
func OrderShots(shots []*model.ShotResult) {
	sort.SliceStable(shots, func(i, j int) bool {
		a, b := shots[i], shots[j]
		if !a.EnteredAt.Equal(b.EnteredAt) {
			return a.EnteredAt.Before(b.EnteredAt)
		}
		return a.PlayerID < b.PlayerID
	})
}

// Totals aggregates shots per player, in order of each player's first
// appearance in shots, then applies SortTotals.  Shots are expected in
// retrieval order (see OrderShots).
func Totals(shots []*model.ShotResult, roster Roster) []*model.PlayerTotal {
	byPlayer := map[string]*model.PlayerTotal{}
	totals := []*model.PlayerTotal{}

	for _, s := range shots {
		pt, ok := byPlayer[s.PlayerID]
		if !ok {
			pt = newTotal(s.PlayerID, roster)
			byPlayer[s.PlayerID] = pt
			totals = append(totals, pt)
		}
		pt.TotalMade += s.Made
		if s.Made == model.MaxMade {
			pt.TotalBonus++
		}
		switch s.Position {
		case model.PositionShort:
			pt.ShortMade += s.Made
		case model.PositionLong:
			pt.LongMade += s.Made
		}
	}

	for _, pt := range totals {
		pt.TotalScore = pt.TotalMade + pt.TotalBonus
	}

	SortTotals(totals)
	return totals
}

// ZeroTotal is the total for a player with no shots yet.
func ZeroTotal(playerID string, roster Roster) *model.PlayerTotal {
	return newTotal(playerID, roster)
}

func newTotal(playerID string, roster Roster) *model.PlayerTotal {
	pt := &model.PlayerTotal{PlayerID: playerID}
	if p, ok := roster.Players[playerID]; ok {
		pt.PlayerName = p.Name
		pt.DivisionID = p.DivisionID
		if d, ok := roster.Divisions[p.DivisionID]; ok {
			pt.DivisionCode = d.Code
		}
	}
	return pt
}

// SortTotals orders by TotalScore, highest first.  Equal scores keep their
// incoming order; the SPLIT remainder goes to whoever ends up last in a tie,
// so this must stay a stable sort.
func SortTotals(totals []*model.PlayerTotal) {
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].TotalScore > totals[j].TotalScore
	})
}

// StationHole is the hole a throwing station is nominally on in a given
// round, 1-based.  It's for display and sanity checks; starting holes come
// from card generation.  Returns 0 if totalHoles < 1.
func StationHole(stationIndex, roundNumber, totalHoles int) int {
	if totalHoles < 1 {
		return 0
	}
	m := (stationIndex + roundNumber - 1) % totalHoles
	if m < 0 {
		m += totalHoles
	}
	return m + 1
}
