// Package puttoff is the sudden-death state machine for a first-place tie.
//
// A putt-off sits in AwaitingScores until a round produces a single top
// score.  Rounds advance only when scores are submitted; there is no round
// limit and no timer.  An operator may Abandon a stuck putt-off, in which
// case the tie is split.
package puttoff

import (
	"github.com/google/uuid"

	"github.com/ts4z/puttleague/he"
	"github.com/ts4z/puttleague/model"
)

// Score is one player's result for the current round.
type Score struct {
	PlayerID string
	Made     int
}

// Outcome is what a round produced.  A round that ends tied isn't an error;
// StillTied says who throws again in Round.
type Outcome struct {
	WinnerID      string
	StillTied     bool
	TiedPlayerIDs []string
	Round         int
}

// New starts a putt-off with placeholder round-one rows.
func New(nightID, divisionID string, tiedIDs []string) (*model.PuttOff, error) {
	if nightID == "" {
		return nil, he.ValidationErrorf("putt-off needs a league night")
	}
	seen := map[string]bool{}
	ids := []string{}
	for _, id := range tiedIDs {
		if id == "" {
			return nil, he.ValidationErrorf("putt-off participant with empty id")
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		return nil, he.ValidationErrorf("putt-off needs at least 2 players, got %d", len(ids))
	}

	p := &model.PuttOff{
		ID:            uuid.NewString(),
		LeagueNightID: nightID,
		DivisionID:    divisionID,
		CurrentRound:  1,
		Status:        model.PuttOffAwaitingScores,
	}
	addRound(p, 1, ids)
	return p, nil
}

func addRound(p *model.PuttOff, round int, ids []string) {
	for _, id := range ids {
		p.Participants = append(p.Participants, &model.PuttOffParticipant{
			PlayerID: id,
			Round:    round,
		})
	}
}

// RecordRound applies scores to the current round and advances the machine.
// Re-submitting a player's score before the round closes replaces it.  p is
// modified in place; on error it is untouched.
func RecordRound(p *model.PuttOff, scores []Score) (*Outcome, error) {
	if p.Status.Terminal() {
		return nil, he.ValidationErrorf("putt-off %s is already %s", p.ID, p.Status)
	}
	if len(scores) == 0 {
		return nil, he.ValidationErrorf("no scores for putt-off %s round %d", p.ID, p.CurrentRound)
	}

	current := map[string]*model.PuttOffParticipant{}
	for _, pp := range p.RoundParticipants(p.CurrentRound) {
		current[pp.PlayerID] = pp
	}
	seen := map[string]bool{}
	for _, s := range scores {
		if s.Made < 0 || s.Made > model.MaxMade {
			return nil, he.ValidationErrorf("made must be between 0 and %d, got %d", model.MaxMade, s.Made)
		}
		if seen[s.PlayerID] {
			return nil, he.ValidationErrorf("player %s scored twice in one submission", s.PlayerID)
		}
		seen[s.PlayerID] = true
		if _, ok := current[s.PlayerID]; !ok {
			return nil, he.ValidationErrorf("player %s is not in round %d of putt-off %s",
				s.PlayerID, p.CurrentRound, p.ID)
		}
	}

	top := -1
	for _, s := range scores {
		pp := current[s.PlayerID]
		pp.Made = s.Made
		pp.Bonus = s.Made == model.MaxMade
		top = max(top, s.Made)
	}

	// Winners in participant order, not submission order.
	winners := []string{}
	for _, pp := range p.RoundParticipants(p.CurrentRound) {
		if seen[pp.PlayerID] && pp.Made == top {
			winners = append(winners, pp.PlayerID)
		}
	}

	if len(winners) == 1 {
		p.Status = model.PuttOffResolved
		p.WinnerID = winners[0]
		return &Outcome{WinnerID: winners[0], Round: p.CurrentRound}, nil
	}

	p.CurrentRound++
	addRound(p, p.CurrentRound, winners)
	return &Outcome{
		StillTied:     true,
		TiedPlayerIDs: winners,
		Round:         p.CurrentRound,
	}, nil
}

// Abandon gives up on a putt-off that isn't resolved.  The division's tie
// is then split.
func Abandon(p *model.PuttOff) error {
	switch p.Status {
	case model.PuttOffResolved:
		return he.ValidationErrorf("putt-off %s already has a winner", p.ID)
	case model.PuttOffAbandoned:
		return nil
	}
	p.Status = model.PuttOffAbandoned
	return nil
}

// Standing describes a putt-off for display.
func Standing(p *model.PuttOff) *Outcome {
	o := &Outcome{Round: p.CurrentRound, WinnerID: p.WinnerID}
	if p.Status == model.PuttOffAwaitingScores {
		o.StillTied = true
		for _, pp := range p.RoundParticipants(p.CurrentRound) {
			o.TiedPlayerIDs = append(o.TiedPlayerIDs, pp.PlayerID)
		}
	}
	return o
}
