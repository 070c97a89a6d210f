package model

import "time"

// PuttOffStatus is the visible state of a sudden-death shoot-off.
type PuttOffStatus string

const (
	// PuttOffAwaitingScores means the current round needs scores.  A
	// putt-off that keeps tying stays here forever unless abandoned.
	PuttOffAwaitingScores PuttOffStatus = "AWAITING_SCORES"
	PuttOffResolved       PuttOffStatus = "RESOLVED"
	// PuttOffAbandoned means an operator gave up; the division's payout
	// falls back to an even split.
	PuttOffAbandoned PuttOffStatus = "ABANDONED"
)

func (s PuttOffStatus) Terminal() bool {
	return s == PuttOffResolved || s == PuttOffAbandoned
}

// PuttOff resolves a first-place tie in one division.
type PuttOff struct {
	ID            string
	LeagueNightID string
	DivisionID    string
	CurrentRound  int
	Status        PuttOffStatus
	WinnerID      string
	CreatedAt     time.Time
	// Participants is append-only: one row per player per round they
	// reached.
	Participants []*PuttOffParticipant
}

type PuttOffParticipant struct {
	PlayerID string
	Round    int
	Made     int
	Bonus    bool
}

// RoundParticipants returns the rows for one round, in insertion order.
func (p *PuttOff) RoundParticipants(round int) []*PuttOffParticipant {
	r := []*PuttOffParticipant{}
	for _, pp := range p.Participants {
		if pp.Round == round {
			r = append(r, pp)
		}
	}
	return r
}

func (p *PuttOff) Clone() *PuttOff {
	cpy := *p
	cpy.Participants = make([]*PuttOffParticipant, len(p.Participants))
	for i, pp := range p.Participants {
		ppc := *pp
		cpy.Participants[i] = &ppc
	}
	return &cpy
}
