// Package model holds the plain data types that storage, the engine, and
// the host surfaces pass around.  Behavior lives in the engine packages
// (scoring, ranking, payout, puttoff, cards), not here.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Position is which station a shot was thrown from.
type Position string

const (
	PositionShort Position = "SHORT"
	PositionLong  Position = "LONG"
)

func (p Position) Valid() bool {
	return p == PositionShort || p == PositionLong
}

func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown position %q", s)
	}
	return p, nil
}

// TieBreakMode is how a night settles ties that carry prize money.
type TieBreakMode string

const (
	TieBreakSplit   TieBreakMode = "SPLIT"
	TieBreakPuttOff TieBreakMode = "PUTT_OFF"
)

func (m TieBreakMode) Valid() bool {
	return m == TieBreakSplit || m == TieBreakPuttOff
}

func ParseTieBreakMode(s string) (TieBreakMode, error) {
	m := TieBreakMode(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown tie-break mode %q", s)
	}
	return m, nil
}

// MaxMade is the number of attempts at a station.  Making all of them earns
// the bonus.
const MaxMade = 3

// LeagueNight is one night of play.
type LeagueNight struct {
	ID           string
	Name         string
	Date         time.Time
	TieBreakMode TieBreakMode
	TotalHoles   int
	// Version bumps on every write that changes standings, so listeners
	// can tell whether they're behind.
	Version int64
}

func (n *LeagueNight) Clone() *LeagueNight {
	cpy := *n
	return &cpy
}

// Division groups players who compete for the same prize pool.
type Division struct {
	ID        string
	Code      string
	Name      string
	EntryFee  int64 // whole currency units
	SortOrder int
}

type Player struct {
	ID         string
	Name       string
	DivisionID string
}

// CheckIn says a player showed up.  Only paid check-ins fund a prize pool,
// but everybody checked in gets a card.
type CheckIn struct {
	LeagueNightID string
	PlayerID      string
	DivisionID    string
	Paid          bool
}

// ShotResult is the atomic scoring fact: how many of three attempts a
// player made from one station on one hole in one round.
type ShotResult struct {
	LeagueNightID string
	PlayerID      string
	HoleID        string
	RoundID       string
	Position      Position
	Made          int
	Bonus         bool
	EnteredBy     string
	EnteredAt     time.Time
}

// ShotKey is the upsert identity of a ShotResult.
type ShotKey struct {
	PlayerID string
	HoleID   string
	RoundID  string
	Position Position
}

func (s *ShotResult) Key() ShotKey {
	return ShotKey{
		PlayerID: s.PlayerID,
		HoleID:   s.HoleID,
		RoundID:  s.RoundID,
		Position: s.Position,
	}
}

// PlayerTotal is derived from every ShotResult a player has for a night.
// It is never stored.
type PlayerTotal struct {
	PlayerID     string
	PlayerName   string
	DivisionID   string
	DivisionCode string
	TotalMade    int
	TotalBonus   int
	TotalScore   int
	ShortMade    int
	LongMade     int
}

// Score is what ranking compares.
func (pt *PlayerTotal) Score() int {
	return pt.TotalScore
}

// PayoutEntry is one line of a division's payout sheet.
type PayoutEntry struct {
	Place          int
	PlayerID       string
	PlayerName     string
	TotalScore     int
	Payout         int64
	IsTied         bool
	PendingPuttOff bool
}

// DivisionPayout is the payout sheet for one division on one night.
type DivisionPayout struct {
	DivisionID     string
	DivisionCode   string
	DivisionName   string
	EntryFee       int64
	SortOrder      int
	CheckedInCount int
	PaidCount      int
	Pool           int64
	// Percentages are in basis points (10000 = 100%), index 0 = 1st place.
	Percentages  []int
	TieBreakMode TieBreakMode
	Entries      []*PayoutEntry
	// Withheld is money assigned to a tied group that is waiting on a
	// putt-off.  Entries plus Withheld always add up to Pool.
	Withheld int64
}

// TiedGroup is a first-place tie within a division.
type TiedGroup struct {
	DivisionID   string
	DivisionCode string
	Players      []*PlayerTotal
}

// NightEventType says what changed about a night.
type NightEventType string

const (
	EventScoreUpdated       NightEventType = "SCORE_UPDATED"
	EventLeaderboardUpdated NightEventType = "LEADERBOARD_UPDATED"
	EventCardsUpdated       NightEventType = "CARDS_UPDATED"
	EventPuttOffUpdated     NightEventType = "PUTT_OFF_UPDATED"
	EventCheckInUpdated     NightEventType = "CHECK_IN_UPDATED"
)

// NightEvent is what observers hear after a mutation.
type NightEvent struct {
	Type          NightEventType
	LeagueNightID string
	Version       int64
	At            time.Time
	Totals        []*PlayerTotal `json:",omitempty"`
	PuttOff       *PuttOff       `json:",omitempty"`
}
