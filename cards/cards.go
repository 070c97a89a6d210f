// Package cards splits a night's checked-in players into cards.
//
// The protected division gets cards of its own when there are enough
// players to go around; everyone else is dealt out as evenly as possible.
// This is a heuristic with specific folding rules, not an optimal packer,
// and the shape of its output is something players notice week to week.
package cards

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/ts4z/puttleague/he"
	"github.com/ts4z/puttleague/ick"
	"github.com/ts4z/puttleague/model"
)

// DefaultProtectedDivision is the division code that gets dedicated cards.
const DefaultProtectedDivision = "CCC"

// Entrant is a checked-in player as the partitioner sees them.
type Entrant struct {
	PlayerID     string
	DivisionCode string
}

type Options struct {
	MinPlayersPerCard int
	TotalHoles        int
	Shuffle           bool
	// ProtectedDivision defaults to DefaultProtectedDivision.
	ProtectedDivision string
	// Rand is used for shuffling; nil means the global source.
	Rand *rand.Rand
}

// Plan is the arithmetic behind a partition, exposed for display and tests.
// CardCount is always the number of groups returned.
type Plan struct {
	CardCount      int
	MaxCardSize    int
	ProtectedCards int
	TargetSizes    []int
}

// Partition groups players into cards.  Every player lands on exactly one
// card and there are never more cards than holes.  Cards that would come
// out empty are dropped.
func Partition(players []Entrant, opts Options) ([][]Entrant, error) {
	groups, _, err := partition(players, opts)
	return groups, err
}

// PartitionWithPlan is Partition that also reports how it sized things.
func PartitionWithPlan(players []Entrant, opts Options) ([][]Entrant, *Plan, error) {
	return partition(players, opts)
}

func partition(players []Entrant, opts Options) ([][]Entrant, *Plan, error) {
	if opts.MinPlayersPerCard < 1 {
		return nil, nil, he.ValidationErrorf("minimum players per card must be at least 1, got %d", opts.MinPlayersPerCard)
	}
	if opts.TotalHoles < 1 {
		return nil, nil, he.ValidationErrorf("total holes must be at least 1, got %d", opts.TotalHoles)
	}
	n := len(players)
	if n == 0 {
		return nil, nil, he.EmptyInputErrorf("no checked-in players to put on cards")
	}
	protectedCode := opts.ProtectedDivision
	if protectedCode == "" {
		protectedCode = DefaultProtectedDivision
	}

	protected := []Entrant{}
	other := []Entrant{}
	for _, p := range players {
		if p.DivisionCode == protectedCode {
			protected = append(protected, p)
		} else {
			other = append(other, p)
		}
	}
	if opts.Shuffle {
		ick.NShuffleWith(opts.Rand, protected)
		ick.NShuffleWith(opts.Rand, other)
	}

	cardCount := 1
	if n >= opts.MinPlayersPerCard {
		cardCount = min(n/opts.MinPlayersPerCard, opts.TotalHoles)
	}
	maxCardSize := ceilDiv(n, cardCount)

	k := 0
	switch {
	case len(protected) == 0:
	case len(protected) <= maxCardSize:
		k = 1
	default:
		k = ceilDiv(len(protected), maxCardSize)
	}
	if len(other) > 0 {
		k = min(k, cardCount-1)
	}
	if k == 0 && len(protected) > 0 {
		other = append(other, protected...)
		protected = nil
		if opts.Shuffle {
			ick.NShuffleWith(opts.Rand, other)
		}
	}

	base, rem := n/cardCount, n%cardCount
	targets := make([]int, cardCount)
	for i := range targets {
		targets[i] = base
		if i < rem {
			targets[i]++
		}
	}

	plan := &Plan{
		CardCount:      cardCount,
		MaxCardSize:    maxCardSize,
		ProtectedCards: k,
		TargetSizes:    targets,
	}

	groups := make([][]Entrant, 0, cardCount)
	pi, oi := 0, 0
	take := func(pool []Entrant, at *int, count int) []Entrant {
		end := min(*at+max(count, 0), len(pool))
		s := pool[*at:end]
		*at = end
		return s
	}

	if k > 0 {
		perCard, extra := len(protected)/k, len(protected)%k
		for i := 0; i < k; i++ {
			onCard := perCard
			if i < extra {
				onCard++
			}
			g := []Entrant{}
			g = append(g, take(protected, &pi, onCard)...)
			// A card already over target takes no padding.
			g = append(g, take(other, &oi, targets[i]-onCard)...)
			groups = append(groups, g)
		}
	}
	for i := k; i < cardCount; i++ {
		g := append([]Entrant{}, take(other, &oi, targets[i])...)
		groups = append(groups, g)
	}
	// With no general players, cards reserved for them come out empty.  The
	// plan describes the cards that survive.
	out := groups[:0]
	kept := []int{}
	for i, g := range groups {
		if len(g) > 0 {
			out = append(out, g)
			kept = append(kept, targets[i])
		}
	}
	plan.CardCount = len(out)
	plan.TargetSizes = kept
	return out, plan, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Build turns partitioned groups into cards for a night.  Card i starts on
// hole (i mod totalHoles) + 1; throw order is the group's order.
func Build(nightID string, groups [][]Entrant, totalHoles int) []*model.Card {
	if totalHoles < 1 {
		totalHoles = 1
	}
	cards := make([]*model.Card, len(groups))
	for i, g := range groups {
		c := &model.Card{
			ID:            uuid.NewString(),
			LeagueNightID: nightID,
			Name:          fmt.Sprintf("Card %d", i+1),
			StartingHole:  (i % totalHoles) + 1,
		}
		for j, e := range g {
			c.Players = append(c.Players, &model.CardPlayer{PlayerID: e.PlayerID, SortOrder: j})
		}
		cards[i] = c
	}
	return cards
}

// AssignScorekeeper makes playerID the card's scorekeeper and reshuffles
// the throw order.
func AssignScorekeeper(c *model.Card, playerID string, rng *rand.Rand) error {
	if !c.HasPlayer(playerID) {
		return he.ValidationErrorf("player %s is not on %s", playerID, c.Name)
	}
	c.ScorekeeperID = playerID
	ReorderThrows(c, rng)
	return nil
}

// RandomScorekeeper picks a scorekeeper from the card's players.  It
// returns the chosen id.
func RandomScorekeeper(c *model.Card, rng *rand.Rand) (string, error) {
	if len(c.Players) == 0 {
		return "", he.EmptyInputErrorf("%s has no players", c.Name)
	}
	var i int
	if rng == nil {
		i = rand.Intn(len(c.Players))
	} else {
		i = rng.Intn(len(c.Players))
	}
	id := c.Players[i].PlayerID
	if err := AssignScorekeeper(c, id, rng); err != nil {
		return "", err
	}
	return id, nil
}

func ClearScorekeeper(c *model.Card) {
	c.ScorekeeperID = ""
}

// ReorderThrows gives the card a fresh random throw order.
func ReorderThrows(c *model.Card, rng *rand.Rand) {
	ick.NShuffleWith(rng, c.Players)
	for i, cp := range c.Players {
		cp.SortOrder = i
	}
}
