package league

import (
	"context"
	"math/rand"

	"github.com/ts4z/puttleague/cards"
	"github.com/ts4z/puttleague/he"
	"github.com/ts4z/puttleague/model"
)

type GenerateOptions struct {
	MinPlayersPerCard int
	Shuffle           bool
}

// GenerateCards deals tonight's checked-in players onto cards, replacing
// any cards the night already had.
func (m *Manager) GenerateCards(ctx context.Context, nightID string, opts GenerateOptions) ([]*model.Card, *cards.Plan, error) {
	night, err := m.storage.FetchLeagueNight(ctx, nightID)
	if err != nil {
		return nil, nil, err
	}
	checkIns, err := m.storage.FetchCheckIns(ctx, nightID)
	if err != nil {
		return nil, nil, err
	}
	divisions, err := m.storage.FetchDivisions(ctx)
	if err != nil {
		return nil, nil, err
	}
	codes := map[string]string{}
	for _, d := range divisions {
		codes[d.ID] = d.Code
	}
	entrants := make([]cards.Entrant, len(checkIns))
	for i, c := range checkIns {
		entrants[i] = cards.Entrant{PlayerID: c.PlayerID, DivisionCode: codes[c.DivisionID]}
	}

	var built []*model.Card
	var plan *cards.Plan
	err = m.withRand(func(rng *rand.Rand) error {
		groups, p, err := cards.PartitionWithPlan(entrants, cards.Options{
			MinPlayersPerCard: opts.MinPlayersPerCard,
			TotalHoles:        night.TotalHoles,
			Shuffle:           opts.Shuffle,
			ProtectedDivision: m.protectedDivision,
			Rand:              rng,
		})
		if err != nil {
			return err
		}
		built, plan = cards.Build(nightID, groups, night.TotalHoles), p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if err := m.storage.ReplaceCards(ctx, nightID, built); err != nil {
		return nil, nil, err
	}
	m.changed(ctx, nightID, model.EventCardsUpdated, nil)
	return built, plan, nil
}

func (m *Manager) Cards(ctx context.Context, nightID string) ([]*model.Card, error) {
	if _, err := m.storage.FetchLeagueNight(ctx, nightID); err != nil {
		return nil, err
	}
	return m.storage.FetchCards(ctx, nightID)
}

// updateCard loads a card, applies f, and saves it.
func (m *Manager) updateCard(ctx context.Context, cardID string, f func(c *model.Card, rng *rand.Rand) error) (*model.Card, error) {
	c, err := m.storage.FetchCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if err := m.withRand(func(rng *rand.Rand) error { return f(c, rng) }); err != nil {
		return nil, err
	}
	if err := m.storage.SaveCard(ctx, c); err != nil {
		return nil, err
	}
	m.changed(ctx, c.LeagueNightID, model.EventCardsUpdated, nil)
	return c, nil
}

// AssignScorekeeper makes a player on the card its scorekeeper and
// reshuffles the throw order.
func (m *Manager) AssignScorekeeper(ctx context.Context, cardID, playerID string) (*model.Card, error) {
	if playerID == "" {
		return nil, he.ValidationErrorf("no scorekeeper given")
	}
	return m.updateCard(ctx, cardID, func(c *model.Card, rng *rand.Rand) error {
		return cards.AssignScorekeeper(c, playerID, rng)
	})
}

func (m *Manager) RandomScorekeeper(ctx context.Context, cardID string) (*model.Card, error) {
	return m.updateCard(ctx, cardID, func(c *model.Card, rng *rand.Rand) error {
		_, err := cards.RandomScorekeeper(c, rng)
		return err
	})
}

func (m *Manager) ClearScorekeeper(ctx context.Context, cardID string) (*model.Card, error) {
	return m.updateCard(ctx, cardID, func(c *model.Card, _ *rand.Rand) error {
		cards.ClearScorekeeper(c)
		return nil
	})
}
