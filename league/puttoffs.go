package league

import (
	"context"

	"github.com/ts4z/puttleague/he"
	"github.com/ts4z/puttleague/model"
	"github.com/ts4z/puttleague/puttoff"
)

// StartPuttOff opens a putt-off for a division.  With no playerIDs, the
// division's current tie for first is used.  A division can have only one
// putt-off that hasn't been abandoned.
func (m *Manager) StartPuttOff(ctx context.Context, nightID, divisionID string, playerIDs []string) (*model.PuttOff, error) {
	if _, err := m.storage.FetchLeagueNight(ctx, nightID); err != nil {
		return nil, err
	}
	existing, err := m.storage.FetchPuttOffs(ctx, nightID)
	if err != nil {
		return nil, err
	}
	for _, p := range existing {
		if p.DivisionID == divisionID && p.Status != model.PuttOffAbandoned {
			return nil, he.ValidationErrorf("division %s already has putt-off %s (%s)", divisionID, p.ID, p.Status)
		}
	}

	if len(playerIDs) == 0 {
		ties, err := m.DetectTies(ctx, nightID)
		if err != nil {
			return nil, err
		}
		for _, t := range ties {
			if t.DivisionID == divisionID {
				for _, pt := range t.Players {
					playerIDs = append(playerIDs, pt.PlayerID)
				}
			}
		}
		if len(playerIDs) == 0 {
			return nil, he.ValidationErrorf("division %s has no tie for first", divisionID)
		}
	}

	p, err := puttoff.New(nightID, divisionID, playerIDs)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = m.clock.Now()
	if err := m.storage.CreatePuttOff(ctx, p); err != nil {
		return nil, err
	}
	m.puttOffChanged(ctx, p)
	return p, nil
}

func (m *Manager) puttOffChanged(ctx context.Context, p *model.PuttOff) {
	m.changed(ctx, p.LeagueNightID, model.EventPuttOffUpdated, func(ev *model.NightEvent) {
		ev.PuttOff = p.Clone()
	})
}

// RecordPuttOffRound scores the current round.  A round that ties again
// isn't an error; the outcome says who throws next.
func (m *Manager) RecordPuttOffRound(ctx context.Context, puttOffID string, scores []puttoff.Score) (*model.PuttOff, *puttoff.Outcome, error) {
	p, err := m.storage.FetchPuttOff(ctx, puttOffID)
	if err != nil {
		return nil, nil, err
	}
	outcome, err := puttoff.RecordRound(p, scores)
	if err != nil {
		return nil, nil, err
	}
	if err := m.storage.SavePuttOff(ctx, p); err != nil {
		return nil, nil, err
	}
	m.puttOffChanged(ctx, p)
	return p, outcome, nil
}

// AbandonPuttOff gives up on a putt-off.  The division's tie is split.
func (m *Manager) AbandonPuttOff(ctx context.Context, puttOffID string) (*model.PuttOff, error) {
	p, err := m.storage.FetchPuttOff(ctx, puttOffID)
	if err != nil {
		return nil, err
	}
	if p.Status == model.PuttOffAbandoned {
		return p, nil
	}
	if err := puttoff.Abandon(p); err != nil {
		return nil, err
	}
	if err := m.storage.SavePuttOff(ctx, p); err != nil {
		return nil, err
	}
	m.puttOffChanged(ctx, p)
	return p, nil
}

func (m *Manager) PuttOffs(ctx context.Context, nightID string) ([]*model.PuttOff, error) {
	if _, err := m.storage.FetchLeagueNight(ctx, nightID); err != nil {
		return nil, err
	}
	return m.storage.FetchPuttOffs(ctx, nightID)
}

func (m *Manager) PuttOff(ctx context.Context, id string) (*model.PuttOff, error) {
	return m.storage.FetchPuttOff(ctx, id)
}
