// Package dbcache puts read-through caches in front of state.Storage.
package dbcache

import (
	"context"
	"time"

	"github.com/ts4z/puttleague/model"
	"github.com/ts4z/puttleague/state"
)

// Storage is a state.Storage whose night and roster reads are cached.
// Everything else goes to the embedded next storage.
type Storage struct {
	state.Storage
	Nights *NightStorage
	Roster *RosterStorage
}

var _ state.Storage = (*Storage)(nil)

func NewStorage(next state.Storage, size int, clock Nower, rosterTTL time.Duration) *Storage {
	return &Storage{
		Storage: next,
		Nights:  NewNightStorage(size, next),
		Roster:  NewRosterStorage(next, clock, rosterTTL),
	}
}

func (s *Storage) FetchLeagueNight(ctx context.Context, id string) (*model.LeagueNight, error) {
	return s.Nights.FetchLeagueNight(ctx, id)
}

func (s *Storage) FetchLeagueNights(ctx context.Context) ([]*model.LeagueNight, error) {
	return s.Nights.FetchLeagueNights(ctx)
}

func (s *Storage) CreateLeagueNight(ctx context.Context, n *model.LeagueNight) error {
	return s.Nights.CreateLeagueNight(ctx, n)
}

func (s *Storage) BumpVersion(ctx context.Context, id string) (int64, error) {
	return s.Nights.BumpVersion(ctx, id)
}

func (s *Storage) FetchDivisions(ctx context.Context) ([]*model.Division, error) {
	return s.Roster.FetchDivisions(ctx)
}

func (s *Storage) FetchPlayers(ctx context.Context) ([]*model.Player, error) {
	return s.Roster.FetchPlayers(ctx)
}

func (s *Storage) SaveDivision(ctx context.Context, d *model.Division) error {
	return s.Roster.SaveDivision(ctx, d)
}

func (s *Storage) SavePlayer(ctx context.Context, p *model.Player) error {
	return s.Roster.SavePlayer(ctx, p)
}
