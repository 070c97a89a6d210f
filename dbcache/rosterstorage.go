package dbcache

import (
	"context"
	"sync"
	"time"

	"github.com/ts4z/puttleague/model"
	"github.com/ts4z/puttleague/state"
	"github.com/ts4z/puttleague/varz"
)

// Note that this assumes it is the only writer of divisions and players.
// Another process's roster edits show up after the TTL.

type Nower interface {
	Now() time.Time
}

// RosterStorage keeps divisions and players for a while.  Check-ins go
// straight through: paid flags flip all evening.
type RosterStorage struct {
	clock Nower
	ttl   time.Duration
	next  state.RosterStorage

	lock      sync.Mutex
	divisions []*model.Division
	players   []*model.Player
	fetchedAt time.Time
}

var _ state.RosterStorage = (*RosterStorage)(nil)

var (
	rosterStorageCacheHits   = varz.NewInt("rosterStorageCacheHits")
	rosterStorageCacheMisses = varz.NewInt("rosterStorageCacheMisses")
)

func NewRosterStorage(next state.RosterStorage, clock Nower, ttl time.Duration) *RosterStorage {
	return &RosterStorage{
		next:  next,
		clock: clock,
		ttl:   ttl,
	}
}

// load returns the cached roster, refreshing both lists together.
func (s *RosterStorage) load(ctx context.Context) ([]*model.Division, []*model.Player, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.divisions != nil && s.fetchedAt.Add(s.ttl).After(s.clock.Now()) {
		rosterStorageCacheHits.Add(1)
		return s.divisions, s.players, nil
	}
	rosterStorageCacheMisses.Add(1)
	divisions, err := s.next.FetchDivisions(ctx)
	if err != nil {
		return nil, nil, err
	}
	players, err := s.next.FetchPlayers(ctx)
	if err != nil {
		return nil, nil, err
	}
	s.divisions, s.players = divisions, players
	s.fetchedAt = s.clock.Now()
	return divisions, players, nil
}

// Invalidate forgets the cached roster.
func (s *RosterStorage) Invalidate() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.divisions, s.players = nil, nil
}

func (s *RosterStorage) FetchDivisions(ctx context.Context) ([]*model.Division, error) {
	divisions, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Division, len(divisions))
	for i, d := range divisions {
		cpy := *d
		out[i] = &cpy
	}
	return out, nil
}

func (s *RosterStorage) FetchPlayers(ctx context.Context) ([]*model.Player, error) {
	_, players, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Player, len(players))
	for i, p := range players {
		cpy := *p
		out[i] = &cpy
	}
	return out, nil
}

func (s *RosterStorage) FetchCheckIns(ctx context.Context, nightID string) ([]*model.CheckIn, error) {
	return s.next.FetchCheckIns(ctx, nightID)
}

func (s *RosterStorage) SetPaid(ctx context.Context, nightID, playerID string, paid bool) error {
	return s.next.SetPaid(ctx, nightID, playerID, paid)
}

func (s *RosterStorage) SaveDivision(ctx context.Context, d *model.Division) error {
	defer s.Invalidate()
	return s.next.SaveDivision(ctx, d)
}

func (s *RosterStorage) SavePlayer(ctx context.Context, p *model.Player) error {
	defer s.Invalidate()
	return s.next.SavePlayer(ctx, p)
}

func (s *RosterStorage) SaveCheckIn(ctx context.Context, c *model.CheckIn) error {
	return s.next.SaveCheckIn(ctx, c)
}
