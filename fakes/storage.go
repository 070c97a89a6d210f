// Package fakes has an in-memory state.Storage for tests and for running
// leagued without a database.
package fakes

import (
	"context"
	"sort"
	"sync"

	"github.com/ts4z/puttleague/he"
	"github.com/ts4z/puttleague/model"
	"github.com/ts4z/puttleague/scoring"
	"github.com/ts4z/puttleague/state"
)

type Storage struct {
	rw sync.Mutex

	nights    map[string]*model.LeagueNight
	divisions map[string]*model.Division
	players   map[string]*model.Player
	checkIns  map[string][]*model.CheckIn
	shots     map[string]map[model.ShotKey]*model.ShotResult
	cards     map[string][]*model.Card
	puttOffs  map[string]*model.PuttOff
	// puttOffOrder keeps creation order per night.
	puttOffOrder map[string][]string

	// FailNext, if set, is returned (once) by the next write.
	FailNext error
}

var _ state.Storage = (*Storage)(nil)

func NewStorage() *Storage {
	return &Storage{
		nights:       map[string]*model.LeagueNight{},
		divisions:    map[string]*model.Division{},
		players:      map[string]*model.Player{},
		checkIns:     map[string][]*model.CheckIn{},
		shots:        map[string]map[model.ShotKey]*model.ShotResult{},
		cards:        map[string][]*model.Card{},
		puttOffs:     map[string]*model.PuttOff{},
		puttOffOrder: map[string][]string{},
	}
}

func (s *Storage) Lock() func() {
	s.rw.Lock()
	return func() { s.rw.Unlock() }
}

// failure returns FailNext and clears it.  Caller holds the lock.
func (s *Storage) failure() error {
	err := s.FailNext
	s.FailNext = nil
	return err
}

func (s *Storage) Close() {}

func (s *Storage) FetchLeagueNight(_ context.Context, id string) (*model.LeagueNight, error) {
	defer s.Lock()()
	n, ok := s.nights[id]
	if !ok {
		return nil, he.NotFoundErrorf("no such league night %s", id)
	}
	return n.Clone(), nil
}

func (s *Storage) FetchLeagueNights(_ context.Context) ([]*model.LeagueNight, error) {
	defer s.Lock()()
	out := []*model.LeagueNight{}
	for _, n := range s.nights {
		out = append(out, n.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Storage) CreateLeagueNight(_ context.Context, n *model.LeagueNight) error {
	defer s.Lock()()
	if err := s.failure(); err != nil {
		return err
	}
	if _, ok := s.nights[n.ID]; ok {
		return he.ValidationErrorf("league night %s already exists", n.ID)
	}
	s.nights[n.ID] = n.Clone()
	return nil
}

func (s *Storage) BumpVersion(_ context.Context, id string) (int64, error) {
	defer s.Lock()()
	if err := s.failure(); err != nil {
		return 0, err
	}
	n, ok := s.nights[id]
	if !ok {
		return 0, he.NotFoundErrorf("no such league night %s", id)
	}
	n.Version++
	return n.Version, nil
}

func (s *Storage) FetchDivisions(_ context.Context) ([]*model.Division, error) {
	defer s.Lock()()
	out := []*model.Division{}
	for _, d := range s.divisions {
		cpy := *d
		out = append(out, &cpy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (s *Storage) FetchPlayers(_ context.Context) ([]*model.Player, error) {
	defer s.Lock()()
	out := []*model.Player{}
	for _, p := range s.players {
		cpy := *p
		out = append(out, &cpy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Storage) FetchCheckIns(_ context.Context, nightID string) ([]*model.CheckIn, error) {
	defer s.Lock()()
	out := []*model.CheckIn{}
	for _, c := range s.checkIns[nightID] {
		cpy := *c
		out = append(out, &cpy)
	}
	return out, nil
}

func (s *Storage) SetPaid(_ context.Context, nightID, playerID string, paid bool) error {
	defer s.Lock()()
	if err := s.failure(); err != nil {
		return err
	}
	for _, c := range s.checkIns[nightID] {
		if c.PlayerID == playerID {
			c.Paid = paid
			return nil
		}
	}
	return he.NotFoundErrorf("player %s is not checked in to %s", playerID, nightID)
}

func (s *Storage) SaveDivision(_ context.Context, d *model.Division) error {
	defer s.Lock()()
	if err := s.failure(); err != nil {
		return err
	}
	cpy := *d
	s.divisions[d.ID] = &cpy
	return nil
}

func (s *Storage) SavePlayer(_ context.Context, p *model.Player) error {
	defer s.Lock()()
	if err := s.failure(); err != nil {
		return err
	}
	cpy := *p
	s.players[p.ID] = &cpy
	return nil
}

func (s *Storage) SaveCheckIn(_ context.Context, c *model.CheckIn) error {
	defer s.Lock()()
	if err := s.failure(); err != nil {
		return err
	}
	cpy := *c
	for i, have := range s.checkIns[c.LeagueNightID] {
		if have.PlayerID == c.PlayerID {
			s.checkIns[c.LeagueNightID][i] = &cpy
			return nil
		}
	}
	s.checkIns[c.LeagueNightID] = append(s.checkIns[c.LeagueNightID], &cpy)
	return nil
}

// upsertShot keeps the first EnteredAt for a key.  Caller holds the lock.
func (s *Storage) upsertShot(sh *model.ShotResult) {
	night, ok := s.shots[sh.LeagueNightID]
	if !ok {
		night = map[model.ShotKey]*model.ShotResult{}
		s.shots[sh.LeagueNightID] = night
	}
	cpy := *sh
	if have, ok := night[sh.Key()]; ok {
		cpy.EnteredAt = have.EnteredAt
	}
	night[sh.Key()] = &cpy
}

func (s *Storage) UpsertShot(_ context.Context, sh *model.ShotResult) error {
	defer s.Lock()()
	if err := s.failure(); err != nil {
		return err
	}
	s.upsertShot(sh)
	return nil
}

func (s *Storage) UpsertShots(_ context.Context, shots []*model.ShotResult) error {
	defer s.Lock()()
	if err := s.failure(); err != nil {
		return err
	}
	for _, sh := range shots {
		s.upsertShot(sh)
	}
	return nil
}

func (s *Storage) FetchShots(_ context.Context, nightID string) ([]*model.ShotResult, error) {
	defer s.Lock()()
	out := []*model.ShotResult{}
	for _, sh := range s.shots[nightID] {
		cpy := *sh
		out = append(out, &cpy)
	}
	scoring.OrderShots(out)
	return out, nil
}

func cloneCards(cards []*model.Card) []*model.Card {
	out := make([]*model.Card, len(cards))
	for i, c := range cards {
		out[i] = c.Clone()
	}
	return out
}

func (s *Storage) FetchCards(_ context.Context, nightID string) ([]*model.Card, error) {
	defer s.Lock()()
	return cloneCards(s.cards[nightID]), nil
}

func (s *Storage) FetchCard(_ context.Context, id string) (*model.Card, error) {
	defer s.Lock()()
	for _, cards := range s.cards {
		for _, c := range cards {
			if c.ID == id {
				return c.Clone(), nil
			}
		}
	}
	return nil, he.NotFoundErrorf("no such card %s", id)
}

func (s *Storage) ReplaceCards(_ context.Context, nightID string, cards []*model.Card) error {
	defer s.Lock()()
	if err := s.failure(); err != nil {
		return err
	}
	cpy := cloneCards(cards)
	for _, c := range cpy {
		c.LeagueNightID = nightID
	}
	s.cards[nightID] = cpy
	return nil
}

func (s *Storage) SaveCard(_ context.Context, c *model.Card) error {
	defer s.Lock()()
	if err := s.failure(); err != nil {
		return err
	}
	for _, cards := range s.cards {
		for i, have := range cards {
			if have.ID == c.ID {
				cards[i] = c.Clone()
				return nil
			}
		}
	}
	return he.NotFoundErrorf("no such card %s", c.ID)
}

func (s *Storage) CreatePuttOff(_ context.Context, p *model.PuttOff) error {
	defer s.Lock()()
	if err := s.failure(); err != nil {
		return err
	}
	if _, ok := s.puttOffs[p.ID]; ok {
		return he.ValidationErrorf("putt-off %s already exists", p.ID)
	}
	s.puttOffs[p.ID] = p.Clone()
	s.puttOffOrder[p.LeagueNightID] = append(s.puttOffOrder[p.LeagueNightID], p.ID)
	return nil
}

func (s *Storage) FetchPuttOff(_ context.Context, id string) (*model.PuttOff, error) {
	defer s.Lock()()
	p, ok := s.puttOffs[id]
	if !ok {
		return nil, he.NotFoundErrorf("no such putt-off %s", id)
	}
	return p.Clone(), nil
}

func (s *Storage) FetchPuttOffs(_ context.Context, nightID string) ([]*model.PuttOff, error) {
	defer s.Lock()()
	out := []*model.PuttOff{}
	for _, id := range s.puttOffOrder[nightID] {
		out = append(out, s.puttOffs[id].Clone())
	}
	return out, nil
}

func (s *Storage) SavePuttOff(_ context.Context, p *model.PuttOff) error {
	defer s.Lock()()
	if err := s.failure(); err != nil {
		return err
	}
	have, ok := s.puttOffs[p.ID]
	if !ok {
		return he.NotFoundErrorf("no such putt-off %s", p.ID)
	}
	cpy := p.Clone()
	cpy.LeagueNightID = have.LeagueNightID
	cpy.CreatedAt = have.CreatedAt
	s.puttOffs[p.ID] = cpy
	return nil
}
