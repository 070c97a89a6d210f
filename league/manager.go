// Package league ties storage, the scoring engine, and notification
// together.  Every write goes through a Manager, which bumps the night's
// version and tells observers what changed.
//
// Standings, ties, and payouts are never stored.  They're re-derived from
// shots and check-ins on every call.
package league

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ts4z/puttleague/builtins"
	"github.com/ts4z/puttleague/cards"
	"github.com/ts4z/puttleague/dep"
	"github.com/ts4z/puttleague/he"
	"github.com/ts4z/puttleague/model"
	"github.com/ts4z/puttleague/paytable"
	"github.com/ts4z/puttleague/state"
	"github.com/ts4z/puttleague/ts"
	"github.com/ts4z/puttleague/varz"
)

const notifyTimeout = 5 * time.Second

var (
	mutations    = varz.NewMap("mutations", "event")
	notifyErrors = varz.NewInt("notifyErrors")
)

// Notifier hears about every change to a night.  Delivery is best effort;
// a failure is logged and the write still stands.
type Notifier interface {
	NotifyNight(ctx context.Context, ev *model.NightEvent) error
}

type Config struct {
	// Paytable defaults to builtins.LeaguePaytable.
	Paytable *paytable.Paytable
	// ProtectedDivision defaults to cards.DefaultProtectedDivision.
	ProtectedDivision string
	// Rand drives card shuffles and scorekeeper picks.  nil means a
	// time-seeded source.
	Rand *rand.Rand
}

type Manager struct {
	storage  state.Storage
	notifier Notifier
	clock    *ts.Clock

	paytable          *paytable.Paytable
	protectedDivision string

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewManager(storage state.Storage, notifier Notifier, clock *ts.Clock, cfg Config) *Manager {
	m := &Manager{
		storage:           dep.Required(storage, "storage"),
		notifier:          notifier,
		clock:             dep.Required(clock, "clock"),
		paytable:          cfg.Paytable,
		protectedDivision: cfg.ProtectedDivision,
		rng:               cfg.Rand,
	}
	if m.paytable == nil {
		m.paytable = builtins.LeaguePaytable()
	}
	if m.protectedDivision == "" {
		m.protectedDivision = cards.DefaultProtectedDivision
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(clock.Now().UnixNano()))
	}
	return m
}

// withRand serializes use of the manager's random source, which isn't safe
// for concurrent use.
func (m *Manager) withRand(f func(rng *rand.Rand) error) error {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return f(m.rng)
}

// Paytable is the table payouts are computed with.
func (m *Manager) Paytable() *paytable.Paytable {
	return m.paytable.Clone()
}

// changed bumps the night's version and sends one notification.  It's
// called after a write has landed, so its own failures are only logged.
func (m *Manager) changed(ctx context.Context, nightID string, typ model.NightEventType, fill func(ev *model.NightEvent)) {
	mutations.WithLabelValues(string(typ)).Add(1)
	v, err := m.storage.BumpVersion(ctx, nightID)
	if err != nil {
		zap.S().Errorf("can't bump version of night %s after %s: %v", nightID, typ, err)
		return
	}
	ev := &model.NightEvent{
		Type:          typ,
		LeagueNightID: nightID,
		Version:       v,
		At:            m.clock.Now(),
	}
	if fill != nil {
		fill(ev)
	}
	if m.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := m.notifier.NotifyNight(nctx, ev); err != nil {
		notifyErrors.Add(1)
		zap.S().Warnf("can't notify %s for night %s version %d: %v", typ, nightID, v, err)
	}
}

// FillEvent attaches current standings to an event that arrived without
// them.  gossip uses this for database notifications.
func (m *Manager) FillEvent(ctx context.Context, ev *model.NightEvent) error {
	totals, err := m.Totals(ctx, ev.LeagueNightID)
	if err != nil {
		return err
	}
	ev.Totals = totals
	return nil
}

func (m *Manager) Night(ctx context.Context, id string) (*model.LeagueNight, error) {
	return m.storage.FetchLeagueNight(ctx, id)
}

func (m *Manager) Nights(ctx context.Context) ([]*model.LeagueNight, error) {
	return m.storage.FetchLeagueNights(ctx)
}

// CreateNight validates and stores a new night.  Mode defaults to SPLIT.
func (m *Manager) CreateNight(ctx context.Context, n *model.LeagueNight) error {
	if n.ID == "" || n.Name == "" {
		return he.ValidationErrorf("league night needs an id and a name")
	}
	if n.TotalHoles < 1 {
		return he.ValidationErrorf("league night needs at least one hole, got %d", n.TotalHoles)
	}
	if n.TieBreakMode == "" {
		n.TieBreakMode = model.TieBreakSplit
	}
	if !n.TieBreakMode.Valid() {
		return he.ValidationErrorf("unknown tie-break mode %q", n.TieBreakMode)
	}
	n.Version = 0
	return m.storage.CreateLeagueNight(ctx, n)
}

func (m *Manager) SaveDivision(ctx context.Context, d *model.Division) error {
	if d.ID == "" || d.Code == "" {
		return he.ValidationErrorf("division needs an id and a code")
	}
	if d.EntryFee < 0 {
		return he.ValidationErrorf("entry fee can't be negative (%d)", d.EntryFee)
	}
	return m.storage.SaveDivision(ctx, d)
}

func (m *Manager) SavePlayer(ctx context.Context, p *model.Player) error {
	if p.ID == "" || p.DivisionID == "" {
		return he.ValidationErrorf("player needs an id and a division")
	}
	return m.storage.SavePlayer(ctx, p)
}

// CheckIn puts a player on tonight's sheet, in their roster division unless
// c says otherwise.
func (m *Manager) CheckIn(ctx context.Context, c *model.CheckIn) error {
	if _, err := m.storage.FetchLeagueNight(ctx, c.LeagueNightID); err != nil {
		return err
	}
	if c.DivisionID == "" {
		players, err := m.storage.FetchPlayers(ctx)
		if err != nil {
			return err
		}
		for _, p := range players {
			if p.ID == c.PlayerID {
				c.DivisionID = p.DivisionID
			}
		}
		if c.DivisionID == "" {
			return he.NotFoundErrorf("no such player %s", c.PlayerID)
		}
	}
	if err := m.storage.SaveCheckIn(ctx, c); err != nil {
		return err
	}
	m.changed(ctx, c.LeagueNightID, model.EventCheckInUpdated, nil)
	return nil
}

// SetPaid flips a check-in's paid flag, which moves the division's pool.
func (m *Manager) SetPaid(ctx context.Context, nightID, playerID string, paid bool) error {
	if err := m.storage.SetPaid(ctx, nightID, playerID, paid); err != nil {
		return err
	}
	m.changed(ctx, nightID, model.EventCheckInUpdated, nil)
	return nil
}

func (m *Manager) CheckIns(ctx context.Context, nightID string) ([]*model.CheckIn, error) {
	if _, err := m.storage.FetchLeagueNight(ctx, nightID); err != nil {
		return nil, err
	}
	return m.storage.FetchCheckIns(ctx, nightID)
}
