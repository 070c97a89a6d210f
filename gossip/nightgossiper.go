package gossip

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ts4z/puttleague/dbnotify"
	"github.com/ts4z/puttleague/model"
	"github.com/ts4z/puttleague/ts"
	"github.com/ts4z/puttleague/varz"
)

var (
	listenersRegistered = varz.NewInt("listenersRegistered")
	listenersNotified   = varz.NewInt("listenersNotified")
)

// A listen request eventually results in exactly one write to one of these
// channels (possibly before the pair is constructed).  Callers should
// buffer both channels; a listener that went away is never waited on.
type channels struct {
	version int64
	errCh   chan<- error
	eventCh chan<- *model.NightEvent
}

// NightGossiper provides a tattletale for changes to league nights.
// Subscribers hear about local writes directly and about other processes'
// writes when the database notification percolates back.
type NightGossiper struct {
	listeners   map[string][]channels
	listenersMu sync.Mutex
	next        CacheStorage[model.LeagueNight]
	clock       *ts.Clock

	fillerMu sync.Mutex
	filler   Filler
}

var _ dbnotify.ClientNotifier[*model.LeagueNight] = (*NightGossiper)(nil)

func NewNightGossiper(next CacheStorage[model.LeagueNight], clock *ts.Clock) *NightGossiper {
	return &NightGossiper{
		listeners: make(map[string][]channels),
		next:      next,
		clock:     clock,
	}
}

// SetFiller installs something to fill in events that arrive bare, from the
// database or from a listener that is already behind.
func (g *NightGossiper) SetFiller(f Filler) {
	g.fillerMu.Lock()
	defer g.fillerMu.Unlock()
	g.filler = f
}

func (g *NightGossiper) fill(ctx context.Context, ev *model.NightEvent) {
	g.fillerMu.Lock()
	f := g.filler
	g.fillerMu.Unlock()
	if f == nil || ev.Totals != nil {
		return
	}
	if err := f.FillEvent(ctx, ev); err != nil {
		zap.S().Warnf("gossiper: can't fill event for night %s: %v", ev.LeagueNightID, err)
	}
}

// ListenNightVersion answers once the night moves past version.  If it
// already has, the answer comes right away.
func (g *NightGossiper) ListenNightVersion(ctx context.Context, id string, version int64, errCh chan<- error, eventCh chan<- *model.NightEvent) {
	g.listenersMu.Lock()
	defer g.listenersMu.Unlock()

	n, err := g.next.Fetch(ctx, id)
	if err != nil {
		errCh <- fmt.Errorf("can't listen for changes: can't fetch %s: %w", id, err)
		return
	}

	if n.Version != version {
		// Database already has something different, just send it.
		if n.Version < version {
			zap.S().Warnf("can't happen: reported version %d is newer than stored version %d for night %s", version, n.Version, id)
		}
		ev := &model.NightEvent{
			Type:          model.EventLeaderboardUpdated,
			LeagueNightID: id,
			Version:       n.Version,
			At:            g.clock.Now(),
		}
		g.fill(ctx, ev)
		eventCh <- ev
		return
	}

	zap.S().Debugf("gossiper: client listening for night %s changes from version %d", id, version)
	listenersRegistered.Add(1)
	g.listeners[id] = append(g.listeners[id], channels{version, errCh, eventCh})
}

// Listeners reports how many listeners are waiting on a night.
func (g *NightGossiper) Listeners(id string) int {
	g.listenersMu.Lock()
	defer g.listenersMu.Unlock()
	return len(g.listeners[id])
}

// takeListeners removes and returns the listeners that haven't seen version.
// The same bump can arrive twice, once locally and once from the database.
func (g *NightGossiper) takeListeners(id string, version int64) []channels {
	g.listenersMu.Lock()
	defer g.listenersMu.Unlock()
	taken, kept := []channels{}, []channels{}
	for _, chs := range g.listeners[id] {
		if chs.version < version {
			taken = append(taken, chs)
		} else {
			kept = append(kept, chs)
		}
	}
	if len(kept) == 0 {
		delete(g.listeners, id)
	} else {
		g.listeners[id] = kept
	}
	return taken
}

// NotifyNight hands ev to everyone waiting on its night.
func (g *NightGossiper) NotifyNight(ctx context.Context, ev *model.NightEvent) error {
	listeners := g.takeListeners(ev.LeagueNightID, ev.Version)
	if len(listeners) == 0 {
		return nil
	}
	for _, chs := range listeners {
		cpy := *ev
		select {
		case chs.eventCh <- &cpy:
			listenersNotified.Add(1)
		default:
			zap.S().Debugf("gossiper: listener on night %s is gone", ev.LeagueNightID)
		}
	}
	zap.S().Infof("notified %d listeners of night %s version %d %s", len(listeners), ev.LeagueNightID, ev.Version, ev.Type)
	return nil
}

// NotifyUpdated is the database's way in: another process bumped the night.
func (g *NightGossiper) NotifyUpdated(ctx context.Context, n *model.LeagueNight) {
	if n == nil {
		return
	}
	ev := &model.NightEvent{
		Type:          model.EventLeaderboardUpdated,
		LeagueNightID: n.ID,
		Version:       n.Version,
		At:            g.clock.Now(),
	}
	g.fill(ctx, ev)
	g.NotifyNight(ctx, ev)
}
