package dbcache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/ts4z/puttleague/model"
	"github.com/ts4z/puttleague/state"
	"github.com/ts4z/puttleague/varz"
)

var (
	nightStorageCacheHits            = varz.NewInt("nightStorageCacheHits")
	nightStorageCacheMisses          = varz.NewInt("nightStorageCacheMisses")
	nightStorageCacheDuplicateUpdate = varz.NewInt("nightStorageCacheDuplicateUpdate")
)

// NightStorage caches league night metadata by id.  Standings are never
// cached; they're recomputed from shots on every read.
type NightStorage struct {
	cache *lru.Cache[string, *model.LeagueNight]
	lock  sync.Mutex
	next  state.NightStorage
}

var _ state.NightStorage = (*NightStorage)(nil)

func NewNightStorage(size int, next state.NightStorage) *NightStorage {
	cache, err := lru.New[string, *model.LeagueNight](size)
	if err != nil {
		zap.S().Fatalf("Failed to create NightStorage cache: %v", err)
	}
	return &NightStorage{
		cache: cache,
		next:  next,
	}
}

// Fetch is FetchLeagueNight under the name dbnotify wants.
func (s *NightStorage) Fetch(ctx context.Context, id string) (*model.LeagueNight, error) {
	return s.FetchLeagueNight(ctx, id)
}

// CacheInvalidate drops the cached night if it is no newer than version.
func (s *NightStorage) CacheInvalidate(_ context.Context, id string, version int64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if n, ok := s.cache.Get(id); ok {
		if n.Version <= version {
			s.cache.Remove(id)
		}
	}
}

func (s *NightStorage) CacheStore(_ context.Context, n *model.LeagueNight) {
	s.lock.Lock()
	defer s.lock.Unlock()
	cached, ok := s.cache.Get(n.ID)
	if ok {
		if cached.Version > n.Version {
			zap.S().Debugf("cache: have version %d of %s, incoming %d, ignoring", cached.Version, n.ID, n.Version)
			return
		} else if cached.Version == n.Version {
			nightStorageCacheDuplicateUpdate.Add(1)
			return
		}
	}
	s.cache.Add(n.ID, n.Clone())
}

func (s *NightStorage) FetchLeagueNight(ctx context.Context, id string) (*model.LeagueNight, error) {
	if n, ok := s.cache.Get(id); ok {
		nightStorageCacheHits.Add(1)
		return n.Clone(), nil
	}
	nightStorageCacheMisses.Add(1)
	n, err := s.next.FetchLeagueNight(ctx, id)
	if err != nil {
		return nil, err
	}
	s.CacheStore(ctx, n)
	return n, nil
}

func (s *NightStorage) FetchLeagueNights(ctx context.Context) ([]*model.LeagueNight, error) {
	return s.next.FetchLeagueNights(ctx)
}

func (s *NightStorage) CreateLeagueNight(ctx context.Context, n *model.LeagueNight) error {
	if err := s.next.CreateLeagueNight(ctx, n); err != nil {
		return err
	}
	s.CacheStore(ctx, n)
	return nil
}

// BumpVersion writes through and updates the cached copy in place, so the
// next fetch sees the new version without a round trip.
func (s *NightStorage) BumpVersion(ctx context.Context, id string) (int64, error) {
	v, err := s.next.BumpVersion(ctx, id)
	if err != nil {
		s.cache.Remove(id)
		return 0, err
	}
	if n, ok := s.cache.Get(id); ok {
		bumped := n.Clone()
		bumped.Version = v
		s.CacheStore(ctx, bumped)
	}
	return v, nil
}
