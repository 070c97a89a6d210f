package dbcache

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ts4z/puttleague/fakes"
	"github.com/ts4z/puttleague/model"
)

type countingStorage struct {
	*fakes.Storage
	nightFetches    int
	divisionFetches int
}

func (c *countingStorage) FetchLeagueNight(ctx context.Context, id string) (*model.LeagueNight, error) {
	c.nightFetches++
	return c.Storage.FetchLeagueNight(ctx, id)
}

func (c *countingStorage) FetchDivisions(ctx context.Context) ([]*model.Division, error) {
	c.divisionFetches++
	return c.Storage.FetchDivisions(ctx)
}

func setup(t *testing.T) (*countingStorage, *clockwork.FakeClock, *Storage) {
	t.Helper()
	ctx := context.Background()
	next := &countingStorage{Storage: fakes.NewStorage()}
	if err := next.CreateLeagueNight(ctx, &model.LeagueNight{ID: "n1", Name: "Week 1", TotalHoles: 6}); err != nil {
		t.Fatal(err)
	}
	if err := next.SaveDivision(ctx, &model.Division{ID: "d1", Code: "AAA"}); err != nil {
		t.Fatal(err)
	}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 3, 18, 0, 0, 0, time.UTC))
	return next, clock, NewStorage(next, 4, clock, 30*time.Minute)
}

func TestNightCache(t *testing.T) {
	ctx := context.Background()
	next, _, s := setup(t)

	for i := 0; i < 3; i++ {
		n, err := s.FetchLeagueNight(ctx, "n1")
		if err != nil {
			t.Fatal(err)
		}
		n.Name = "scribbled on"
	}
	if next.nightFetches != 1 {
		t.Errorf("got %d fetches, want 1", next.nightFetches)
	}
	n, _ := s.FetchLeagueNight(ctx, "n1")
	if n.Name != "Week 1" {
		t.Errorf("cache handed out a shared copy: got name %q", n.Name)
	}

	v, err := s.BumpVersion(ctx, "n1")
	if err != nil {
		t.Fatal(err)
	}
	n, _ = s.FetchLeagueNight(ctx, "n1")
	if n.Version != v {
		t.Errorf("got cached version %d, want %d", n.Version, v)
	}
	if next.nightFetches != 1 {
		t.Errorf("bump caused a refetch: %d fetches", next.nightFetches)
	}
}

func TestNightCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	next, _, s := setup(t)

	if _, err := s.FetchLeagueNight(ctx, "n1"); err != nil {
		t.Fatal(err)
	}
	// Older news does nothing.
	s.Nights.CacheStore(ctx, &model.LeagueNight{ID: "n1", Name: "stale", Version: -1})
	n, _ := s.FetchLeagueNight(ctx, "n1")
	if n.Name != "Week 1" {
		t.Errorf("got %q, stale store should be ignored", n.Name)
	}

	// Someone else bumped it.
	if _, err := next.BumpVersion(ctx, "n1"); err != nil {
		t.Fatal(err)
	}
	s.Nights.CacheInvalidate(ctx, "n1", 1)
	n, _ = s.FetchLeagueNight(ctx, "n1")
	if n.Version != 1 {
		t.Errorf("got version %d, want 1", n.Version)
	}
	if next.nightFetches != 2 {
		t.Errorf("got %d fetches, want 2", next.nightFetches)
	}
}

func TestRosterTTL(t *testing.T) {
	ctx := context.Background()
	next, clock, s := setup(t)

	tests := []struct {
		name    string
		advance time.Duration
		want    int
	}{
		{"cold", 0, 1},
		{"warm", 10 * time.Minute, 1},
		{"expired", 25 * time.Minute, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.Advance(tt.advance)
			if _, err := s.FetchDivisions(ctx); err != nil {
				t.Fatal(err)
			}
			if next.divisionFetches != tt.want {
				t.Errorf("got %d fetches, want %d", next.divisionFetches, tt.want)
			}
		})
	}

	if err := s.SaveDivision(ctx, &model.Division{ID: "d2", Code: "BBB"}); err != nil {
		t.Fatal(err)
	}
	divs, err := s.FetchDivisions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(divs) != 2 {
		t.Errorf("got %d divisions after save, want 2", len(divs))
	}
}
