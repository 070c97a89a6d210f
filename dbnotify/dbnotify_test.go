package dbnotify

import (
	"context"
	"testing"

	"github.com/ts4z/puttleague/dbcache"
	"github.com/ts4z/puttleague/fakes"
	"github.com/ts4z/puttleague/model"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		payload string
		want    *NotificationEvent
	}{
		{`{"Table":"league_nights","OnID":"n1","Version":4}`, &NotificationEvent{"league_nights", "n1", 4}},
		{`{"Table":"league_nights","OnID":"n1"}`, &NotificationEvent{"league_nights", "n1", 0}},
		{`{"Table":"league_nights"}`, nil},
		{`not json`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			got, err := Decode(tt.payload)
			if tt.want == nil {
				if err == nil {
					t.Errorf("got %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if *got != *tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

type recorder struct {
	got chan *model.LeagueNight
}

func (r *recorder) NotifyUpdated(_ context.Context, n *model.LeagueNight) {
	r.got <- n
}

func TestChangeDispatcher(t *testing.T) {
	ctx := context.Background()
	store := fakes.NewStorage()
	if err := store.CreateLeagueNight(ctx, &model.LeagueNight{ID: "n1"}); err != nil {
		t.Fatal(err)
	}
	cache := dbcache.NewNightStorage(4, store)
	if _, err := cache.FetchLeagueNight(ctx, "n1"); err != nil {
		t.Fatal(err)
	}
	// Another process writes.
	if _, err := store.BumpVersion(ctx, "n1"); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{got: make(chan *model.LeagueNight, 1)}
	cd := NewChangeDispatcher[*model.LeagueNight]("league_nights", rec, cache, cache)
	l, err := NewDBNotifyListener(nil, cd)
	if err != nil {
		t.Fatal(err)
	}
	if l.Dispatch(ctx, &NotificationEvent{Table: "other", OnID: "n1", Version: 1}) {
		t.Errorf("dispatched an event for a table nobody consumes")
	}
	if !l.Dispatch(ctx, &NotificationEvent{Table: "league_nights", OnID: "n1", Version: 1}) {
		t.Fatalf("league_nights event not dispatched")
	}
	n := <-rec.got
	if n.Version != 1 {
		t.Errorf("got version %d, want 1", n.Version)
	}
}

func TestDuplicateConsumer(t *testing.T) {
	cd := NewChangeDispatcher[*model.LeagueNight]("league_nights", nil, nil, nil)
	if _, err := NewDBNotifyListener(nil, cd, cd); err == nil {
		t.Errorf("got nil error for duplicate consumers")
	}
}
