package state

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ts4z/puttleague/dbutil"
	"github.com/ts4z/puttleague/he"
	"github.com/ts4z/puttleague/model"
)

var t0 = time.Date(2025, 6, 3, 18, 30, 0, 0, time.UTC)

func newTestStorage(t *testing.T) *DBStorage {
	t.Helper()
	db, err := dbutil.Open("sqlite", filepath.Join(t.TempDir(), "league.db"))
	if err != nil {
		t.Fatal(err)
	}
	s := NewDBStorage(db)
	t.Cleanup(s.Close)
	ctx := context.Background()
	if err := s.InitSchema(ctx); err != nil {
		t.Fatal(err)
	}
	// Twice, to make sure it's idempotent.
	if err := s.InitSchema(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateLeagueNight(ctx, &model.LeagueNight{
		ID: "n1", Name: "Week 1", Date: t0, TieBreakMode: model.TieBreakSplit, TotalHoles: 6,
	}); err != nil {
		t.Fatal(err)
	}
	for _, d := range []*model.Division{
		{ID: "d1", Code: "AAA", Name: "Open", EntryFee: 10, SortOrder: 1},
		{ID: "d2", Code: "CCC", Name: "Rec", EntryFee: 5, SortOrder: 2},
	} {
		if err := s.SaveDivision(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	for _, p := range []*model.Player{
		{ID: "p1", Name: "Ann", DivisionID: "d1"},
		{ID: "p2", Name: "Ben", DivisionID: "d1"},
		{ID: "p3", Name: "Cy", DivisionID: "d2"},
	} {
		if err := s.SavePlayer(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestLeagueNight(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	n, err := s.FetchLeagueNight(ctx, "n1")
	if err != nil {
		t.Fatal(err)
	}
	if n.Name != "Week 1" || n.TotalHoles != 6 || n.TieBreakMode != model.TieBreakSplit || !n.Date.Equal(t0) {
		t.Errorf("got %+v", n)
	}
	if _, err := s.FetchLeagueNight(ctx, "nope"); !he.IsNotFound(err) {
		t.Errorf("got %v, want not found", err)
	}

	for want := int64(1); want <= 2; want++ {
		v, err := s.BumpVersion(ctx, "n1")
		if err != nil {
			t.Fatal(err)
		}
		if v != want {
			t.Errorf("got version %d, want %d", v, want)
		}
	}
	if _, err := s.BumpVersion(ctx, "nope"); !he.IsNotFound(err) {
		t.Errorf("got %v, want not found", err)
	}

	nights, err := s.FetchLeagueNights(ctx)
	if err != nil || len(nights) != 1 {
		t.Errorf("got %v, %v", nights, err)
	}
}

func TestRoster(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	divs, err := s.FetchDivisions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(divs) != 2 || divs[0].Code != "AAA" || divs[1].EntryFee != 5 {
		t.Errorf("got divisions %+v", divs)
	}

	for _, c := range []*model.CheckIn{
		{LeagueNightID: "n1", PlayerID: "p3", DivisionID: "d2"},
		{LeagueNightID: "n1", PlayerID: "p1", DivisionID: "d1", Paid: true},
	} {
		if err := s.SaveCheckIn(ctx, c); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SetPaid(ctx, "n1", "p3", true); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPaid(ctx, "n1", "p2", true); !he.IsNotFound(err) {
		t.Errorf("not checked in: got %v, want not found", err)
	}

	cis, err := s.FetchCheckIns(ctx, "n1")
	if err != nil {
		t.Fatal(err)
	}
	want := []*model.CheckIn{
		{LeagueNightID: "n1", PlayerID: "p3", DivisionID: "d2", Paid: true},
		{LeagueNightID: "n1", PlayerID: "p1", DivisionID: "d1", Paid: true},
	}
	if !reflect.DeepEqual(cis, want) {
		t.Errorf("got %+v, want %+v", cis, want)
	}
}

func TestShotsUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	first := &model.ShotResult{
		LeagueNightID: "n1", PlayerID: "p2", HoleID: "h1", RoundID: "r1",
		Position: model.PositionShort, Made: 3, Bonus: true, EnteredAt: t0,
	}
	other := &model.ShotResult{
		LeagueNightID: "n1", PlayerID: "p1", HoleID: "h1", RoundID: "r1",
		Position: model.PositionShort, Made: 1, EnteredAt: t0.Add(time.Minute),
	}
	if err := s.UpsertShots(ctx, []*model.ShotResult{first, other}); err != nil {
		t.Fatal(err)
	}

	again := *first
	again.Made, again.Bonus = 1, false
	again.EnteredAt = t0.Add(time.Hour)
	if err := s.UpsertShot(ctx, &again); err != nil {
		t.Fatal(err)
	}

	shots, err := s.FetchShots(ctx, "n1")
	if err != nil {
		t.Fatal(err)
	}
	if len(shots) != 2 {
		t.Fatalf("got %d shots, want 2", len(shots))
	}
	got := shots[0]
	if got.PlayerID != "p2" || got.Made != 1 || got.Bonus {
		t.Errorf("got %+v, want p2 overwritten to made=1", got)
	}
	if !got.EnteredAt.Equal(t0) {
		t.Errorf("EnteredAt moved to %v, want %v", got.EnteredAt, t0)
	}
}

func TestShotsBulkIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	good := &model.ShotResult{
		LeagueNightID: "n1", PlayerID: "p1", HoleID: "h1", RoundID: "r1",
		Position: model.PositionShort, Made: 2, EnteredAt: t0,
	}
	bad := *good
	bad.PlayerID = "p2"
	bad.Made = 7 // violates the CHECK constraint
	if err := s.UpsertShots(ctx, []*model.ShotResult{good, &bad}); err == nil {
		t.Fatalf("got nil error for made=7")
	}
	shots, err := s.FetchShots(ctx, "n1")
	if err != nil {
		t.Fatal(err)
	}
	if len(shots) != 0 {
		t.Errorf("got %d shots after failed batch, want 0", len(shots))
	}
}

func TestCards(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	old := []*model.Card{{ID: "old", Name: "Card 1", StartingHole: 1,
		Players: []*model.CardPlayer{{PlayerID: "p1", SortOrder: 0}}}}
	if err := s.ReplaceCards(ctx, "n1", old); err != nil {
		t.Fatal(err)
	}

	fresh := []*model.Card{
		{ID: "c1", LeagueNightID: "n1", Name: "Card 1", StartingHole: 1,
			Players: []*model.CardPlayer{{PlayerID: "p2", SortOrder: 0}, {PlayerID: "p1", SortOrder: 1}}},
		{ID: "c2", LeagueNightID: "n1", Name: "Card 2", StartingHole: 2,
			Players: []*model.CardPlayer{{PlayerID: "p3", SortOrder: 0}}},
	}
	if err := s.ReplaceCards(ctx, "n1", fresh); err != nil {
		t.Fatal(err)
	}
	got, err := s.FetchCards(ctx, "n1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, fresh) {
		t.Errorf("got %+v, want %+v", got, fresh)
	}
	if _, err := s.FetchCard(ctx, "old"); !he.IsNotFound(err) {
		t.Errorf("old card: got %v, want not found", err)
	}

	c, err := s.FetchCard(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	c.ScorekeeperID = "p1"
	c.Players[0].SortOrder, c.Players[1].SortOrder = 1, 0
	if err := s.SaveCard(ctx, c); err != nil {
		t.Fatal(err)
	}
	c, err = s.FetchCard(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if c.ScorekeeperID != "p1" || !reflect.DeepEqual(c.PlayerIDs(), []string{"p1", "p2"}) {
		t.Errorf("got %+v", c)
	}

	if err := s.SaveCard(ctx, &model.Card{ID: "nope"}); !he.IsNotFound(err) {
		t.Errorf("got %v, want not found", err)
	}
}

func TestReplaceCardsRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	keep := []*model.Card{{ID: "c1", LeagueNightID: "n1", Name: "Card 1", StartingHole: 1,
		Players: []*model.CardPlayer{{PlayerID: "p1", SortOrder: 0}}}}
	if err := s.ReplaceCards(ctx, "n1", keep); err != nil {
		t.Fatal(err)
	}
	// Same player twice on a card trips the primary key halfway through.
	broken := []*model.Card{{ID: "c9", Name: "Card 1", StartingHole: 1,
		Players: []*model.CardPlayer{{PlayerID: "p2", SortOrder: 0}, {PlayerID: "p2", SortOrder: 1}}}}
	if err := s.ReplaceCards(ctx, "n1", broken); err == nil {
		t.Fatal("got nil error")
	}
	got, err := s.FetchCards(ctx, "n1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, keep) {
		t.Errorf("got %+v, want the old cards intact", got)
	}
}

func TestPuttOffs(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	p := &model.PuttOff{
		ID: "po1", LeagueNightID: "n1", DivisionID: "d1", CurrentRound: 1,
		Status: model.PuttOffAwaitingScores, CreatedAt: t0,
		Participants: []*model.PuttOffParticipant{
			{PlayerID: "p2", Round: 1},
			{PlayerID: "p1", Round: 1},
		},
	}
	if err := s.CreatePuttOff(ctx, p); err != nil {
		t.Fatal(err)
	}

	p.Participants[0].Made = 2
	p.Participants[1].Made = 2
	p.CurrentRound = 2
	p.Participants = append(p.Participants,
		&model.PuttOffParticipant{PlayerID: "p2", Round: 2},
		&model.PuttOffParticipant{PlayerID: "p1", Round: 2})
	if err := s.SavePuttOff(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := s.FetchPuttOff(ctx, "po1")
	if err != nil {
		t.Fatal(err)
	}
	if !got.CreatedAt.Equal(t0) {
		t.Errorf("created at %v, want %v", got.CreatedAt, t0)
	}
	got.CreatedAt = p.CreatedAt
	if !reflect.DeepEqual(got, p) {
		t.Errorf("got %+v, want %+v", got, p)
	}

	all, err := s.FetchPuttOffs(ctx, "n1")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || len(all[0].Participants) != 4 {
		t.Errorf("got %+v", all)
	}

	if _, err := s.FetchPuttOff(ctx, "nope"); !he.IsNotFound(err) {
		t.Errorf("got %v, want not found", err)
	}
	if err := s.SavePuttOff(ctx, &model.PuttOff{ID: "nope"}); !he.IsNotFound(err) {
		t.Errorf("got %v, want not found", err)
	}
}
