package payout

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/ts4z/puttleague/he"
	"github.com/ts4z/puttleague/model"
	"github.com/ts4z/puttleague/paytable"
)

func ranked(scores ...int) []*model.PlayerTotal {
	out := make([]*model.PlayerTotal, len(scores))
	for i, s := range scores {
		id := fmt.Sprintf("p%d", i+1)
		out[i] = &model.PlayerTotal{PlayerID: id, PlayerName: id, TotalScore: s}
	}
	return out
}

func payouts(r *Result) []int64 {
	out := make([]int64, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Payout
	}
	return out
}

func TestScenarioATwoWaySplit(t *testing.T) {
	r, err := Calculate(33, ranked(10, 10), Options{Mode: model.TieBreakSplit})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := payouts(r), []int64{16, 17}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	for _, e := range r.Entries {
		if !e.IsTied || e.PendingPuttOff {
			t.Errorf("entry %+v: want tied, not pending", e)
		}
	}
	if got := r.Groups[0].Amount; got != 33 {
		t.Errorf("combined amount = %d, want 33", got)
	}
}

func TestScenarioBSevenPaid(t *testing.T) {
	r, err := Calculate(70, ranked(20, 18, 15, 12, 9, 5, 1), Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{33, 21, 16, 0, 0, 0, 0}
	if got := payouts(r); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	for i, e := range r.Entries {
		if e.Place != i+1 {
			t.Errorf("entry %d: got place %d, want %d", i, e.Place, i+1)
		}
		if e.IsTied {
			t.Errorf("entry %d marked tied", i)
		}
	}
}

func TestPuttOffPending(t *testing.T) {
	r, err := Calculate(100, ranked(9, 9, 3, 1), Options{Mode: model.TieBreakPuttOff})
	if err != nil {
		t.Fatal(err)
	}
	// n=4 pays [62.5%, 37.5%]; both places belong to the tie.
	if got, want := payouts(r), []int64{0, 0, 0, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if !r.Entries[0].PendingPuttOff || !r.Entries[1].PendingPuttOff {
		t.Errorf("tied entries should be pending")
	}
	if r.Entries[2].PendingPuttOff {
		t.Errorf("untied entry marked pending")
	}
	if r.Withheld != 100 {
		t.Errorf("withheld = %d, want 100", r.Withheld)
	}
}

func TestPuttOffResolved(t *testing.T) {
	r, err := Calculate(100, ranked(9, 9, 3, 1), Options{
		Mode:            model.TieBreakPuttOff,
		PuttOffWinnerID: "p2",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := payouts(r), []int64{0, 100, 0, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if r.Withheld != 0 {
		t.Errorf("withheld = %d, want 0", r.Withheld)
	}
	for _, e := range r.Entries {
		if e.PendingPuttOff {
			t.Errorf("entry %s still pending", e.PlayerID)
		}
	}
}

func TestPuttOffWinnerNotInGroup(t *testing.T) {
	r, err := Calculate(100, ranked(9, 9, 3, 1), Options{
		Mode:            model.TieBreakPuttOff,
		PuttOffWinnerID: "p3",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !r.Entries[0].PendingPuttOff || r.Withheld != 100 {
		t.Errorf("winner outside the tie should leave it pending, got %+v withheld %d", r.Entries[0], r.Withheld)
	}
}

func TestPuttOffLowerTieSplits(t *testing.T) {
	// 7 players: [47.5, 30, 22.5].  Second and third tie.
	r, err := Calculate(70, ranked(20, 15, 15, 12, 9, 5, 1), Options{Mode: model.TieBreakPuttOff})
	if err != nil {
		t.Fatal(err)
	}
	// 70 × 52.5% = 36.75 -> 37; fix-up gives 70 - 33 = 37.
	if got, want := payouts(r), []int64{33, 18, 19, 0, 0, 0, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if r.Entries[1].PendingPuttOff || r.Entries[2].PendingPuttOff {
		t.Errorf("lower tie should split, not wait on a putt-off")
	}
}

func TestEdgeCases(t *testing.T) {
	r, err := Calculate(50, nil, Options{})
	if err != nil || len(r.Entries) != 0 || r.Withheld != 0 {
		t.Errorf("empty ranking: got %+v, %v", r, err)
	}

	r, err = Calculate(0, ranked(5, 4, 3, 2), Options{Mode: model.TieBreakPuttOff})
	if err != nil {
		t.Fatalf("zero pool: %v", err)
	}
	if got := r.Total() + r.Withheld; got != 0 {
		t.Errorf("zero pool paid %d", got)
	}

	if _, err := Calculate(-1, ranked(1), Options{}); !he.IsValidation(err) {
		t.Errorf("negative pool: got %v, want validation error", err)
	}
	if _, err := Calculate(10, ranked(1), Options{Mode: "COIN_FLIP"}); !he.IsValidation(err) {
		t.Errorf("bad mode: got %v, want validation error", err)
	}
}

func TestTinyPoolIsNotLost(t *testing.T) {
	// Pool 1 with 4 players: 62.5% -> 1, 37.5% -> 0.
	r, err := Calculate(1, ranked(4, 3, 2, 1), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := payouts(r), []int64{1, 0, 0, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// Nothing rounds above zero; first place takes the lot.
	for _, n := range []int{7, 20} {
		t.Run(fmt.Sprintf("%d players", n), func(t *testing.T) {
			scores := make([]int, n)
			for i := range scores {
				scores[i] = 100 - i
			}
			r, err := Calculate(1, ranked(scores...), Options{})
			if err != nil {
				t.Fatal(err)
			}
			if r.Total() != 1 {
				t.Errorf("paid %d of pool 1: %v", r.Total(), payouts(r))
			}
			if r.Entries[0].Payout != 1 {
				t.Errorf("got %v, want first place to take the pool", payouts(r))
			}
		})
	}
}

func TestCustomPaytable(t *testing.T) {
	pt := &paytable.Paytable{Name: "flat", Rows: []paytable.Row{{MaxPlayers: 3, Percentages: []int{5000, 5000}}}}
	r, err := Calculate(11, ranked(3, 2, 1), Options{Paytable: pt})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := payouts(r), []int64{6, 5, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// Random rankings with ties at several places, both modes: nothing leaks.
func TestConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(20250603))
	for iter := 0; iter < 2000; iter++ {
		n := 1 + rng.Intn(24)
		scores := make([]int, n)
		s := 40
		for i := range scores {
			if i > 0 && rng.Intn(3) > 0 {
				s -= rng.Intn(3)
			}
			scores[i] = s
		}
		pool := int64(rng.Intn(600))
		mode := model.TieBreakSplit
		if rng.Intn(2) == 0 {
			mode = model.TieBreakPuttOff
		}
		winner := ""
		if rng.Intn(2) == 0 {
			winner = "p1"
		}
		r, err := Calculate(pool, ranked(scores...), Options{Mode: mode, PuttOffWinnerID: winner})
		if err != nil {
			t.Fatal(err)
		}
		if got := r.Total() + r.Withheld; got != pool {
			t.Fatalf("scores %v pool %d mode %s: paid %d + withheld %d != pool",
				scores, pool, mode, r.Total(), r.Withheld)
		}
		if mode == model.TieBreakSplit && r.Withheld != 0 {
			t.Fatalf("SPLIT withheld %d", r.Withheld)
		}
		var groupSum int64
		for _, g := range r.Groups {
			if g.Amount < 0 {
				t.Fatalf("scores %v pool %d: negative group amount %d", scores, pool, g.Amount)
			}
			groupSum += g.Amount
		}
		if groupSum != pool {
			t.Fatalf("scores %v pool %d: groups sum to %d", scores, pool, groupSum)
		}
		for i, e := range r.Entries {
			if e.Payout < 0 {
				t.Fatalf("negative payout %+v", e)
			}
			if i > 0 && e.Place != r.Entries[i-1].Place+1 {
				t.Fatalf("places not sequential: %d after %d", e.Place, r.Entries[i-1].Place)
			}
		}
	}
}
