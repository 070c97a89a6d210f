package cards

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/ts4z/puttleague/he"
	"github.com/ts4z/puttleague/model"
)

func entrants(protected, other int) []Entrant {
	out := []Entrant{}
	for i := 0; i < protected; i++ {
		out = append(out, Entrant{PlayerID: fmt.Sprintf("c%02d", i), DivisionCode: "CCC"})
	}
	for i := 0; i < other; i++ {
		out = append(out, Entrant{PlayerID: fmt.Sprintf("o%02d", i), DivisionCode: "AAA"})
	}
	return out
}

func sizes(groups [][]Entrant) []int {
	out := make([]int, len(groups))
	for i, g := range groups {
		out[i] = len(g)
	}
	return out
}

func protectedCount(g []Entrant) int {
	n := 0
	for _, e := range g {
		if e.DivisionCode == "CCC" {
			n++
		}
	}
	return n
}

func TestPartitionErrors(t *testing.T) {
	if _, err := Partition(nil, Options{MinPlayersPerCard: 3, TotalHoles: 6}); !he.IsEmptyInput(err) {
		t.Errorf("no players: got %v, want empty input", err)
	}
	if _, err := Partition(entrants(0, 4), Options{MinPlayersPerCard: 0, TotalHoles: 6}); !he.IsValidation(err) {
		t.Errorf("min 0: got %v, want validation", err)
	}
	if _, err := Partition(entrants(0, 4), Options{MinPlayersPerCard: 3, TotalHoles: 0}); !he.IsValidation(err) {
		t.Errorf("holes 0: got %v, want validation", err)
	}
}

func TestPartitionShapes(t *testing.T) {
	tests := []struct {
		name             string
		protected, other int
		min, holes       int
		wantSizes        []int
		wantProtected    []int // protected players per card
	}{
		{"fewer than min", 0, 2, 3, 6, []int{2}, []int{0}},
		{"even split", 0, 9, 3, 6, []int{3, 3, 3}, []int{0, 0, 0}},
		{"remainder up front", 0, 10, 3, 6, []int{4, 3, 3}, []int{0, 0, 0}},
		{"capped by holes", 0, 12, 2, 3, []int{4, 4, 4}, []int{0, 0, 0}},
		{"protected fits one card", 2, 7, 3, 6, []int{3, 3, 3}, []int{2, 0, 0}},
		{"protected needs two cards", 5, 7, 3, 6, []int{3, 3, 3, 3}, []int{3, 2, 0, 0}},
		{"single card folds protected", 2, 1, 3, 6, []int{3}, []int{2}},
		{"protected only", 6, 0, 3, 6, []int{3, 3}, []int{3, 3}},
		// 7 players on 2 cards: max size 4, 5 protected would want 2 cards
		// but one is reserved, so card 1 is over target and takes no padding.
		{"protected overflow", 5, 2, 3, 6, []int{5, 2}, []int{5, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, err := Partition(entrants(tt.protected, tt.other), Options{
				MinPlayersPerCard: tt.min,
				TotalHoles:        tt.holes,
			})
			if err != nil {
				t.Fatal(err)
			}
			if got := sizes(groups); !reflect.DeepEqual(got, tt.wantSizes) {
				t.Errorf("sizes: got %v, want %v", got, tt.wantSizes)
			}
			got := make([]int, len(groups))
			for i, g := range groups {
				got[i] = protectedCount(g)
			}
			if !reflect.DeepEqual(got, tt.wantProtected) {
				t.Errorf("protected per card: got %v, want %v", got, tt.wantProtected)
			}
		})
	}
}

func TestPartitionPlan(t *testing.T) {
	_, plan, err := PartitionWithPlan(entrants(5, 7), Options{MinPlayersPerCard: 3, TotalHoles: 6})
	if err != nil {
		t.Fatal(err)
	}
	want := &Plan{CardCount: 4, MaxCardSize: 3, ProtectedCards: 2, TargetSizes: []int{3, 3, 3, 3}}
	if !reflect.DeepEqual(plan, want) {
		t.Errorf("got %+v, want %+v", plan, want)
	}
}

func TestPartitionPlanAllProtected(t *testing.T) {
	// Nine protected players need three cards of the four planned.
	groups, plan, err := PartitionWithPlan(entrants(9, 0), Options{MinPlayersPerCard: 2, TotalHoles: 6})
	if err != nil {
		t.Fatal(err)
	}
	want := &Plan{CardCount: 3, MaxCardSize: 3, ProtectedCards: 3, TargetSizes: []int{3, 2, 2}}
	if !reflect.DeepEqual(plan, want) {
		t.Errorf("got %+v, want %+v", plan, want)
	}
	if len(groups) != plan.CardCount {
		t.Errorf("got %d cards, plan says %d", len(groups), plan.CardCount)
	}
}

func TestPartitionCompleteAndFair(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 1; n <= 40; n++ {
		for minPer := 1; minPer <= 6; minPer++ {
			for _, holes := range []int{1, 2, 6, 9, 18} {
				protected := rng.Intn(n + 1)
				players := entrants(protected, n-protected)
				groups, plan, err := PartitionWithPlan(players, Options{
					MinPlayersPerCard: minPer,
					TotalHoles:        holes,
					Shuffle:           true,
					Rand:              rng,
				})
				if err != nil {
					t.Fatalf("n=%d min=%d holes=%d: %v", n, minPer, holes, err)
				}
				where := fmt.Sprintf("n=%d protected=%d min=%d holes=%d", n, protected, minPer, holes)

				if len(groups) > holes {
					t.Errorf("%s: %d cards for %d holes", where, len(groups), holes)
				}
				if len(groups) != plan.CardCount || len(plan.TargetSizes) != plan.CardCount {
					t.Errorf("%s: %d cards, plan %+v", where, len(groups), plan)
				}
				seen := map[string]int{}
				total := 0
				for _, g := range groups {
					if len(g) == 0 {
						t.Errorf("%s: empty card", where)
					}
					total += len(g)
					for _, e := range g {
						seen[e.PlayerID]++
					}
				}
				if total != n {
					t.Errorf("%s: %d seats for %d players", where, total, n)
				}
				for _, p := range players {
					if seen[p.PlayerID] != 1 {
						t.Errorf("%s: %s seated %d times", where, p.PlayerID, seen[p.PlayerID])
					}
				}

				// One dedicated card when the protected division fits on it.
				if protected > 0 && protected < n && plan.CardCount > 1 && protected <= plan.MaxCardSize {
					holders := 0
					for _, g := range groups {
						if protectedCount(g) > 0 {
							holders++
						}
					}
					if holders != 1 || protectedCount(groups[0]) != protected {
						t.Errorf("%s: protected spread over %d cards", where, holders)
					}
				}
			}
		}
	}
}

func TestShuffleIsDeterministicWithSeed(t *testing.T) {
	opts := func() Options {
		return Options{MinPlayersPerCard: 3, TotalHoles: 6, Shuffle: true, Rand: rand.New(rand.NewSource(42))}
	}
	a, _ := Partition(entrants(3, 9), opts())
	b, _ := Partition(entrants(3, 9), opts())
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same seed gave different cards")
	}
}

func TestProtectedDivisionOption(t *testing.T) {
	players := []Entrant{
		{"a", "PRO"}, {"b", "AM"}, {"c", "AM"}, {"d", "AM"}, {"e", "AM"}, {"f", "PRO"},
	}
	groups, err := Partition(players, Options{MinPlayersPerCard: 3, TotalHoles: 6, ProtectedDivision: "PRO"})
	if err != nil {
		t.Fatal(err)
	}
	if groups[0][0].PlayerID != "a" || groups[0][1].PlayerID != "f" {
		t.Errorf("got %v, want PRO players leading card 1", groups[0])
	}
}

func TestBuild(t *testing.T) {
	groups := [][]Entrant{
		{{PlayerID: "a"}, {PlayerID: "b"}},
		{{PlayerID: "c"}},
		{{PlayerID: "d"}},
	}
	cards := Build("night", groups, 2)
	if len(cards) != 3 {
		t.Fatalf("got %d cards", len(cards))
	}
	wantHoles := []int{1, 2, 1}
	for i, c := range cards {
		if c.StartingHole != wantHoles[i] {
			t.Errorf("card %d: starting hole %d, want %d", i, c.StartingHole, wantHoles[i])
		}
		if want := fmt.Sprintf("Card %d", i+1); c.Name != want {
			t.Errorf("card %d: name %q, want %q", i, c.Name, want)
		}
		if c.ID == "" || c.LeagueNightID != "night" {
			t.Errorf("card %d: got %+v", i, c)
		}
	}
	if got := cards[0].PlayerIDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("got %v", got)
	}
	if cards[0].Players[1].SortOrder != 1 {
		t.Errorf("sort order not positional")
	}
}

func TestScorekeeper(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	c := Build("night", [][]Entrant{{{PlayerID: "a"}, {PlayerID: "b"}, {PlayerID: "c"}}}, 6)[0]

	if err := AssignScorekeeper(c, "z", rng); !he.IsValidation(err) {
		t.Errorf("stranger: got %v, want validation", err)
	}
	if err := AssignScorekeeper(c, "b", rng); err != nil {
		t.Fatal(err)
	}
	if c.ScorekeeperID != "b" {
		t.Errorf("got %q, want b", c.ScorekeeperID)
	}
	orders := map[int]bool{}
	for _, cp := range c.Players {
		orders[cp.SortOrder] = true
	}
	if len(orders) != 3 || !orders[0] || !orders[2] {
		t.Errorf("sort orders not a permutation: %v", orders)
	}

	id, err := RandomScorekeeper(c, rng)
	if err != nil {
		t.Fatal(err)
	}
	if !c.HasPlayer(id) || c.ScorekeeperID != id {
		t.Errorf("random scorekeeper %q not on card", id)
	}

	ClearScorekeeper(c)
	if c.ScorekeeperID != "" {
		t.Errorf("scorekeeper not cleared")
	}

	if _, err := RandomScorekeeper(&model.Card{Name: "empty"}, rng); !he.IsEmptyInput(err) {
		t.Errorf("empty card: got %v, want empty input", err)
	}
}
