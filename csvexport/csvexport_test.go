package csvexport

import (
	"strings"
	"testing"

	"github.com/ts4z/puttleague/model"
)

func TestWriteTotals(t *testing.T) {
	var b strings.Builder
	err := WriteTotals(&b, []*model.PlayerTotal{
		{PlayerID: "a1", PlayerName: "Smith, Ann", DivisionCode: "AAA", TotalMade: 5, TotalBonus: 1, ShortMade: 3, LongMade: 2, TotalScore: 6},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "rank,player_id,player,division,made,bonus,short_made,long_made,score\n" +
		"1,a1,\"Smith, Ann\",AAA,5,1,3,2,6\n"
	if got := b.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWritePayouts(t *testing.T) {
	var b strings.Builder
	err := WritePayouts(&b, []*model.DivisionPayout{
		{DivisionCode: "AAA", Pool: 40, Withheld: 40, Entries: []*model.PayoutEntry{
			{Place: 1, PlayerID: "a1", PlayerName: "Ann", TotalScore: 6, IsTied: true, PendingPuttOff: true},
			{Place: 1, PlayerID: "a2", PlayerName: "Ben", TotalScore: 6, IsTied: true, PendingPuttOff: true},
		}},
		{DivisionCode: "CCC", Pool: 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	want := []string{
		"division,place,player_id,player,score,payout,tied,pending_putt_off,pool,withheld",
		"AAA,1,a1,Ann,6,0,true,true,40,40",
		"AAA,1,a2,Ben,6,0,true,true,40,40",
		"CCC,,,,,0,,,0,0",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), b.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}
