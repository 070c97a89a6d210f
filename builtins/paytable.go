package builtins

import (
	"github.com/ts4z/puttleague/paytable"
)

// leaguePaytable is the weekly league structure.  Fewer than four paid
// players is winner take all.
var leaguePaytable = &paytable.Paytable{
	Name: "Weekly Putting League",
	Rows: []paytable.Row{
		{
			MaxPlayers:  0,
			Percentages: []int{},
		},
		{
			MaxPlayers:  3,
			Percentages: []int{10000}, // Winner takes all
		},
		{
			MaxPlayers:  6,
			Percentages: []int{6250, 3750},
		},
		{
			MaxPlayers:  9,
			Percentages: []int{4750, 3000, 2250},
		},
		{
			MaxPlayers:  12,
			Percentages: []int{4100, 2600, 1900, 1400},
		},
		{
			MaxPlayers:  15,
			Percentages: []int{3600, 2450, 1700, 1250, 1000},
		},
		{ // 16 and up
			MaxPlayers:  16,
			Percentages: []int{3300, 2300, 1550, 1200, 950, 700},
		},
	},
}

// LeaguePaytable returns a copy of the league's payout structure.
func LeaguePaytable() *paytable.Paytable {
	return leaguePaytable.Clone()
}
