// Package paytable provides data models and stateless functions for
// representing payout percentage tables.
package paytable

import (
	"fmt"
)

// WholePool is 100% in basis points.
const WholePool = 10000

// Row defines the payout percentages for every player count up to and
// including MaxPlayers that an earlier row didn't already claim.
// Percentages are in basis points (10000 = 100%).
type Row struct {
	MaxPlayers  int   // Maximum number of players (inclusive)
	Percentages []int // Percentages in basis points, index 0 = 1st place
}

// Paytable is an ordered list of rows.  Lookup walks the rows in order, so
// bounds must ascend.
type Paytable struct {
	Name string
	Rows []Row
}

// Percentages finds the payout slice for the number of players.  A count
// past the last bound uses the last row; a count of zero or less gets
// nothing.  The returned slice is shared with the table; don't modify it.
func (pt *Paytable) Percentages(numPlayers int) []int {
	if numPlayers <= 0 || len(pt.Rows) == 0 {
		return []int{}
	}
	return pt.findRow(numPlayers).Percentages
}

func (pt *Paytable) findRow(numPlayers int) *Row {
	for i := range pt.Rows {
		if pt.Rows[i].MaxPlayers >= numPlayers {
			return &pt.Rows[i]
		}
	}
	return &pt.Rows[len(pt.Rows)-1]
}

// Places is the number of paid places for numPlayers.
func (pt *Paytable) Places(numPlayers int) int {
	return len(pt.Percentages(numPlayers))
}

// Validate checks that bounds ascend strictly and that every non-empty row
// pays out the whole pool.
func (pt *Paytable) Validate() error {
	if len(pt.Rows) == 0 {
		return fmt.Errorf("paytable %q has no rows", pt.Name)
	}
	prev := -1
	for i, row := range pt.Rows {
		if row.MaxPlayers <= prev {
			return fmt.Errorf("paytable %q row %d: bound %d does not ascend past %d",
				pt.Name, i, row.MaxPlayers, prev)
		}
		prev = row.MaxPlayers
		if len(row.Percentages) == 0 {
			continue
		}
		if len(row.Percentages) > row.MaxPlayers && i != len(pt.Rows)-1 {
			return fmt.Errorf("paytable %q row %d: %d places for at most %d players",
				pt.Name, i, len(row.Percentages), row.MaxPlayers)
		}
		sum := 0
		for _, bp := range row.Percentages {
			if bp < 0 {
				return fmt.Errorf("paytable %q row %d: negative percentage %d", pt.Name, i, bp)
			}
			sum += bp
		}
		if sum != WholePool {
			return fmt.Errorf("paytable %q row %d: percentages sum to %d, want %d",
				pt.Name, i, sum, WholePool)
		}
	}
	return nil
}

func (pt *Paytable) Clone() *Paytable {
	clone := &Paytable{
		Name: pt.Name,
		Rows: make([]Row, len(pt.Rows)),
	}
	for i, row := range pt.Rows {
		clone.Rows[i] = row
		clone.Rows[i].Percentages = make([]int, len(row.Percentages))
		copy(clone.Rows[i].Percentages, row.Percentages)
	}
	return clone
}
