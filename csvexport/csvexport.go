// Package csvexport writes leaderboards and payout sheets as CSV, for the
// treasurer's spreadsheet.  Money is in whole currency units, percentages
// in basis points, so the numbers survive a round trip.
package csvexport

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/ts4z/puttleague/model"
)

var totalsHeader = []string{"rank", "player_id", "player", "division", "made", "bonus", "short_made", "long_made", "score"}

// WriteTotals writes one row per player, in leaderboard order.
func WriteTotals(w io.Writer, totals []*model.PlayerTotal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(totalsHeader); err != nil {
		return err
	}
	for i, t := range totals {
		row := []string{
			strconv.Itoa(i + 1),
			t.PlayerID,
			t.PlayerName,
			t.DivisionCode,
			strconv.Itoa(t.TotalMade),
			strconv.Itoa(t.TotalBonus),
			strconv.Itoa(t.ShortMade),
			strconv.Itoa(t.LongMade),
			strconv.Itoa(t.TotalScore),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var payoutsHeader = []string{"division", "place", "player_id", "player", "score", "payout", "tied", "pending_putt_off", "pool", "withheld"}

// WritePayouts writes one row per paid player.  Pool and withheld repeat on
// every row of a division; a division with nobody ranked still gets a row
// so its pool isn't lost.
func WritePayouts(w io.Writer, divisions []*model.DivisionPayout) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(payoutsHeader); err != nil {
		return err
	}
	for _, d := range divisions {
		pool := strconv.FormatInt(d.Pool, 10)
		withheld := strconv.FormatInt(d.Withheld, 10)
		if len(d.Entries) == 0 {
			if err := cw.Write([]string{d.DivisionCode, "", "", "", "", "0", "", "", pool, withheld}); err != nil {
				return err
			}
			continue
		}
		for _, e := range d.Entries {
			row := []string{
				d.DivisionCode,
				strconv.Itoa(e.Place),
				e.PlayerID,
				e.PlayerName,
				strconv.Itoa(e.TotalScore),
				strconv.FormatInt(e.Payout, 10),
				strconv.FormatBool(e.IsTied),
				strconv.FormatBool(e.PendingPuttOff),
				pool,
				withheld,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
