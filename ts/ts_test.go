package ts

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestNowTruncates(t *testing.T) {
	start := time.Date(2025, 6, 3, 18, 30, 0, 123456789, time.FixedZone("PDT", -7*3600))
	fake := clockwork.NewFakeClockAt(start)
	c := NewClock(fake)

	got := c.Now()
	want := time.Date(2025, 6, 4, 1, 30, 0, 123000000, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("got %v, want %v", got, want)
	}

	fake.Advance(time.Minute)
	if d := c.Since(start); d != time.Minute {
		t.Errorf("Since: got %v, want 1m", d)
	}
}
