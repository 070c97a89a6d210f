package ts

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock wraps a clockwork.Clock so that Now is a little more convenient and
// tests can swap in a fake.
type Clock struct {
	realClock clockwork.Clock
}

func NewRealClock() *Clock {
	return &Clock{
		realClock: clockwork.NewRealClock(),
	}
}

// NewClock wraps any clockwork clock, typically clockwork.NewFakeClock.
func NewClock(c clockwork.Clock) *Clock {
	return &Clock{realClock: c}
}

// Now provides a UTC timestamp truncated to the millisecond.  Shot order
// depends on EnteredAt, and the databases all keep at least milliseconds.
func (c *Clock) Now() time.Time {
	return c.realClock.Now().UTC().Truncate(time.Millisecond)
}

func (c *Clock) Since(t time.Time) time.Duration {
	return c.realClock.Since(t)
}

func (c *Clock) After(d time.Duration) <-chan time.Time {
	return c.realClock.After(d)
}

func (c *Clock) RealClock() clockwork.Clock {
	return c.realClock
}
