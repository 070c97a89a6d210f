/*
package gossip provides an interface between our clients and notifications from
our database as well as our local writes.

The name is imperfect, but see the section "Promotion" on https://en.wikipedia.org/wiki/Hadacol.
*/

package gossip

import (
	"context"

	"github.com/ts4z/puttleague/model"
)

type CacheStorage[T any] interface {
	Fetch(ctx context.Context, id string) (*T, error)
	CacheInvalidate(ctx context.Context, key string, version int64)
}

// Filler decorates an event before it goes out, typically with current
// standings.
type Filler interface {
	FillEvent(ctx context.Context, ev *model.NightEvent) error
}
