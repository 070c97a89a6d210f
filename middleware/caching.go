package middleware

import (
	"fmt"
	"net/http"
	"time"
)

// CacheHeaderAdder wraps an http.Handler and sets Cache-Control.  Standings
// change with every shot, so most of the API says no-store; pure lookups
// like the rotation table can be cached for a while.
type CacheHeaderAdder struct {
	maybe        func(r *http.Request) bool
	next         http.Handler
	maxAge       time.Duration
	cachePrivate bool
}

// CacheHeaderAdderConfig configures the caching behavior.
type CacheHeaderAdderConfig struct {
	// Add cache headers, but only if this returns true.
	Maybe func(r *http.Request) bool

	// Next is the handler to wrap.
	Next http.Handler

	// MaxAge is how long the content may be cached.  Zero means no-store.
	MaxAge time.Duration

	// CachePrivate keeps shared caches (CDNs, proxies) out of it.
	CachePrivate bool
}

func NewCacheHeaderAdder(config *CacheHeaderAdderConfig) *CacheHeaderAdder {
	return &CacheHeaderAdder{
		maybe:        config.Maybe,
		next:         config.Next,
		maxAge:       config.MaxAge,
		cachePrivate: config.CachePrivate,
	}
}

func (ch *CacheHeaderAdder) cacheControl() string {
	maxAgeSeconds := int(ch.maxAge.Seconds())
	if maxAgeSeconds <= 0 {
		return "no-store"
	}
	scope := "public"
	if ch.cachePrivate {
		scope = "private"
	}
	return fmt.Sprintf("%s, max-age=%d", scope, maxAgeSeconds)
}

func (ch *CacheHeaderAdder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ch.maybe == nil || ch.maybe(r) {
		w.Header().Set("Cache-Control", ch.cacheControl())
	}
	ch.next.ServeHTTP(w, r)
}
