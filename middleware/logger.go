package middleware

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ts4z/puttleague/varz"
)

var requestsByCode = varz.NewMap("requests", "code")

type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// RequestLogger is a middleware that logs the request.
type RequestLogger struct {
	next  http.Handler
	clock Clock
}

func NewRequestLogger(next http.Handler, clock Clock) *RequestLogger {
	return &RequestLogger{next: next, clock: clock}
}

func remoteAddr(r *http.Request) string {
	if r.Header.Get("X-Forwarded-For") != "" {
		return r.Header.Get("X-Forwarded-For")
	}
	return r.RemoteAddr
}

func (rl *RequestLogger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := rl.clock.Now()
	ww := &codeWatcher{w: w}
	rl.next.ServeHTTP(ww, r)
	code := ww.Code()
	requestsByCode.WithLabelValues(strconv.Itoa(code)).Add(1)
	zap.S().Infow("access",
		"code", code,
		"remote", remoteAddr(r),
		"method", r.Method,
		"path", r.URL.Path,
		"duration", rl.clock.Since(start))
}
