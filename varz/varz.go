/*
varz provides helpers to create prometheus counters with package-qualified
names, so a counter declared in package dbcache shows up as
puttleague_dbcache_<name>.  Counters register with the default registry;
cmd/leagued serves it at /metrics.
*/
package varz

import (
	"regexp"
	"runtime"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "puttleague"

var invalidMetricChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// callerPackage returns the last path element of the package of the caller
// of the function.  If the variable is declared in a var block, this will
// remove the "init" bit.
func callerPackage() string {
	pc, _, _, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}

	n := fn.Name()
	if slash := strings.LastIndex(n, "/"); slash != -1 {
		n = n[slash+1:]
	}
	if dot := strings.Index(n, "."); dot != -1 {
		n = n[:dot]
	}
	return n
}

func metricName(pkg, name string) string {
	return invalidMetricChars.ReplaceAllString(pkg+"_"+name, "_")
}

// NewInt makes a counter.  The name is kept for the expvar-style call sites
// that use Add.
func NewInt(name string) prometheus.Counter {
	pkg := callerPackage()
	return promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      metricName(pkg, name),
		Help:      pkg + " " + name,
	})
}

// NewMap makes a counter vector keyed by one label.
func NewMap(name, label string) *prometheus.CounterVec {
	pkg := callerPackage()
	return promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      metricName(pkg, name),
		Help:      pkg + " " + name + " by " + label,
	}, []string{label})
}
