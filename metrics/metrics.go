// Package metrics counts the external lookups a process makes.
package metrics

import (
	"time"

	"github.com/ethereum/go-ethereum/metrics"
)

var Registry = func() metrics.Registry {
	// Enable metrics package.
	// Won't work without this global setting.
	metrics.Enabled = true
	return metrics.NewRegistry()
}()

var (
	GeologyLookups   = metrics.NewRegisteredCounter("geology.lookups", Registry)
	GeologyMisses    = metrics.NewRegisteredCounter("geology.misses", Registry)
	GeologyErrors    = metrics.NewRegisteredCounter("geology.errors", Registry)
	GeologyCacheHits = metrics.NewRegisteredCounter("geology.cache.hits", Registry)
	GeologyTimer     = metrics.NewRegisteredTimer("geology.lookup.timer", Registry)

	FossilQueries   = metrics.NewRegisteredCounter("fossil.queries", Registry)
	FossilCacheHits = metrics.NewRegisteredCounter("fossil.cache.hits", Registry)
	FossilFailures  = metrics.NewRegisteredCounter("fossil.failures", Registry)

	RidesEnriched = metrics.NewRegisteredCounter("rides.enriched", Registry)
	RidesAborted  = metrics.NewRegisteredCounter("rides.aborted", Registry)
)

// Snapshot flattens the registry for status reports.
func Snapshot() map[string]interface{} {
	out := map[string]interface{}{}
	Registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Counter:
			out[name] = m.Snapshot().Count()
		case metrics.Timer:
			s := m.Snapshot()
			out[name] = map[string]interface{}{
				"count": s.Count(),
				"mean":  time.Duration(s.Mean()).Round(time.Millisecond).String(),
				"p95":   time.Duration(s.Percentile(0.95)).Round(time.Millisecond).String(),
			}
		}
	})
	return out
}
