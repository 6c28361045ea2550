package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initCacheMetrics() {
	r.CacheHitsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "resilience_cache_hits_total",
			Help: "Total number of report cache hits",
		},
	)

	r.CacheMissesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "resilience_cache_misses_total",
			Help: "Total number of report cache misses",
		},
	)

	r.CacheEvictionsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "resilience_cache_evictions_total",
			Help: "Total number of reports evicted or expired from the cache",
		},
	)

	r.CacheEntries = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "resilience_cache_entries",
			Help: "Number of reports currently cached",
		},
	)
}
