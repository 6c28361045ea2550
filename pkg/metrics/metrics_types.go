// Package metrics exposes the engine's Prometheus metrics.
//
// A Registry is an instance owned by the composition root; there is no
// package-level default, so tests and concurrent engines never share
// counters.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Simulation Metrics
	ScenariosGenerated      *prometheus.CounterVec
	PropagationDuration     prometheus.Histogram
	AffectedNodes           prometheus.Histogram
	AffectedRoutes          prometheus.Histogram
	ResilienceScore         prometheus.Histogram
	ScoringDuration         prometheus.Histogram
	CriticalPathEvaluations prometheus.Counter
	CriticalPathDuration    prometheus.Histogram
	MonteCarloRunsTotal     *prometheus.CounterVec
	MonteCarloDuration      prometheus.Histogram
	DisruptionsSampled      *prometheus.CounterVec
	OperationErrorsTotal    *prometheus.CounterVec
	NetworkNodes            prometheus.Gauge
	NetworkRoutes           prometheus.Gauge

	// Cache Metrics
	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter
	CacheEvictionsTotal prometheus.Counter
	CacheEntries        prometheus.Gauge

	// Store Metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time
	mu        sync.RWMutex
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry:  reg,
		startTime: time.Now(),
	}

	// Initialize all metrics
	r.initSimulationMetrics()
	r.initCacheMetrics()
	r.initStoreMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
