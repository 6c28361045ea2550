package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RecordScenarioGenerated counts a generated scenario
func (r *Registry) RecordScenarioGenerated(archetype string) {
	r.ScenariosGenerated.WithLabelValues(archetype).Inc()
}

// RecordPropagation records a propagation with its reach
func (r *Registry) RecordPropagation(duration time.Duration, affectedNodes, affectedRoutes int) {
	r.PropagationDuration.Observe(duration.Seconds())
	r.AffectedNodes.Observe(float64(affectedNodes))
	r.AffectedRoutes.Observe(float64(affectedRoutes))
}

// RecordScore records a computed resilience score
func (r *Registry) RecordScore(score float64, duration time.Duration) {
	r.ResilienceScore.Observe(score)
	r.ScoringDuration.Observe(duration.Seconds())
}

// RecordCriticalPaths records a critical path analysis
func (r *Registry) RecordCriticalPaths(duration time.Duration) {
	r.CriticalPathDuration.Observe(duration.Seconds())
}

// RecordCriticalPathEvaluation counts one scored candidate corridor
func (r *Registry) RecordCriticalPathEvaluation() {
	r.CriticalPathEvaluations.Inc()
}

// RecordMonteCarlo records a batch outcome
func (r *Registry) RecordMonteCarlo(succeeded, failed int, duration time.Duration) {
	r.MonteCarloRunsTotal.WithLabelValues(StatusSuccess).Add(float64(succeeded))
	r.MonteCarloRunsTotal.WithLabelValues(StatusError).Add(float64(failed))
	r.MonteCarloDuration.Observe(duration.Seconds())
}

// RecordDisruptionSampled counts a disruption sampled by a Monte Carlo run
func (r *Registry) RecordDisruptionSampled(archetype string) {
	r.DisruptionsSampled.WithLabelValues(archetype).Inc()
}

// RecordError counts a failed operation by error kind
func (r *Registry) RecordError(operation, kind string) {
	r.OperationErrorsTotal.WithLabelValues(operation, kind).Inc()
}

// SetNetworkSize records the size of the loaded network
func (r *Registry) SetNetworkSize(nodes, routes int) {
	r.NetworkNodes.Set(float64(nodes))
	r.NetworkRoutes.Set(float64(routes))
}

// RecordCacheLookup counts a cache hit or miss
func (r *Registry) RecordCacheLookup(hit bool) {
	if hit {
		r.CacheHitsTotal.Inc()
	} else {
		r.CacheMissesTotal.Inc()
	}
}

// RecordCacheEviction counts an evicted or expired report
func (r *Registry) RecordCacheEviction() {
	r.CacheEvictionsTotal.Inc()
}

// SetCacheEntries records the number of cached reports
func (r *Registry) SetCacheEntries(n int) {
	r.CacheEntries.Set(float64(n))
}

// RecordStoreOperation records a report store operation
func (r *Registry) RecordStoreOperation(operation string, err error, duration time.Duration) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	r.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	r.StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateSystemMetrics samples uptime, goroutines and memory
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.UptimeSeconds.Set(time.Since(r.startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}

// WriteTextfile samples system metrics and writes every metric to path in
// the Prometheus text format, for node_exporter's textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	r.UpdateSystemMetrics()
	return prometheus.WriteToTextfile(path, r.registry)
}
