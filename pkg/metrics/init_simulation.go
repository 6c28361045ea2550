package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0}

func (r *Registry) initSimulationMetrics() {
	r.ScenariosGenerated = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_scenarios_generated_total",
			Help: "Total number of disruption scenarios generated",
		},
		[]string{"archetype"},
	)

	r.PropagationDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resilience_propagation_duration_seconds",
			Help:    "Scenario propagation duration in seconds",
			Buckets: durationBuckets,
		},
	)

	r.AffectedNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resilience_affected_nodes",
			Help:    "Number of nodes affected by a propagated scenario",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	r.AffectedRoutes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resilience_affected_routes",
			Help:    "Number of routes affected by a propagated scenario",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	r.ResilienceScore = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resilience_score",
			Help:    "Distribution of computed resilience scores",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	r.ScoringDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resilience_scoring_duration_seconds",
			Help:    "Resilience scoring duration in seconds",
			Buckets: durationBuckets,
		},
	)

	r.CriticalPathEvaluations = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "resilience_critical_path_evaluations_total",
			Help: "Total number of candidate corridors scored",
		},
	)

	r.CriticalPathDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resilience_critical_path_duration_seconds",
			Help:    "Critical path analysis duration in seconds",
			Buckets: durationBuckets,
		},
	)

	r.MonteCarloRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_monte_carlo_runs_total",
			Help: "Total number of Monte Carlo runs",
		},
		[]string{"status"},
	)

	r.MonteCarloDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resilience_monte_carlo_duration_seconds",
			Help:    "Monte Carlo batch duration in seconds",
			Buckets: durationBuckets,
		},
	)

	r.DisruptionsSampled = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_monte_carlo_disruptions_total",
			Help: "Total number of disruptions sampled by Monte Carlo runs",
		},
		[]string{"archetype"},
	)

	r.OperationErrorsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_operation_errors_total",
			Help: "Total number of failed engine operations",
		},
		[]string{"operation", "kind"},
	)

	r.NetworkNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "resilience_network_nodes",
			Help: "Number of nodes in the loaded network",
		},
	)

	r.NetworkRoutes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "resilience_network_routes",
			Help: "Number of routes in the loaded network",
		},
	)
}
