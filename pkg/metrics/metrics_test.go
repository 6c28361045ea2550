package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	if err := g.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func histogramOf(t *testing.T, h prometheus.Histogram) *dto.Histogram {
	t.Helper()
	var metric dto.Metric
	if err := h.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Histogram
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	// Verify all metrics are initialized
	if r.ScenariosGenerated == nil {
		t.Error("ScenariosGenerated not initialized")
	}
	if r.ResilienceScore == nil {
		t.Error("ResilienceScore not initialized")
	}
	if r.CacheHitsTotal == nil {
		t.Error("CacheHitsTotal not initialized")
	}
	if r.StoreOperationsTotal == nil {
		t.Error("StoreOperationsTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	r1 := NewRegistry()
	r2 := NewRegistry()

	r1.RecordScenarioGenerated("pandemic")

	if got := counterValue(t, r2.ScenariosGenerated.WithLabelValues("pandemic")); got != 0 {
		t.Errorf("second registry counter = %v, want 0", got)
	}
}

func TestRecordScenarioGenerated(t *testing.T) {
	r := NewRegistry()

	r.RecordScenarioGenerated("pandemic")
	r.RecordScenarioGenerated("pandemic")
	r.RecordScenarioGenerated("natural_disaster")

	if got := counterValue(t, r.ScenariosGenerated.WithLabelValues("pandemic")); got != 2 {
		t.Errorf("pandemic counter = %v, want 2", got)
	}
	if got := counterValue(t, r.ScenariosGenerated.WithLabelValues("natural_disaster")); got != 1 {
		t.Errorf("natural_disaster counter = %v, want 1", got)
	}
}

func TestRecordPropagation(t *testing.T) {
	r := NewRegistry()

	r.RecordPropagation(10*time.Millisecond, 4, 7)
	r.RecordPropagation(20*time.Millisecond, 2, 1)

	if h := histogramOf(t, r.AffectedNodes); h.GetSampleCount() != 2 || h.GetSampleSum() != 6 {
		t.Errorf("affected nodes count=%d sum=%v, want 2 and 6", h.GetSampleCount(), h.GetSampleSum())
	}
	if h := histogramOf(t, r.AffectedRoutes); h.GetSampleSum() != 8 {
		t.Errorf("affected routes sum = %v, want 8", h.GetSampleSum())
	}

	sum := histogramOf(t, r.PropagationDuration).GetSampleSum()
	if sum < 0.029 || sum > 0.031 {
		t.Errorf("propagation duration sum = %v, want ~0.03", sum)
	}
}

func TestRecordScore(t *testing.T) {
	r := NewRegistry()

	r.RecordScore(0.25, time.Millisecond)
	r.RecordScore(0.75, time.Millisecond)
	r.RecordScore(1.0, time.Millisecond)

	h := histogramOf(t, r.ResilienceScore)
	if h.GetSampleCount() != 3 {
		t.Errorf("Sample count = %v, want 3", h.GetSampleCount())
	}
	if sum := h.GetSampleSum(); sum < 1.99 || sum > 2.01 {
		t.Errorf("Sample sum = %v, want ~2.0", sum)
	}

	// 0.25 lands in le=0.3 and above; nothing at or below 0.2
	for _, b := range h.GetBucket() {
		if b.GetUpperBound() < 0.21 && b.GetCumulativeCount() != 0 {
			t.Errorf("bucket le=%v count = %d, want 0", b.GetUpperBound(), b.GetCumulativeCount())
		}
	}
}

func TestRecordCriticalPaths(t *testing.T) {
	r := NewRegistry()

	for i := 0; i < 5; i++ {
		r.RecordCriticalPathEvaluation()
	}
	r.RecordCriticalPaths(50 * time.Millisecond)

	if got := counterValue(t, r.CriticalPathEvaluations); got != 5 {
		t.Errorf("evaluations = %v, want 5", got)
	}
	if got := histogramOf(t, r.CriticalPathDuration).GetSampleCount(); got != 1 {
		t.Errorf("duration samples = %v, want 1", got)
	}
}

func TestRecordMonteCarlo(t *testing.T) {
	r := NewRegistry()

	r.RecordMonteCarlo(98, 2, time.Second)
	r.RecordDisruptionSampled("pandemic")

	if got := counterValue(t, r.MonteCarloRunsTotal.WithLabelValues(StatusSuccess)); got != 98 {
		t.Errorf("success runs = %v, want 98", got)
	}
	if got := counterValue(t, r.MonteCarloRunsTotal.WithLabelValues(StatusError)); got != 2 {
		t.Errorf("failed runs = %v, want 2", got)
	}
	if got := counterValue(t, r.DisruptionsSampled.WithLabelValues("pandemic")); got != 1 {
		t.Errorf("sampled = %v, want 1", got)
	}
}

func TestCacheMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordCacheLookup(true)
	r.RecordCacheLookup(true)
	r.RecordCacheLookup(false)
	r.RecordCacheEviction()
	r.SetCacheEntries(12)

	if got := counterValue(t, r.CacheHitsTotal); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := counterValue(t, r.CacheMissesTotal); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if got := counterValue(t, r.CacheEvictionsTotal); got != 1 {
		t.Errorf("evictions = %v, want 1", got)
	}
	if got := gaugeValue(t, r.CacheEntries); got != 12 {
		t.Errorf("entries = %v, want 12", got)
	}
}

func TestRecordStoreOperation(t *testing.T) {
	r := NewRegistry()

	r.RecordStoreOperation("save", nil, 10*time.Millisecond)
	r.RecordStoreOperation("save", nil, 20*time.Millisecond)
	r.RecordStoreOperation("save", errors.New("disk full"), 5*time.Millisecond)

	if got := counterValue(t, r.StoreOperationsTotal.WithLabelValues("save", StatusSuccess)); got != 2 {
		t.Errorf("success counter = %v, want 2", got)
	}
	if got := counterValue(t, r.StoreOperationsTotal.WithLabelValues("save", StatusError)); got != 1 {
		t.Errorf("error counter = %v, want 1", got)
	}

	h, err := r.StoreOperationDuration.GetMetricWithLabelValues("save")
	if err != nil {
		t.Fatalf("Failed to get histogram: %v", err)
	}
	if got := histogramOf(t, h.(prometheus.Histogram)).GetSampleCount(); got != 3 {
		t.Errorf("Sample count = %v, want 3", got)
	}
}

func TestGaugeMetrics(t *testing.T) {
	r := NewRegistry()

	r.SetNetworkSize(18, 34)
	r.RecordError("score", "computation")

	if got := gaugeValue(t, r.NetworkNodes); got != 18 {
		t.Errorf("nodes = %v, want 18", got)
	}
	if got := gaugeValue(t, r.NetworkRoutes); got != 34 {
		t.Errorf("routes = %v, want 34", got)
	}
	if got := counterValue(t, r.OperationErrorsTotal.WithLabelValues("score", "computation")); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
}

func TestSystemMetrics(t *testing.T) {
	r := NewRegistry()

	r.UpdateSystemMetrics()

	if got := gaugeValue(t, r.GoRoutines); got < 1 {
		t.Errorf("goroutines = %v, want >= 1", got)
	}
	if got := gaugeValue(t, r.MemorySysBytes); got <= 0 {
		t.Errorf("memory sys = %v, want > 0", got)
	}
	if got := gaugeValue(t, r.UptimeSeconds); got < 0 {
		t.Errorf("uptime = %v, want >= 0", got)
	}
}

func TestGetPrometheusRegistry(t *testing.T) {
	r := NewRegistry()
	promRegistry := r.GetPrometheusRegistry()

	if promRegistry == nil {
		t.Fatal("GetPrometheusRegistry() returned nil")
	}

	// Verify we can gather metrics
	metrics, err := promRegistry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	if len(metrics) == 0 {
		t.Error("No metrics registered")
	}

	// Verify some expected metrics exist
	expectedMetrics := []string{
		"resilience_score",
		"resilience_cache_hits_total",
		"resilience_uptime_seconds",
	}

	metricNames := make(map[string]bool)
	for _, m := range metrics {
		metricNames[m.GetName()] = true
	}

	for _, expected := range expectedMetrics {
		if !metricNames[expected] {
			t.Errorf("Expected metric %s not found", expected)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.RecordScenarioGenerated("pandemic")

	path := filepath.Join(t.TempDir(), "resilience.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `resilience_scenarios_generated_total{archetype="pandemic"} 1`) {
		t.Errorf("textfile missing scenario counter:\n%s", text)
	}
	if !strings.Contains(text, "resilience_goroutines") {
		t.Error("textfile missing system gauges")
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.RecordCacheLookup(true)
			}
			done <- true
		}()
	}

	// Wait for all goroutines
	for i := 0; i < 10; i++ {
		<-done
	}

	// Should have 1000 total hits (10 goroutines * 100 lookups)
	if got := counterValue(t, r.CacheHitsTotal); got != 1000 {
		t.Errorf("Counter = %v, want 1000", got)
	}
}

func TestMetricNaming(t *testing.T) {
	r := NewRegistry()
	r.RecordScenarioGenerated("pandemic")
	r.RecordStoreOperation("get", nil, time.Millisecond)

	metrics, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	// Verify all metrics have the resilience_ prefix
	for _, m := range metrics {
		name := m.GetName()
		if !strings.HasPrefix(name, "resilience_") {
			t.Errorf("Metric %s does not have resilience_ prefix", name)
		}
	}
}

func BenchmarkRecordScore(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordScore(0.5, time.Millisecond)
	}
}

func BenchmarkRecordStoreOperation(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordStoreOperation("save", nil, 5*time.Millisecond)
	}
}
