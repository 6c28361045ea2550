package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-resilience/pkg/config"
	"github.com/dd0wney/cluso-resilience/pkg/critical"
	"github.com/dd0wney/cluso-resilience/pkg/engine"
	"github.com/dd0wney/cluso-resilience/pkg/health"
	"github.com/dd0wney/cluso-resilience/pkg/montecarlo"
	"github.com/dd0wney/cluso-resilience/pkg/network"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func executeJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := execute(t, append(args, "--json")...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func TestScenarioCommand(t *testing.T) {
	var ev engine.Evaluation
	executeJSON(t, &ev, "scenario", "natural_disaster", "--lat=-1.2921", "--lon=36.8219", "--severity=0.7")

	assert.Equal(t, engine.SourceComputed, ev.Source)
	assert.Equal(t, "natural_disaster", ev.Report.ScenarioType)
	assert.NotEmpty(t, ev.Report.Fingerprint)
	assert.GreaterOrEqual(t, ev.Report.ResilienceScore, 0.0)
	assert.LessOrEqual(t, ev.Report.ResilienceScore, 1.0)
	require.NotNil(t, ev.Scenario)
	assert.InDelta(t, 0.7, ev.Scenario.Severity, 1e-9)
	assert.InDelta(t, -1.2921, ev.Scenario.Epicenter.Lat, 1e-9)
}

func TestScenarioCommandRendersReport(t *testing.T) {
	out, err := execute(t, "scenario", "pandemic", "--severity=0.5")
	require.NoError(t, err)
	assert.Contains(t, out, "Resilience report")
	assert.Contains(t, out, "Resilience score")
	assert.Contains(t, out, "pandemic")
}

func TestScenarioCommandErrors(t *testing.T) {
	_, err := execute(t, "scenario", "meteor_strike")
	assert.Error(t, err)

	_, err = execute(t, "scenario")
	assert.Error(t, err)

	_, err = execute(t, "scenario", "pandemic", "--lat=1")
	assert.Error(t, err, "lat without lon")
}

func TestCriticalPathsCommand(t *testing.T) {
	var corridors []critical.Corridor
	executeJSON(t, &corridors, "critical-paths", "--top=3")

	require.NotEmpty(t, corridors)
	assert.LessOrEqual(t, len(corridors), 3)
	for i := 1; i < len(corridors); i++ {
		assert.GreaterOrEqual(t, corridors[i-1].Criticality, corridors[i].Criticality)
	}

	out, err := execute(t, "critical-paths", "--top=2")
	require.NoError(t, err)
	assert.Contains(t, out, "Criticality")
}

func TestCriticalPathsCommandThreshold(t *testing.T) {
	var all, filtered []critical.Corridor
	executeJSON(t, &all, "critical-paths", "--top=50")
	require.NotEmpty(t, all)

	cut := all[len(all)/2].Criticality
	executeJSON(t, &filtered, "critical-paths", "--top=50", "--threshold="+strconv.FormatFloat(cut, 'f', -1, 64))
	for _, c := range filtered {
		assert.GreaterOrEqual(t, c.Criticality, cut-1e-9)
	}

	_, err := execute(t, "critical-paths", "--threshold=1.5")
	assert.Error(t, err)
}

func TestMonteCarloCommandReproducible(t *testing.T) {
	args := []string{"monte-carlo", "--runs=4", "--horizon=60", "--probability=0.05", "--seed=7"}

	var first, second montecarlo.Result
	executeJSON(t, &first, args...)
	executeJSON(t, &second, args...)

	assert.Equal(t, int64(7), first.Seed)
	require.Len(t, first.Runs, 4)
	require.Len(t, second.Runs, 4)
	for i := range first.Runs {
		assert.Equal(t, first.Runs[i].Summary.TotalDisruptions, second.Runs[i].Summary.TotalDisruptions)
		assert.Equal(t, first.Runs[i].Summary.TotalDurationDays, second.Runs[i].Summary.TotalDurationDays)
	}

	out, err := execute(t, append(args, "--show-runs")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Monte Carlo batch")
	assert.Contains(t, out, first.Runs[0].ID)
}

func TestMonteCarloCommandRejectsInvalidConfig(t *testing.T) {
	_, err := execute(t, "monte-carlo", "--runs=0")
	assert.Error(t, err)
}

func TestAssessCommand(t *testing.T) {
	var a resilience.Assessment
	executeJSON(t, &a, "assess")
	assert.GreaterOrEqual(t, a.OverallScore, 0.0)
	assert.LessOrEqual(t, a.OverallScore, 1.0)
	assert.Equal(t, 18, a.Baseline.Nodes)
	assert.Nil(t, a.Disruption)

	var withScenario resilience.Assessment
	executeJSON(t, &withScenario, "assess", "infrastructure_failure", "--severity=0.8")
	require.NotNil(t, withScenario.Disruption)
	assert.InDelta(t, withScenario.Disruption.ResilienceScore, withScenario.OverallScore, 1e-9)
}

func TestExportAndLoadNetwork(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kenya.yaml")
	out, err := execute(t, "export", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	g, err := network.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, network.KenyaReference().Stats(), g.Stats())

	var ev engine.Evaluation
	executeJSON(t, &ev, "--network", path, "scenario", "pandemic")
	assert.Equal(t, 18, ev.Report.Baseline.Nodes)
}

func TestExportToStdout(t *testing.T) {
	out, err := execute(t, "export")
	require.NoError(t, err)

	g, err := network.ReadDocument(bytes.NewBufferString(out), network.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 18, g.NodeCount())
}

func TestMissingNetworkFile(t *testing.T) {
	_, err := execute(t, "--network", filepath.Join(t.TempDir(), "missing.json"), "assess")
	assert.Error(t, err)
}

func TestConfigCommand(t *testing.T) {
	out, err := execute(t, "config", "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, out, "max_hops: 4")
	assert.Contains(t, out, "level: debug")

	_, err = execute(t, "config", "--log-level", "loud")
	assert.Error(t, err)
}

func TestPrecomputeThenListReports(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Store.Driver = config.StoreSQLite
	cfg.Store.DSN = filepath.Join(dir, "reports.db")
	cfgPath := filepath.Join(dir, "resilience.yaml")
	require.NoError(t, cfg.SaveYAML(cfgPath))

	var evs []engine.Evaluation
	executeJSON(t, &evs, "--config", cfgPath, "precompute")
	require.Len(t, evs, len(engine.CommonScenarios()))

	var reports []resilience.Report
	executeJSON(t, &reports, "--config", cfgPath, "reports")
	assert.Len(t, reports, len(evs))

	var one resilience.Report
	executeJSON(t, &one, "--config", cfgPath, "reports", evs[0].Report.Fingerprint)
	assert.Equal(t, evs[0].Report.Fingerprint, one.Fingerprint)

	// A second process finds the reports in the store.
	var again []engine.Evaluation
	executeJSON(t, &again, "--config", cfgPath, "precompute")
	for _, ev := range again {
		assert.Equal(t, engine.SourceStore, ev.Source)
	}

	out, err := execute(t, "--config", cfgPath, "reports")
	require.NoError(t, err)
	assert.Contains(t, out, evs[0].Report.Fingerprint)
}

func TestArchiveCommandWithoutArchive(t *testing.T) {
	_, err := execute(t, "archive")
	assert.ErrorIs(t, err, engine.ErrNoArchive)
}

func TestMetricsTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resilience.prom")
	_, err := execute(t, "--metrics-out", path, "scenario", "pandemic")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "resilience_scenarios_generated_total")
}

func TestHealthCommand(t *testing.T) {
	var resp health.Response
	executeJSON(t, &resp, "health")
	assert.Equal(t, health.StatusHealthy, resp.Status)
	assert.Contains(t, resp.Checks, "store")

	out, err := execute(t, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "network")
}
