package critical

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-resilience/pkg/network"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
	"github.com/dd0wney/cluso-resilience/pkg/simerr"
)

// starNetwork: DC feeds two warehouses; WH1 serves D1 and D2, WH2 serves D3.
// DC also reaches D1 by a parallel road and rail pair through WH1.
func starNetwork(t *testing.T) *network.Graph {
	t.Helper()
	g := network.NewGraph()
	for i, id := range []string{"DC", "WH1", "WH2"} {
		require.NoError(t, g.AddFacility(network.Facility{
			ID: id, Location: network.Location{Lat: float64(i)}, Capacity: 100, Echelon: 3 - i%2,
		}))
	}
	for i, id := range []string{"D1", "D2", "D3"} {
		require.NoError(t, g.AddDemandPoint(network.DemandPoint{
			ID: id, Location: network.Location{Lon: float64(i + 1)}, DemandMean: 10,
		}))
	}
	add := func(id, from, to string, mode network.TransportMode) {
		require.NoError(t, g.AddRoute(network.Route{
			ID: id, Origin: from, Destination: to, DistanceKm: 10, TransitTimeHours: 1, Mode: mode,
		}))
	}
	add("R1", "DC", "WH1", network.ModeRoad)
	add("R1-rail", "DC", "WH1", network.ModeRail)
	add("R2", "DC", "WH2", network.ModeRoad)
	add("R3", "WH1", "D1", network.ModeRoad)
	add("R4", "WH1", "D2", network.ModeRoad)
	add("R5", "WH2", "D3", network.ModeRoad)
	return g
}

func TestCandidates(t *testing.T) {
	g := starNetwork(t)
	paths := NewAnalyzer().Candidates(g)

	var got []string
	for _, p := range paths {
		got = append(got, resilience.PathDescription(p.Nodes))
	}
	assert.Equal(t, []string{
		"DC → WH1 → D1",
		"DC → WH1 → D2",
		"DC → WH2 → D3",
		"WH1 → D1",
		"WH1 → D2",
		"WH2 → D3",
	}, got)

	assert.Len(t, NewAnalyzer(WithMaxHops(1)).Candidates(g), 3)
}

func TestAnalyze_RankingAndCut(t *testing.T) {
	g := starNetwork(t)
	corridors, err := NewAnalyzer(WithWorkers(3)).Analyze(context.Background(), g, 0)
	require.NoError(t, err)
	require.Len(t, corridors, 6)

	for i := 1; i < len(corridors); i++ {
		assert.GreaterOrEqual(t, corridors[i-1].Criticality, corridors[i].Criticality)
	}
	for _, c := range corridors {
		assert.GreaterOrEqual(t, c.Criticality, 0.0)
		assert.LessOrEqual(t, c.Criticality, 1.0)
		assert.InDelta(t, 1-c.Report.ResilienceScore, c.Criticality, 1e-12)
		assert.Equal(t, c.Nodes[0], c.Source)
		assert.Equal(t, c.Nodes[len(c.Nodes)-1], c.Target)
	}

	// cutting DC→WH1 removes both the road and the rail route
	top := corridors[0]
	assert.Equal(t, "DC → WH1 → D1", top.Description)
	assert.Greater(t, top.Report.Impact.LostPairs, 0)

	// the input graph is untouched
	assert.Equal(t, 6, g.RouteCount())
}

func TestAnalyze_Deterministic(t *testing.T) {
	g := network.KenyaReference()
	a := NewAnalyzer(WithWorkers(8))

	first, err := a.Analyze(context.Background(), g, 0)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	for i := 0; i < 3; i++ {
		again, err := a.Analyze(context.Background(), g, 0)
		require.NoError(t, err)
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].Description, again[j].Description)
			assert.Equal(t, first[j].Criticality, again[j].Criticality)
		}
	}

	for _, c := range first {
		assert.LessOrEqual(t, c.Hops, DefaultMaxHops)
		assert.GreaterOrEqual(t, c.Hops, 1)
	}
}

func TestAnalyze_TopKAndThreshold(t *testing.T) {
	g := starNetwork(t)

	top, err := NewAnalyzer().Analyze(context.Background(), g, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)

	all, err := NewAnalyzer().Analyze(context.Background(), g, 0)
	require.NoError(t, err)

	threshold := all[2].Criticality - 1e-9
	filtered, err := NewAnalyzer(WithThreshold(threshold)).Analyze(context.Background(), g, 0)
	require.NoError(t, err)
	for _, c := range filtered {
		assert.GreaterOrEqual(t, c.Criticality, threshold)
	}
	assert.GreaterOrEqual(t, len(filtered), 3)

	none, err := NewAnalyzer(WithThreshold(1.1)).Analyze(context.Background(), g, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAnalyze_Errors(t *testing.T) {
	_, err := NewAnalyzer().Analyze(context.Background(), nil, 5)
	assert.True(t, simerr.IsValidation(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewAnalyzer().Analyze(ctx, network.KenyaReference(), 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_EmptyGraph(t *testing.T) {
	corridors, err := NewAnalyzer().Analyze(context.Background(), network.NewGraph(), 5)
	require.NoError(t, err)
	assert.Empty(t, corridors)
}

func TestAnalyze_EvaluationHook(t *testing.T) {
	var n int64
	a := NewAnalyzer(WithEvaluationHook(func(Corridor) { atomic.AddInt64(&n, 1) }))
	_, err := a.Analyze(context.Background(), starNetwork(t), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
}

func TestAnalyze_FailedCandidateIsDropped(t *testing.T) {
	a := NewAnalyzer(WithEvaluationHook(func(c Corridor) {
		if c.Target == "D3" {
			panic("hook failure")
		}
	}))
	corridors, err := a.Analyze(context.Background(), starNetwork(t), 0)
	require.NoError(t, err)

	all, err := NewAnalyzer().Analyze(context.Background(), starNetwork(t), 0)
	require.NoError(t, err)

	dropped := 0
	for _, c := range all {
		if c.Target == "D3" {
			dropped++
		}
	}
	require.Greater(t, dropped, 0)
	assert.Len(t, corridors, len(all)-dropped)
	for _, c := range corridors {
		assert.NotEmpty(t, c.Source)
		assert.NotEqual(t, "D3", c.Target)
	}
}

func TestSort_TieBreak(t *testing.T) {
	corridors := []Corridor{
		{Source: "B", Target: "X", Description: "B → X", Criticality: 0.5},
		{Source: "A", Target: "Y", Description: "A → Y", Criticality: 0.5},
		{Source: "A", Target: "X", Description: "A → X", Criticality: 0.5},
		{Source: "C", Target: "X", Description: "C → X", Criticality: 0.9},
	}
	Sort(corridors)
	var got []string
	for _, c := range corridors {
		got = append(got, c.Description)
	}
	assert.Equal(t, []string{"C → X", "A → X", "A → Y", "B → X"}, got)
}

func TestAssess(t *testing.T) {
	g := network.KenyaReference()
	a := NewAnalyzer()

	assessment, err := a.Assess(context.Background(), g)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(assessment.CriticalPaths), AssessmentCorridors)
	assert.GreaterOrEqual(t, assessment.OverallScore, 0.0)
	assert.LessOrEqual(t, assessment.OverallScore, 1.0)
	assert.Equal(t, 18, assessment.Baseline.Nodes)

	medium := 0
	for _, r := range assessment.Recommendations {
		if r.Priority == resilience.PriorityMedium {
			medium++
		}
	}
	assert.Equal(t, min(3, len(assessment.CriticalPaths)), medium)
	assert.Nil(t, assessment.Disruption)

	report := resilience.Report{ResilienceScore: 0.3}
	withScenario, err := a.AssessScenario(context.Background(), g, report)
	require.NoError(t, err)
	require.NotNil(t, withScenario.Disruption)
	assert.Equal(t, 0.3, withScenario.OverallScore)
	assert.Equal(t, resilience.PriorityHigh, withScenario.Recommendations[0].Priority)
}
