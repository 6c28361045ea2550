// Package critical ranks supply corridors by how much the network's
// resilience would suffer if the corridor were cut.
package critical

import (
	"context"
	"sort"
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/network"
	"github.com/dd0wney/cluso-resilience/pkg/parallel"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
	"github.com/dd0wney/cluso-resilience/pkg/simerr"
)

// DefaultMaxHops bounds candidate path length.
const DefaultMaxHops = 4

// AssessmentCorridors is the number of corridors an assessment reports.
const AssessmentCorridors = 5

// Corridor is a facility-to-demand path and the effect of cutting it.
type Corridor struct {
	Source      string            `json:"source"`
	Target      string            `json:"target"`
	Nodes       []string          `json:"path"`
	Routes      []string          `json:"routes"`
	Hops        int               `json:"hops"`
	Description string            `json:"path_description"`
	Criticality float64           `json:"criticality"`
	Report      resilience.Report `json:"impact"`
}

// Summary returns the assessment view of the corridor.
func (c Corridor) Summary() resilience.CorridorSummary {
	return resilience.CorridorSummary{
		Source:      c.Source,
		Target:      c.Target,
		Nodes:       append([]string(nil), c.Nodes...),
		Description: c.Description,
		Criticality: c.Criticality,
	}
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMaxHops sets the candidate path length bound.
func WithMaxHops(n int) Option {
	return func(a *Analyzer) { a.maxHops = n }
}

// WithThreshold keeps only corridors whose cut scores at most 1 - t.
func WithThreshold(t float64) Option {
	return func(a *Analyzer) { a.threshold = t }
}

// WithWorkers sets the number of goroutines scoring candidates.
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

// WithScorer sets the scorer used for every candidate.
func WithScorer(s *resilience.Scorer) Option {
	return func(a *Analyzer) { a.scorer = s }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(a *Analyzer) { a.logger = logging.OrNop(l) }
}

// WithEvaluationHook is called once per scored candidate, from worker
// goroutines. A candidate whose hook panics is left out of the ranking.
func WithEvaluationHook(fn func(Corridor)) Option {
	return func(a *Analyzer) { a.onEvaluated = fn }
}

// Analyzer enumerates and scores corridors. It is safe for concurrent use.
type Analyzer struct {
	maxHops     int
	threshold   float64
	workers     int
	scorer      *resilience.Scorer
	logger      logging.Logger
	onEvaluated func(Corridor)
	now         func() time.Time
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		maxHops: DefaultMaxHops,
		workers: parallel.DefaultWorkers(),
		logger:  logging.NewNopLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.scorer == nil {
		a.scorer = resilience.NewScorer(resilience.WithLogger(a.logger))
	}
	return a
}

// Candidates returns the hop-shortest path of every (facility, demand point)
// pair with 1 to maxHops hops, in sorted pair order.
func (a *Analyzer) Candidates(g *network.Graph) []algorithms.PathResult {
	return algorithms.BoundedShortestPaths(g, g.FacilityIDs(), g.DemandPointIDs(), a.maxHops)
}

// Analyze scores the cut of every candidate corridor and returns them most
// critical first. topK <= 0 returns all of them.
func (a *Analyzer) Analyze(ctx context.Context, g *network.Graph, topK int) ([]Corridor, error) {
	if g == nil {
		return nil, simerr.Validation("critical paths").Context("nil graph").Cause(simerr.ErrInvalidArgument).Err()
	}

	timer := logging.StartTimer(a.logger, "critical path analysis")
	base := resilience.NewBaseline(g)
	candidates := a.Candidates(g)
	results := make([]Corridor, len(candidates))
	// evaluated[i] stays false when candidate i panicked; the pool
	// recovers and its zero Corridor must not be ranked.
	evaluated := make([]bool, len(candidates))

	err := parallel.Map(ctx, a.workers, len(candidates), func(i int) {
		c := a.evaluate(g, base, candidates[i])
		if a.onEvaluated != nil {
			a.onEvaluated(c)
		}
		results[i] = c
		evaluated[i] = true
	}, parallel.WithLogger(a.logger))
	if err != nil {
		timer.EndError(err)
		return nil, err
	}

	corridors := make([]Corridor, 0, len(results))
	failed := 0
	for i, c := range results {
		if !evaluated[i] {
			failed++
			continue
		}
		if c.Report.ResilienceScore <= 1-a.threshold {
			corridors = append(corridors, c)
		}
	}
	if failed > 0 {
		a.logger.Warn("critical path candidates failed",
			logging.Int("failed", failed),
			logging.Int("candidates", len(candidates)))
	}
	Sort(corridors)

	if topK > 0 && len(corridors) > topK {
		corridors = corridors[:topK]
	}

	timer.End()
	a.logger.Info("critical paths ranked",
		logging.Int("candidates", len(candidates)),
		logging.Int("returned", len(corridors)),
	)
	return corridors, nil
}

// evaluate cuts every route joining consecutive path nodes and scores the
// result.
func (a *Analyzer) evaluate(g *network.Graph, base *resilience.Baseline, path algorithms.PathResult) Corridor {
	cut := g.Clone()
	for i := 0; i+1 < len(path.Nodes); i++ {
		cut.RemoveRoutesBetween(path.Nodes[i], path.Nodes[i+1])
	}
	report := a.scorer.ScoreAgainst(base, cut)

	return Corridor{
		Source:      path.Nodes[0],
		Target:      path.Nodes[len(path.Nodes)-1],
		Nodes:       append([]string(nil), path.Nodes...),
		Routes:      append([]string(nil), path.Routes...),
		Hops:        path.Hops,
		Description: resilience.PathDescription(path.Nodes),
		Criticality: 1 - report.ResilienceScore,
		Report:      report,
	}
}

// Sort orders corridors by descending criticality, then source, target and
// description.
func Sort(corridors []Corridor) {
	sort.SliceStable(corridors, func(i, j int) bool {
		a, b := corridors[i], corridors[j]
		if a.Criticality != b.Criticality {
			return a.Criticality > b.Criticality
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Description < b.Description
	})
}

// Summaries converts corridors to their assessment view.
func Summaries(corridors []Corridor) []resilience.CorridorSummary {
	out := make([]resilience.CorridorSummary, len(corridors))
	for i, c := range corridors {
		out[i] = c.Summary()
	}
	return out
}

// Assess builds a resilience assessment from the most critical corridors.
// The overall score is one minus their mean criticality.
func (a *Analyzer) Assess(ctx context.Context, g *network.Graph) (resilience.Assessment, error) {
	corridors, err := a.Analyze(ctx, g, AssessmentCorridors)
	if err != nil {
		return resilience.Assessment{}, err
	}
	summaries := Summaries(corridors)
	return resilience.BuildAssessment(
		resilience.ComputeMetrics(g),
		resilience.OverallFromCorridors(summaries),
		summaries,
		a.now(),
	), nil
}

// AssessScenario is Assess with the overall score taken from a disruption
// report, which is attached to the assessment.
func (a *Analyzer) AssessScenario(ctx context.Context, g *network.Graph, report resilience.Report) (resilience.Assessment, error) {
	corridors, err := a.Analyze(ctx, g, AssessmentCorridors)
	if err != nil {
		return resilience.Assessment{}, err
	}
	assessment := resilience.BuildAssessment(
		resilience.ComputeMetrics(g),
		report.ResilienceScore,
		Summaries(corridors),
		a.now(),
	)
	assessment.Disruption = &report
	return assessment, nil
}
