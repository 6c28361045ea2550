package resilience

import (
	"math"
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/disruption"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/network"
)

// Report is the outcome of comparing a disrupted snapshot with its baseline.
// It shares no state with its inputs and is not modified once returned.
type Report struct {
	Fingerprint           string    `json:"fingerprint,omitempty"`
	ScenarioType          string    `json:"scenario_type,omitempty"`
	ScenarioID            string    `json:"scenario_id,omitempty"`
	Baseline              Metrics   `json:"baseline_metrics"`
	Disrupted             Metrics   `json:"disrupted_metrics"`
	Impact                Impact    `json:"impact"`
	ResilienceScore       float64   `json:"resilience_score"`
	EstimatedRecoveryDays float64   `json:"estimated_recovery_days"`
	GeneratedAt           time.Time `json:"generated_at"`
}

// Baseline is a measured reference snapshot. Scoring many disrupted
// variants of one network against a shared Baseline avoids re-measuring it.
type Baseline struct {
	Metrics Metrics
	hops    map[string]map[string]int
}

// NewBaseline measures g.
func NewBaseline(g *network.Graph) *Baseline {
	return &Baseline{
		Metrics: ComputeMetrics(g),
		hops:    algorithms.AllPairsHopLengths(g),
	}
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithWeights sets the score weights. Callers validate them first.
func WithWeights(w Weights) ScorerOption {
	return func(s *Scorer) { s.weights = w }
}

// WithRecoveryPolicy sets the recovery step function.
func WithRecoveryPolicy(p RecoveryPolicy) ScorerOption {
	return func(s *Scorer) { s.recovery = p }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) ScorerOption {
	return func(s *Scorer) { s.logger = logging.OrNop(l) }
}

// WithClock sets the time source for GeneratedAt.
func WithClock(now func() time.Time) ScorerOption {
	return func(s *Scorer) { s.now = now }
}

// Scorer turns baseline/disrupted pairs into Reports. It is safe for
// concurrent use.
type Scorer struct {
	weights  Weights
	recovery RecoveryPolicy
	logger   logging.Logger
	now      func() time.Time
}

// NewScorer creates a scorer with the canonical weights and recovery policy.
func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{
		weights:  DefaultWeights(),
		recovery: DefaultRecoveryPolicy(),
		logger:   logging.NewNopLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weights returns the score weights in use.
func (s *Scorer) Weights() Weights { return s.weights }

// Score compares disrupted against baseline.
func (s *Scorer) Score(baseline, disrupted *network.Graph) Report {
	return s.ScoreAgainst(NewBaseline(baseline), disrupted)
}

// ScoreScenario scores a propagated scenario and fingerprints the report by
// the scenario's archetype and parameters.
func (s *Scorer) ScoreScenario(baseline, disrupted *network.Graph, sc disruption.Scenario) Report {
	r := s.Score(baseline, disrupted)
	r.ScenarioType = string(sc.Archetype)
	r.ScenarioID = sc.ID
	r.Fingerprint = Fingerprint(r.ScenarioType, sc.Params())
	return r
}

// ScoreAgainst compares disrupted against a measured baseline.
func (s *Scorer) ScoreAgainst(base *Baseline, disrupted *network.Graph) Report {
	bm := base.Metrics
	dm := ComputeMetrics(disrupted)

	impact := Impact{Disconnected: dm.Disconnected}
	impact.AverageDegreeChange = s.relative("avg_degree", bm.AverageDegree, dm.AverageDegree, bm.DegreeDefined && dm.DegreeDefined)
	impact.TotalCapacityChange = s.relative("total_capacity", bm.TotalCapacity, dm.TotalCapacity, true)
	impact.TotalDemandChange = s.relative("total_demand", bm.TotalDemand, dm.TotalDemand, true)
	impact.SafetyStockChange = s.relative("total_safety_stock", bm.TotalSafetyStock, dm.TotalSafetyStock, true)

	pc, lost := pathChange(base.hops, disrupted)
	impact.AverageShortestPathChange = finite(pc)
	impact.LostPairs = lost

	impact.CapacityLoss = finite(math.Max(0, bm.TotalCapacity-dm.TotalCapacity))
	impact.CapacityLossPercent = CapacityLossPercent(bm.TotalCapacity, dm.TotalCapacity)

	days := 0.0
	if impact.CapacityLossPercent > 0 || impact.AverageShortestPathChange != 0 || impact.AverageDegreeChange < 0 {
		days = s.recovery.Days(impact.CapacityLossPercent)
	}

	return Report{
		Baseline:              bm,
		Disrupted:             dm,
		Impact:                impact,
		ResilienceScore:       s.composite(impact, days),
		EstimatedRecoveryDays: finite(days),
		GeneratedAt:           s.now(),
	}
}

// composite is clamp01(1 - weighted penalty), where each penalty term is
// itself bounded to [0, 1].
func (s *Scorer) composite(impact Impact, recoveryDays float64) float64 {
	pathTerm := math.Min(1, math.Abs(impact.AverageShortestPathChange))
	degreeTerm := math.Min(1, math.Max(0, -impact.AverageDegreeChange))
	recoveryTerm := 0.0
	if s.recovery.SevereDays > 0 {
		recoveryTerm = math.Min(1, recoveryDays/s.recovery.SevereDays)
	}

	penalty := s.weights.Capacity*impact.CapacityLossPercent +
		s.weights.Path*pathTerm +
		s.weights.Degree*degreeTerm +
		s.weights.Recovery*recoveryTerm
	return clamp01(1 - penalty)
}

// relative resolves an undefined ratio to 0.
func (s *Scorer) relative(metric string, baseline, current float64, defined bool) float64 {
	if !defined {
		s.logger.Debug("metric undefined, change resolved to 0", logging.String("metric", metric))
		return 0
	}
	v, err := RelativeChange(baseline, current)
	if err != nil {
		s.logger.Debug("relative change undefined, resolved to 0",
			logging.String("metric", metric),
			logging.Error(err),
		)
		return 0
	}
	return v
}
