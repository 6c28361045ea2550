// Package montecarlo drives repeated stochastic disruption arrivals over a
// planning horizon.
//
// Runs are independent and reproducible: each gets its own random source
// seeded from the batch seed and its index, so results do not depend on how
// runs are scheduled across workers.
package montecarlo

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/disruption"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/network"
	"github.com/dd0wney/cluso-resilience/pkg/parallel"
	"github.com/dd0wney/cluso-resilience/pkg/simerr"
)

// RunSummary condenses the history of one run.
type RunSummary struct {
	TotalDisruptions  int                          `json:"total_disruptions"`
	AverageSeverity   float64                      `json:"avg_severity"`
	MaxSeverity       float64                      `json:"max_severity"`
	TotalDurationDays int                          `json:"total_duration"`
	ArchetypeCounts   map[disruption.Archetype]int `json:"disruption_types"`
	PeakConcurrent    int                          `json:"peak_concurrent"`
}

// RunResult is the history and summary of one run. A failed run keeps
// whatever history it produced before the failure.
type RunResult struct {
	Index       int                   `json:"index"`
	ID          string                `json:"scenario_id"`
	Disruptions []disruption.Scenario `json:"disruptions"`
	Summary     RunSummary            `json:"metrics"`
	Failed      bool                  `json:"failed,omitempty"`
	Err         string                `json:"error,omitempty"`
}

// Result holds every completed run ordered by index.
type Result struct {
	Runs    []RunResult   `json:"runs"`
	Seed    int64         `json:"seed"`
	Epoch   time.Time     `json:"epoch"`
	Elapsed time.Duration `json:"elapsed"`
}

// Failed returns the number of failed runs.
func (r *Result) Failed() int {
	n := 0
	for _, run := range r.Runs {
		if run.Failed {
			n++
		}
	}
	return n
}

// ScenarioHook observes every sampled disruption. A returned error fails
// the run.
type ScenarioHook func(run int, s disruption.Scenario) error

// Option configures a Simulator.
type Option func(*Simulator)

// WithLimits sets the batch size bounds.
func WithLimits(l Limits) Option {
	return func(s *Simulator) { s.limits = l }
}

// WithWorkers sets the number of concurrent runs.
func WithWorkers(n int) Option {
	return func(s *Simulator) { s.workers = n }
}

// WithClock sets the time source that fixes the batch epoch.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Simulator) { s.logger = logging.OrNop(l) }
}

// WithScenarioHook registers a hook called for every sampled disruption.
func WithScenarioHook(h ScenarioHook) Option {
	return func(s *Simulator) { s.hook = h }
}

// Simulator runs Monte Carlo batches. It is safe for concurrent use.
type Simulator struct {
	limits  Limits
	workers int
	now     func() time.Time
	logger  logging.Logger
	hook    ScenarioHook
}

// NewSimulator creates a simulator with default limits.
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		limits:  DefaultLimits(),
		workers: parallel.DefaultWorkers(),
		now:     time.Now,
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes cfg.Runs independent runs against g. Size limits are checked
// before anything runs. When ctx is cancelled the runs completed so far are
// returned together with ctx.Err().
func (s *Simulator) Run(ctx context.Context, g *network.Graph, cfg Config) (*Result, error) {
	if g == nil {
		return nil, simerr.Validation("monte carlo").Context("nil graph").Cause(simerr.ErrInvalidArgument).Err()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.limits.Check(cfg, g.NodeCount()); err != nil {
		return nil, err
	}

	seed := time.Now().UnixNano()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	epoch := s.now()
	start := time.Now()

	log := s.logger.With(logging.Int64("seed", seed))
	log.Info("monte carlo started",
		logging.Int("runs", cfg.Runs),
		logging.Int("horizon_days", cfg.HorizonDays),
		logging.Float64("daily_probability", cfg.DailyProbability),
	)

	runs := make([]RunResult, cfg.Runs)
	done := make([]bool, cfg.Runs)
	var mu sync.Mutex

	err := parallel.Map(ctx, s.workers, cfg.Runs, func(i int) {
		if ctx.Err() != nil {
			return
		}
		r := s.runOne(g, cfg, seed, epoch, i)
		if r.Failed {
			log.Warn("monte carlo run failed", logging.Run(i), logging.String("error", r.Err))
		}
		mu.Lock()
		runs[i], done[i] = r, true
		mu.Unlock()
	}, parallel.WithLogger(log))

	result := &Result{Seed: seed, Epoch: epoch}
	for i := range runs {
		if done[i] {
			result.Runs = append(result.Runs, runs[i])
		}
	}
	result.Elapsed = time.Since(start)

	if err != nil {
		log.Warn("monte carlo cancelled",
			logging.Int("completed", len(result.Runs)),
			logging.Error(err),
		)
		return result, err
	}
	log.Info("monte carlo finished",
		logging.Int("failed", result.Failed()),
		logging.Latency(result.Elapsed),
	)
	return result, nil
}

// runOne simulates a single run. Panics are confined to the run.
func (s *Simulator) runOne(g *network.Graph, cfg Config, seed int64, epoch time.Time, index int) (result RunResult) {
	result = RunResult{
		Index:       index,
		ID:          fmt.Sprintf("montecarlo_%d_%d", epoch.Unix(), index),
		Disruptions: []disruption.Scenario{},
	}
	peak := 0

	defer func() {
		if r := recover(); r != nil {
			result.Failed = true
			result.Err = fmt.Sprintf("panic: %v", r)
		}
		result.Summary = Summarize(result.Disruptions, peak)
	}()

	gen := disruption.NewGenerator(
		disruption.WithRand(rand.New(rand.NewSource(seed+int64(index)))),
		disruption.WithClock(func() time.Time { return epoch }),
	)

	var active []disruption.Scenario
	for day := 0; day < cfg.HorizonDays; day++ {
		if gen.Float64() < cfg.DailyProbability {
			dayStart := epoch.Add(time.Duration(day) * disruption.Day)
			sc, err := gen.GenerateAt(g, disruption.Request{Archetype: gen.RandomArchetype()}, dayStart)
			if err == nil && s.hook != nil {
				err = s.hook(index, sc)
			}
			if err != nil {
				result.Failed = true
				result.Err = err.Error()
				return result
			}
			active = append(active, sc)
			result.Disruptions = append(result.Disruptions, sc)
		}
		if len(active) > peak {
			peak = len(active)
		}

		next := epoch.Add(time.Duration(day+1) * disruption.Day)
		kept := active[:0]
		for _, sc := range active {
			if sc.EndTime.After(next) {
				kept = append(kept, sc)
			}
		}
		active = kept
	}
	return result
}

// Summarize computes the run summary of a disruption history.
func Summarize(history []disruption.Scenario, peakConcurrent int) RunSummary {
	sum := RunSummary{
		TotalDisruptions: len(history),
		ArchetypeCounts:  make(map[disruption.Archetype]int),
		PeakConcurrent:   peakConcurrent,
	}
	for _, a := range disruption.Archetypes() {
		sum.ArchetypeCounts[a] = 0
	}

	total := 0.0
	for _, sc := range history {
		total += sc.Severity
		if sc.Severity > sum.MaxSeverity {
			sum.MaxSeverity = sc.Severity
		}
		sum.TotalDurationDays += sc.DurationDays
		sum.ArchetypeCounts[sc.Archetype]++
	}
	if len(history) > 0 {
		sum.AverageSeverity = total / float64(len(history))
	}
	return sum
}
