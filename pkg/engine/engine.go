// Package engine is the composition root: it builds every component from a
// config.Config and exposes the simulation operations over one network.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/cache"
	"github.com/dd0wney/cluso-resilience/pkg/config"
	"github.com/dd0wney/cluso-resilience/pkg/critical"
	"github.com/dd0wney/cluso-resilience/pkg/disruption"
	"github.com/dd0wney/cluso-resilience/pkg/health"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/metrics"
	"github.com/dd0wney/cluso-resilience/pkg/montecarlo"
	"github.com/dd0wney/cluso-resilience/pkg/network"
	"github.com/dd0wney/cluso-resilience/pkg/parallel"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
	"github.com/dd0wney/cluso-resilience/pkg/simerr"
	"github.com/dd0wney/cluso-resilience/pkg/store"
	"github.com/dd0wney/cluso-resilience/pkg/store/s3archive"
	"github.com/dd0wney/cluso-resilience/pkg/store/sqlstore"
)

// ErrNoArchive is returned by ArchiveReports when no archive is configured.
var ErrNoArchive = errors.New("no report archive configured")

// Engine runs disruption analyses against one network. The network is
// treated as read-only for the engine's lifetime. An Engine is safe for
// concurrent use.
type Engine struct {
	cfg      *config.Config
	graph    *network.Graph
	baseline *resilience.Baseline
	logger   logging.Logger
	metrics  *metrics.Registry

	genMu      sync.Mutex // guards generator
	generator  *disruption.Generator
	propagator *disruption.Propagator
	scorer     *resilience.Scorer
	analyzer   *critical.Analyzer
	simulator  *montecarlo.Simulator

	cache   *cache.ReportCache // nil when disabled
	store   store.ReportStore
	archive *s3archive.Archive // nil when disabled
	health  *health.Checker

	closeOnce sync.Once
	closeErr  error
}

// New builds an engine over g from cfg. A nil cfg uses config.Default().
func New(ctx context.Context, cfg *config.Config, g *network.Graph, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if g == nil {
		return nil, simerr.Validation("new engine").Context("nil network").Cause(simerr.ErrInvalidArgument).Err()
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrNop(o.logger).With(logging.Component("engine"))
	reg := o.registry
	if reg == nil {
		reg = metrics.NewRegistry()
	}

	workers := cfg.Simulation.Workers
	if workers <= 0 {
		workers = parallel.DefaultWorkers()
	}

	e := &Engine{
		cfg:     cfg,
		graph:   g,
		logger:  logger,
		metrics: reg,
	}

	genOpts := []disruption.GeneratorOption{
		disruption.WithClock(o.now),
		disruption.WithGeneratorLogger(logger),
	}
	// The configured Monte Carlo seed also seeds scenario generation unless
	// an explicit seed was given.
	seed := o.seed
	if seed == nil {
		seed = cfg.Simulation.MonteCarlo.Seed
	}
	if seed != nil {
		genOpts = append(genOpts, disruption.WithSeed(*seed))
	}
	e.generator = disruption.NewGenerator(genOpts...)
	e.propagator = disruption.NewPropagator(
		disruption.WithPolicy(cfg.Propagation),
		disruption.WithPropagatorLogger(logger),
	)
	e.scorer = resilience.NewScorer(
		resilience.WithWeights(cfg.Scoring.Weights),
		resilience.WithRecoveryPolicy(cfg.Scoring.Recovery),
		resilience.WithLogger(logger),
		resilience.WithClock(o.now),
	)
	e.analyzer = critical.NewAnalyzer(
		critical.WithMaxHops(cfg.Simulation.MaxHops),
		critical.WithThreshold(cfg.Simulation.Threshold),
		critical.WithWorkers(workers),
		critical.WithScorer(e.scorer),
		critical.WithLogger(logger),
		critical.WithEvaluationHook(func(critical.Corridor) {
			reg.RecordCriticalPathEvaluation()
		}),
	)
	e.simulator = montecarlo.NewSimulator(
		montecarlo.WithLimits(cfg.Simulation.Limits),
		montecarlo.WithWorkers(workers),
		montecarlo.WithClock(o.now),
		montecarlo.WithLogger(logger),
		montecarlo.WithScenarioHook(func(_ int, s disruption.Scenario) error {
			reg.RecordDisruptionSampled(string(s.Archetype))
			return nil
		}),
	)

	if cfg.Cache.Enabled {
		e.cache = cache.New(cfg.Cache.Size, cfg.Cache.TTL,
			cache.WithObserver(reg),
			cache.WithLogger(logger))
	}

	s := o.store
	ownsStore := s == nil
	if ownsStore {
		var err error
		if s, err = openStore(ctx, cfg.Store, logger); err != nil {
			return nil, err
		}
	}
	e.store = store.Instrument(s, reg)

	e.archive = o.archive
	if e.archive == nil && cfg.Archive.Enabled {
		a, err := s3archive.New(ctx, s3archive.Config{
			Bucket:          cfg.Archive.Bucket,
			Prefix:          cfg.Archive.Prefix,
			Region:          cfg.Archive.Region,
			Endpoint:        cfg.Archive.Endpoint,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
			UsePathStyle:    cfg.Archive.UsePathStyle,
			Concurrency:     cfg.Archive.Concurrency,
		}, s3archive.WithLogger(logger))
		if err != nil {
			// an injected store is only handed over once New succeeds
			if ownsStore {
				_ = s.Close()
			}
			return nil, err
		}
		e.archive = a
	}

	timer := logging.StartTimer(logger, "baseline measured",
		logging.Int("nodes", g.NodeCount()),
		logging.Int("routes", g.RouteCount()))
	e.baseline = resilience.NewBaseline(g)
	timer.End()
	reg.SetNetworkSize(g.NodeCount(), g.RouteCount())
	e.registerHealthChecks()

	logger.Info("engine ready",
		logging.String("store", cfg.Store.Driver),
		logging.Bool("cache", e.cache != nil),
		logging.Bool("archive", e.archive != nil),
		logging.Int("workers", workers))
	return e, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger logging.Logger) (store.ReportStore, error) {
	switch cfg.Driver {
	case config.StoreMemory, "":
		return store.NewMemory(), nil
	case config.StoreFile:
		return store.NewFile(cfg.DSN)
	case config.StoreSQLite, config.StorePgx:
		return sqlstore.Open(ctx, cfg.Driver, cfg.DSN, sqlstore.WithLogger(logger))
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
}

func (e *Engine) registerHealthChecks() {
	e.health = health.NewChecker()
	e.health.Register("network", health.NetworkCheck(e.Baseline))
	e.health.Register("store", health.PingCheck("store", e.store.Ping))
	if e.archive != nil {
		e.health.Register("archive", health.PingCheck("archive", e.archive.Ping))
	}
	e.health.Register("memory", health.MemoryCheck(func() (uint64, uint64) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return m.Alloc, m.Sys
	}))
}

// Health runs the engine's health checks: the network structure, the store,
// the archive when configured and memory use.
func (e *Engine) Health(ctx context.Context) health.Response {
	return e.health.Check(ctx)
}

// Network returns the engine's network.
func (e *Engine) Network() *network.Graph { return e.graph }

// Baseline returns the measured metrics of the undisrupted network.
func (e *Engine) Baseline() resilience.Metrics { return e.baseline.Metrics }

// Metrics returns the engine's metrics registry.
func (e *Engine) Metrics() *metrics.Registry { return e.metrics }

// Config returns the engine's configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

func (e *Engine) fail(op string, err error) error {
	kind := "internal"
	if k, ok := simerr.KindOf(err); ok {
		kind = k.String()
	}
	e.metrics.RecordError(op, kind)
	return err
}

// GenerateScenario samples a scenario from the archetype catalogue.
func (e *Engine) GenerateScenario(req disruption.Request) (disruption.Scenario, error) {
	e.genMu.Lock()
	s, err := e.generator.Generate(e.graph, req)
	e.genMu.Unlock()
	if err != nil {
		return disruption.Scenario{}, e.fail("generate", err)
	}
	e.metrics.RecordScenarioGenerated(string(s.Archetype))
	return s, nil
}

// Propagate applies s to a copy of the network.
func (e *Engine) Propagate(s disruption.Scenario) (disruption.Result, error) {
	start := time.Now()
	res, err := e.propagator.Apply(e.graph, s)
	if err != nil {
		return disruption.Result{}, e.fail("propagate", err)
	}
	e.metrics.RecordPropagation(time.Since(start), len(res.AffectedNodes), len(res.AffectedRoutes))
	return res, nil
}

// Score compares a disrupted network against a baseline.
func (e *Engine) Score(baseline, disrupted *network.Graph) resilience.Report {
	start := time.Now()
	report := e.scorer.Score(baseline, disrupted)
	e.metrics.RecordScore(report.ResilienceScore, time.Since(start))
	return report
}

// ScoreResult scores a propagated scenario against the engine's baseline.
func (e *Engine) ScoreResult(res disruption.Result) resilience.Report {
	start := time.Now()
	report := e.scorer.ScoreAgainst(e.baseline, res.Graph)
	report.ScenarioType = string(res.Scenario.Archetype)
	report.ScenarioID = res.Scenario.ID
	report.Fingerprint = resilience.Fingerprint(report.ScenarioType, res.Scenario.Params())
	e.metrics.RecordScore(report.ResilienceScore, time.Since(start))
	return report
}

// CriticalPaths returns the topK most critical corridors; topK <= 0
// returns all of them.
func (e *Engine) CriticalPaths(ctx context.Context, topK int) ([]critical.Corridor, error) {
	start := time.Now()
	corridors, err := e.analyzer.Analyze(ctx, e.graph, topK)
	e.metrics.RecordCriticalPaths(time.Since(start))
	if err != nil {
		return corridors, e.fail("critical_paths", err)
	}
	return corridors, nil
}

// MonteCarloDefaults returns the configured batch parameters.
func (e *Engine) MonteCarloDefaults() montecarlo.Config {
	return e.cfg.Simulation.MonteCarlo
}

// MonteCarlo runs a batch. On cancellation the completed runs are
// returned with the context error.
func (e *Engine) MonteCarlo(ctx context.Context, cfg montecarlo.Config) (*montecarlo.Result, error) {
	res, err := e.simulator.Run(ctx, e.graph, cfg)
	if res != nil {
		failed := res.Failed()
		e.metrics.RecordMonteCarlo(len(res.Runs)-failed, failed, res.Elapsed)
	}
	if err != nil {
		return res, e.fail("monte_carlo", err)
	}
	return res, nil
}

// Assess builds a resilience assessment of the network.
func (e *Engine) Assess(ctx context.Context) (resilience.Assessment, error) {
	a, err := e.analyzer.Assess(ctx, e.graph)
	if err != nil {
		return a, e.fail("assess", err)
	}
	return a, nil
}

// AssessScenario is Assess with the overall score taken from report.
func (e *Engine) AssessScenario(ctx context.Context, report resilience.Report) (resilience.Assessment, error) {
	a, err := e.analyzer.AssessScenario(ctx, e.graph, report)
	if err != nil {
		return a, e.fail("assess", err)
	}
	return a, nil
}

// Close releases the store and writes the metrics textfile when one is
// configured. It is safe to call more than once.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		var errs []error
		if e.cache != nil {
			e.cache.Purge()
		}
		if err := e.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
		if path := e.cfg.Metrics.TextfilePath; path != "" {
			if err := e.metrics.WriteTextfile(path); err != nil {
				errs = append(errs, fmt.Errorf("write metrics: %w", err))
			}
		}
		e.closeErr = errors.Join(errs...)
		e.logger.Debug("engine closed")
	})
	return e.closeErr
}
