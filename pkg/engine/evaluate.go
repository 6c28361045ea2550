package engine

import (
	"context"

	"github.com/dd0wney/cluso-resilience/pkg/disruption"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/network"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
	"github.com/dd0wney/cluso-resilience/pkg/simerr"
)

// Report sources
const (
	SourceComputed = "computed"
	SourceCache    = "cache"
	SourceStore    = "store"
)

// EvaluateRequest asks for the report of a scenario request.
type EvaluateRequest struct {
	disruption.Request
	// Refresh recomputes even when a report is cached or stored.
	Refresh bool `json:"refresh,omitempty"`
}

// Fingerprint is the key the evaluation is cached and stored under.
func (r EvaluateRequest) Fingerprint() string {
	return resilience.Fingerprint(string(r.Archetype), r.Params())
}

// Evaluation is a report together with where it came from.
type Evaluation struct {
	Report resilience.Report `json:"report"`
	Source string            `json:"source"`
	// Scenario is set when this call generated the report.
	Scenario *disruption.Scenario `json:"scenario,omitempty"`
}

// Evaluate returns the report for req, looking in the cache, then the
// store, and otherwise generating, propagating and scoring a scenario. A
// computed report is saved to the store and, when configured, the archive.
// Concurrent evaluations of one fingerprint compute once.
func (e *Engine) Evaluate(ctx context.Context, req EvaluateRequest) (Evaluation, error) {
	if _, err := disruption.ParseArchetype(string(req.Archetype)); err != nil {
		return Evaluation{}, e.fail("evaluate", err)
	}
	fp := req.Fingerprint()
	log := e.logger.With(logging.Fingerprint(fp), logging.Archetype(string(req.Archetype)))

	// source stays empty when this call joined another caller's flight
	// instead of running compute itself.
	var (
		source   string
		scenario *disruption.Scenario
	)
	compute := func(ctx context.Context) (resilience.Report, error) {
		if !req.Refresh {
			report, err := e.store.Get(ctx, fp)
			if err == nil {
				source = SourceStore
				return report, nil
			}
			if !simerr.IsNotFound(err) {
				return resilience.Report{}, err
			}
		}
		report, s, err := e.compute(ctx, req.Request, fp)
		if err != nil {
			return resilience.Report{}, err
		}
		source = SourceComputed
		scenario = &s
		return report, nil
	}

	var (
		report resilience.Report
		err    error
	)
	if e.cache == nil {
		report, err = compute(ctx)
	} else {
		if req.Refresh {
			e.cache.Remove(fp)
		}
		var hit bool
		report, hit, err = e.cache.GetOrCompute(ctx, fp, compute)
		if err != nil {
			return Evaluation{}, e.fail("evaluate", err)
		}
		if hit || source == "" {
			source = SourceCache
		}
	}
	if err != nil {
		return Evaluation{}, e.fail("evaluate", err)
	}

	log.Debug("evaluation served", logging.String("source", source))
	return Evaluation{Report: report, Source: source, Scenario: scenario}, nil
}

func (e *Engine) compute(ctx context.Context, req disruption.Request, fp string) (resilience.Report, disruption.Scenario, error) {
	s, err := e.GenerateScenario(req)
	if err != nil {
		return resilience.Report{}, s, err
	}
	res, err := e.Propagate(s)
	if err != nil {
		return resilience.Report{}, s, err
	}
	report := e.ScoreResult(res)
	report.Fingerprint = fp

	if err := e.store.Save(ctx, report); err != nil {
		return resilience.Report{}, s, err
	}
	if e.archive != nil {
		// The store is authoritative; a failed upload is retried by ArchiveReports.
		if err := e.archive.Put(ctx, report); err != nil {
			e.logger.Warn("archive upload failed", logging.Fingerprint(fp), logging.Error(err))
		}
	}
	return report, s, nil
}

// Named locations used by CommonScenarios.
var (
	Nairobi = network.Location{Lat: -1.2921, Lon: 36.8219}
	Mombasa = network.Location{Lat: -4.0435, Lon: 39.6682}
)

// CommonScenarios returns the requests Precompute warms.
func CommonScenarios() []EvaluateRequest {
	sev := func(v float64) *float64 { return &v }
	loc := func(l network.Location) *network.Location { return &l }
	return []EvaluateRequest{
		{Request: disruption.Request{
			Archetype: disruption.Pandemic,
			Overrides: disruption.Overrides{Severity: sev(0.5)},
		}},
		{Request: disruption.Request{
			Archetype: disruption.NaturalDisaster,
			Epicenter: loc(Nairobi),
			Overrides: disruption.Overrides{Severity: sev(0.7)},
		}},
		{Request: disruption.Request{
			Archetype: disruption.NaturalDisaster,
			Epicenter: loc(Mombasa),
			Overrides: disruption.Overrides{Severity: sev(0.7)},
		}},
		{Request: disruption.Request{
			Archetype: disruption.InfrastructureFailure,
			Overrides: disruption.Overrides{Severity: sev(0.8)},
		}},
	}
}

// Precompute evaluates CommonScenarios so later requests are served from
// the cache or store.
func (e *Engine) Precompute(ctx context.Context) ([]Evaluation, error) {
	timer := logging.StartTimer(e.logger, "common scenarios precomputed")
	out := make([]Evaluation, 0, 4)
	for _, req := range CommonScenarios() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		ev, err := e.Evaluate(ctx, req)
		if err != nil {
			timer.EndError(err)
			return out, err
		}
		out = append(out, ev)
	}
	timer.EndWithLevel(logging.InfoLevel, "common scenarios precomputed")
	return out, nil
}

// Report returns a stored report.
func (e *Engine) Report(ctx context.Context, fingerprint string) (resilience.Report, error) {
	return e.store.Get(ctx, fingerprint)
}

// Reports lists the stored reports ordered by fingerprint.
func (e *Engine) Reports(ctx context.Context) ([]resilience.Report, error) {
	return e.store.List(ctx)
}

// ArchiveReports uploads every stored report to the archive and returns
// how many were uploaded.
func (e *Engine) ArchiveReports(ctx context.Context) (int, error) {
	if e.archive == nil {
		return 0, ErrNoArchive
	}
	reports, err := e.store.List(ctx)
	if err != nil {
		return 0, err
	}
	if err := e.archive.ArchiveAll(ctx, reports); err != nil {
		return 0, e.fail("archive", err)
	}
	return len(reports), nil
}
