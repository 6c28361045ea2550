package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-resilience/pkg/disruption"
	"github.com/dd0wney/cluso-resilience/pkg/engine"
	"github.com/dd0wney/cluso-resilience/pkg/network"
)

// ScenarioCmd evaluates one disruption scenario.
type ScenarioCmd struct {
	app      *app
	lat      float64
	lon      float64
	severity float64
	duration int
	spread   float64
	refresh  bool
}

func newScenarioCmd(a *app) *cobra.Command {
	sc := &ScenarioCmd{app: a}
	cmd := &cobra.Command{
		Use:   "scenario <archetype>",
		Short: "Generate, propagate and score a disruption scenario",
		Long: "Generate a disruption of the given archetype (" + archetypeList() + "), " +
			"apply it to the network and print the resilience report. Reports are " +
			"served from the cache or store when the same request was evaluated before.",
		Args: cobra.ExactArgs(1),
		RunE: sc.run,
	}
	f := cmd.Flags()
	f.Float64Var(&sc.lat, "lat", 0, "Epicenter latitude (requires --lon)")
	f.Float64Var(&sc.lon, "lon", 0, "Epicenter longitude (requires --lat)")
	f.Float64Var(&sc.severity, "severity", 0, "Severity override in [0, 1]")
	f.IntVar(&sc.duration, "duration", 0, "Duration override in days")
	f.Float64Var(&sc.spread, "spread", 0, "Geographic spread override in [0, 1]")
	f.BoolVar(&sc.refresh, "refresh", false, "Recompute even when a report exists")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	return cmd
}

func (sc *ScenarioCmd) request(cmd *cobra.Command, archetype string) (engine.EvaluateRequest, error) {
	at, err := disruption.ParseArchetype(archetype)
	if err != nil {
		return engine.EvaluateRequest{}, err
	}
	req := engine.EvaluateRequest{Request: disruption.Request{Archetype: at}, Refresh: sc.refresh}
	f := cmd.Flags()
	if f.Changed("lat") {
		req.Epicenter = &network.Location{Lat: sc.lat, Lon: sc.lon}
	}
	if f.Changed("severity") {
		req.Overrides.Severity = &sc.severity
	}
	if f.Changed("duration") {
		req.Overrides.DurationDays = &sc.duration
	}
	if f.Changed("spread") {
		req.Overrides.GeographicSpread = &sc.spread
	}
	return req, nil
}

func (sc *ScenarioCmd) run(cmd *cobra.Command, args []string) error {
	req, err := sc.request(cmd, args[0])
	if err != nil {
		return err
	}
	eng, err := sc.app.engine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	ev, err := eng.Evaluate(cmd.Context(), req)
	if err != nil {
		return err
	}
	return sc.app.emit(cmd.OutOrStdout(), ev, func(w io.Writer) {
		renderEvaluation(w, ev)
	})
}

func renderEvaluation(w io.Writer, ev engine.Evaluation) {
	if s := ev.Scenario; s != nil {
		writeln(w, panel("Scenario "+s.ID,
			kv("Archetype", "%s", s.Archetype),
			kv("Epicenter", "%s", s.Epicenter),
			kv("Severity", "%.3f", s.Severity),
			kv("Duration", "%d days", s.DurationDays),
			kv("Geographic spread", "%.3f", s.GeographicSpread),
			kv("Affected nodes", "%d", len(s.AffectedNodes)),
			kv("Affected routes", "%d", len(s.AffectedRoutes)),
		))
	}
	renderReport(w, ev.Report)
	writeln(w, labelStyle.Render("Source")+valueStyle.Render(ev.Source))
}

func archetypeList() string {
	names := make([]string, 0, len(disruption.Archetypes()))
	for _, a := range disruption.Archetypes() {
		names = append(names, string(a))
	}
	return strings.Join(names, ", ")
}
