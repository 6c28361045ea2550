package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-resilience/pkg/resilience"
)

// AssessCmd prints a network-level resilience assessment.
type AssessCmd struct {
	scenario ScenarioCmd
}

func newAssessCmd(a *app) *cobra.Command {
	ac := &AssessCmd{scenario: ScenarioCmd{app: a}}
	cmd := &cobra.Command{
		Use:   "assess [archetype]",
		Short: "Assess the network, optionally under a disruption scenario",
		Long: "Assess ranks the critical corridors and recommends mitigations. With an " +
			"archetype the overall score is taken from that scenario's report.",
		Args: cobra.MaximumNArgs(1),
		RunE: ac.run,
	}
	f := cmd.Flags()
	f.Float64Var(&ac.scenario.lat, "lat", 0, "Epicenter latitude (requires --lon)")
	f.Float64Var(&ac.scenario.lon, "lon", 0, "Epicenter longitude (requires --lat)")
	f.Float64Var(&ac.scenario.severity, "severity", 0, "Severity override in [0, 1]")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	return cmd
}

func (ac *AssessCmd) run(cmd *cobra.Command, args []string) error {
	a := ac.scenario.app
	eng, err := a.engine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	var assessment resilience.Assessment
	if len(args) == 0 {
		assessment, err = eng.Assess(cmd.Context())
	} else {
		req, rerr := ac.scenario.request(cmd, args[0])
		if rerr != nil {
			return rerr
		}
		ev, eerr := eng.Evaluate(cmd.Context(), req)
		if eerr != nil {
			return eerr
		}
		assessment, err = eng.AssessScenario(cmd.Context(), ev.Report)
	}
	if err != nil {
		return err
	}
	return a.emit(cmd.OutOrStdout(), assessment, func(w io.Writer) {
		renderAssessment(w, assessment)
	})
}
