package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-resilience/pkg/config"
	"github.com/dd0wney/cluso-resilience/pkg/critical"
)

// CriticalPathsCmd ranks the corridors whose loss hurts the network most.
type CriticalPathsCmd struct {
	app       *app
	top       int
	threshold float64
	maxHops   int
}

func newCriticalPathsCmd(a *app) *cobra.Command {
	cc := &CriticalPathsCmd{app: a}
	cmd := &cobra.Command{
		Use:     "critical-paths",
		Aliases: []string{"critical"},
		Short:   "Rank corridors by the damage their removal causes",
		Args:    cobra.NoArgs,
		RunE:    cc.run,
	}
	f := cmd.Flags()
	f.IntVar(&cc.top, "top", 5, "Number of corridors to report")
	f.Float64Var(&cc.threshold, "threshold", 0, "Minimum criticality to report")
	f.IntVar(&cc.maxHops, "max-hops", 0, "Longest corridor to consider (default from config)")
	return cmd
}

func (cc *CriticalPathsCmd) run(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	eng, err := cc.app.engine(cmd, func(cfg *config.Config) {
		if f.Changed("threshold") {
			cfg.Simulation.Threshold = cc.threshold
		}
		if f.Changed("max-hops") {
			cfg.Simulation.MaxHops = cc.maxHops
		}
	})
	if err != nil {
		return err
	}
	defer eng.Close()

	corridors, err := eng.CriticalPaths(cmd.Context(), cc.top)
	if err != nil {
		return err
	}
	return cc.app.emit(cmd.OutOrStdout(), corridors, func(w io.Writer) {
		renderCorridors(w, corridors)
	})
}

func renderCorridors(w io.Writer, corridors []critical.Corridor) {
	if len(corridors) == 0 {
		writeln(w, warnStyle.Render("no corridor above the threshold"))
		return
	}
	rows := make([][]string, 0, len(corridors))
	for i, c := range corridors {
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			c.Description,
			fmt.Sprint(c.Hops),
			fmt.Sprintf("%.3f", c.Criticality),
			fmt.Sprintf("%.3f", c.Report.ResilienceScore),
			fmt.Sprint(c.Report.Impact.LostPairs),
		})
	}
	writeln(w, grid([]string{"#", "Corridor", "Hops", "Criticality", "Score", "Lost pairs"}, rows))
}
