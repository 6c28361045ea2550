package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-resilience/pkg/disruption"
	"github.com/dd0wney/cluso-resilience/pkg/montecarlo"
)

// MonteCarloCmd samples disruption timelines over a planning horizon.
type MonteCarloCmd struct {
	app         *app
	runs        int
	horizon     int
	probability float64
	seed        int64
	showRuns    bool
}

func newMonteCarloCmd(a *app) *cobra.Command {
	mc := &MonteCarloCmd{app: a}
	cmd := &cobra.Command{
		Use:     "monte-carlo",
		Aliases: []string{"mc"},
		Short:   "Run a Monte Carlo batch of disruption timelines",
		Args:    cobra.NoArgs,
		RunE:    mc.run,
	}
	f := cmd.Flags()
	f.IntVar(&mc.runs, "runs", 0, "Number of runs (default from config)")
	f.IntVar(&mc.horizon, "horizon", 0, "Horizon in days (default from config)")
	f.Float64Var(&mc.probability, "probability", 0, "Daily disruption probability (default from config)")
	f.Int64Var(&mc.seed, "seed", 0, "Random seed; the same seed reproduces the batch")
	f.BoolVar(&mc.showRuns, "show-runs", false, "Print one row per run")
	return cmd
}

func (mc *MonteCarloCmd) config(cmd *cobra.Command, defaults montecarlo.Config) montecarlo.Config {
	cfg := defaults
	f := cmd.Flags()
	if f.Changed("runs") {
		cfg.Runs = mc.runs
	}
	if f.Changed("horizon") {
		cfg.HorizonDays = mc.horizon
	}
	if f.Changed("probability") {
		cfg.DailyProbability = mc.probability
	}
	if f.Changed("seed") {
		seed := mc.seed
		cfg.Seed = &seed
	}
	return cfg
}

func (mc *MonteCarloCmd) run(cmd *cobra.Command, _ []string) error {
	eng, err := mc.app.engine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	res, err := eng.MonteCarlo(cmd.Context(), mc.config(cmd, eng.MonteCarloDefaults()))
	if err != nil {
		return err
	}
	return mc.app.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
		renderMonteCarlo(w, res, mc.showRuns)
	})
}

func renderMonteCarlo(w io.Writer, res *montecarlo.Result, perRun bool) {
	var (
		total, peak int
		sevSum      float64
		maxSev      float64
		counts      = map[disruption.Archetype]int{}
	)
	for _, run := range res.Runs {
		s := run.Summary
		total += s.TotalDisruptions
		sevSum += s.AverageSeverity * float64(s.TotalDisruptions)
		maxSev = max(maxSev, s.MaxSeverity)
		peak = max(peak, s.PeakConcurrent)
		for a, n := range s.ArchetypeCounts {
			counts[a] += n
		}
	}
	mean := 0.0
	if total > 0 {
		mean = sevSum / float64(total)
	}
	perRunMean := 0.0
	if len(res.Runs) > 0 {
		perRunMean = float64(total) / float64(len(res.Runs))
	}
	writeln(w, panel("Monte Carlo batch",
		kv("Runs", "%d (%d failed)", len(res.Runs), res.Failed()),
		kv("Seed", "%d", res.Seed),
		kv("Epoch", "%s", res.Epoch.Format("2006-01-02")),
		kv("Elapsed", "%s", res.Elapsed),
		kv("Disruptions", "%d (%.2f per run)", total, perRunMean),
		kv("Mean severity", "%.3f", mean),
		kv("Max severity", "%.3f", maxSev),
		kv("Peak concurrent", "%d", peak),
	))

	archetypes := make([]string, 0, len(counts))
	for a := range counts {
		archetypes = append(archetypes, string(a))
	}
	sort.Strings(archetypes)
	if len(archetypes) > 0 {
		rows := make([][]string, 0, len(archetypes))
		for _, a := range archetypes {
			rows = append(rows, []string{a, fmt.Sprint(counts[disruption.Archetype(a)])})
		}
		writeln(w, grid([]string{"Archetype", "Disruptions"}, rows))
	}

	if !perRun {
		return
	}
	rows := make([][]string, 0, len(res.Runs))
	for _, run := range res.Runs {
		status := "ok"
		if run.Failed {
			status = run.Err
		}
		rows = append(rows, []string{
			run.ID,
			fmt.Sprint(run.Summary.TotalDisruptions),
			fmt.Sprintf("%.3f", run.Summary.AverageSeverity),
			fmt.Sprint(run.Summary.TotalDurationDays),
			status,
		})
	}
	writeln(w, grid([]string{"Run", "Disruptions", "Avg severity", "Days", "Status"}, rows))
}
