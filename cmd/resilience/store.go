package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-resilience/pkg/engine"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
)

func newPrecomputeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "precompute",
		Short: "Evaluate the common scenarios so later requests hit the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := a.engine(cmd)
			if err != nil {
				return err
			}
			defer eng.Close()

			evs, err := eng.Precompute(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), evs, func(w io.Writer) {
				rows := make([][]string, 0, len(evs))
				for _, ev := range evs {
					rows = append(rows, evaluationRow(ev))
				}
				writeln(w, grid([]string{"Fingerprint", "Scenario", "Score", "Recovery", "Source"}, rows))
			})
		},
	}
}

func evaluationRow(ev engine.Evaluation) []string {
	return []string{
		ev.Report.Fingerprint,
		ev.Report.ScenarioType,
		fmt.Sprintf("%.3f", ev.Report.ResilienceScore),
		fmt.Sprintf("%.0f days", ev.Report.EstimatedRecoveryDays),
		ev.Source,
	}
}

func newReportsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reports [fingerprint]",
		Short: "List stored reports or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine(cmd)
			if err != nil {
				return err
			}
			defer eng.Close()

			if len(args) == 1 {
				report, err := eng.Report(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.emit(cmd.OutOrStdout(), report, func(w io.Writer) {
					renderReport(w, report)
				})
			}

			reports, err := eng.Reports(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), reports, func(w io.Writer) {
				renderReportList(w, reports)
			})
		},
	}
}

func renderReportList(w io.Writer, reports []resilience.Report) {
	if len(reports) == 0 {
		writeln(w, warnStyle.Render("no stored reports"))
		return
	}
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.Fingerprint,
			r.ScenarioType,
			fmt.Sprintf("%.3f", r.ResilienceScore),
			r.GeneratedAt.Format("2006-01-02 15:04:05"),
		})
	}
	writeln(w, grid([]string{"Fingerprint", "Scenario", "Score", "Generated"}, rows))
}

func newArchiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Upload every stored report to the configured S3 archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := a.engine(cmd)
			if err != nil {
				return err
			}
			defer eng.Close()

			n, err := eng.ArchiveReports(cmd.Context())
			if err != nil {
				return err
			}
			out := map[string]any{"archived": n, "bucket": eng.Config().Archive.Bucket}
			return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				writeln(w, goodStyle.Render(fmt.Sprintf("archived %d reports to s3://%s", n, eng.Config().Archive.Bucket)))
			})
		},
	}
}
