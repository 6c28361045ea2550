package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-resilience/pkg/health"
)

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the network, store, archive and memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := a.engine(cmd)
			if err != nil {
				return err
			}
			defer eng.Close()

			resp := eng.Health(cmd.Context())
			if err := a.emit(cmd.OutOrStdout(), resp, func(w io.Writer) {
				renderHealth(w, resp)
			}); err != nil {
				return err
			}
			if resp.Status == health.StatusUnhealthy {
				return fmt.Errorf("engine is %s", resp.Status)
			}
			return nil
		},
	}
}

func statusStyle(s health.Status) string {
	switch s {
	case health.StatusHealthy:
		return goodStyle.Render(string(s))
	case health.StatusDegraded:
		return warnStyle.Render(string(s))
	default:
		return badStyle.Render(string(s))
	}
}

func renderHealth(w io.Writer, resp health.Response) {
	names := make([]string, 0, len(resp.Checks))
	for name := range resp.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		c := resp.Checks[name]
		rows = append(rows, []string{name, statusStyle(c.Status), c.Message, c.Duration.String()})
	}
	writeln(w, titleStyle.Render("Health: ")+statusStyle(resp.Status))
	writeln(w, grid([]string{"Check", "Status", "Message", "Took"}, rows))
}
