package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-resilience/pkg/network"
)

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the network as a JSON or YAML document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.loadNetwork()
			if err != nil {
				return err
			}
			if out == "" {
				return network.WriteDocument(cmd.OutOrStdout(), g, network.FormatJSON)
			}
			if err := network.SaveFile(out, g); err != nil {
				return err
			}
			stats := g.Stats()
			fmt.Fprintln(cmd.OutOrStdout(), goodStyle.Render(fmt.Sprintf(
				"wrote %d facilities, %d demand points and %d routes to %s",
				stats.Facilities, stats.DemandPoints, stats.Routes, out)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (.json, .yaml or .yml); stdout JSON when empty")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.emit(cmd.OutOrStdout(), cfg, func(io.Writer) {})
			}
			return cfg.WriteYAML(cmd.OutOrStdout())
		},
	}
}
