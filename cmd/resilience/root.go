package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-resilience/pkg/config"
	"github.com/dd0wney/cluso-resilience/pkg/engine"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/network"
)

// app holds the persistent flags shared by every subcommand.
type app struct {
	configPath  string
	networkPath string
	logLevel    string
	logFormat   string
	metricsOut  string
	jsonOut     bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "resilience",
		Short:         "Simulate disruptions of a logistics network and score its resilience",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "Path to a YAML or JSON config file")
	pf.StringVarP(&a.networkPath, "network", "n", "", "Network document (.json or .yaml); defaults to the Kenya reference network")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format (json, console)")
	pf.StringVar(&a.metricsOut, "metrics-out", "", "Write Prometheus metrics to this file on exit")
	pf.BoolVar(&a.jsonOut, "json", false, "Print raw JSON instead of formatted output")

	root.AddCommand(
		newScenarioCmd(a),
		newCriticalPathsCmd(a),
		newMonteCarloCmd(a),
		newAssessCmd(a),
		newPrecomputeCmd(a),
		newReportsCmd(a),
		newArchiveCmd(a),
		newExportCmd(a),
		newConfigCmd(a),
		newHealthCmd(a),
	)
	return root
}

// loadConfig reads the config file and applies flag overrides.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if a.metricsOut != "" {
		cfg.Metrics.TextfilePath = a.metricsOut
	}
	return cfg, cfg.Validate()
}

func (a *app) loadNetwork() (*network.Graph, error) {
	if a.networkPath == "" {
		return network.KenyaReference(), nil
	}
	g, err := network.LoadFile(a.networkPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load network: %w", err)
	}
	return g, nil
}

// engine builds an engine from the flags. Callers must Close it.
func (a *app) engine(cmd *cobra.Command, mutate ...func(*config.Config)) (*engine.Engine, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	for _, m := range mutate {
		m(cfg)
	}
	g, err := a.loadNetwork()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cmd.ErrOrStderr(), logging.Format(cfg.Log.Format), logging.ParseLevel(cfg.Log.Level))
	return engine.New(cmd.Context(), cfg, g, engine.WithLogger(logger))
}

// emit prints v as JSON when --json is set and calls render otherwise.
func (a *app) emit(w io.Writer, v any, render func(io.Writer)) error {
	if a.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	render(w)
	return nil
}
