package montecarlo

import (
	"github.com/dd0wney/cluso-resilience/pkg/simerr"
)

// Config describes one Monte Carlo batch.
type Config struct {
	Runs             int     `json:"runs" yaml:"runs" mapstructure:"runs"`
	HorizonDays      int     `json:"horizon_days" yaml:"horizon_days" mapstructure:"horizon_days"`
	DailyProbability float64 `json:"daily_probability" yaml:"daily_probability" mapstructure:"daily_probability"`
	Seed             *int64  `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`
}

// Validate checks the batch parameters.
func (c Config) Validate() error {
	switch {
	case c.Runs < 1:
		return invalid("runs", "must be at least 1")
	case c.HorizonDays < 0:
		return invalid("horizon_days", "must not be negative")
	case !(c.DailyProbability >= 0 && c.DailyProbability <= 1):
		return invalid("daily_probability", "must be within [0, 1]")
	}
	return nil
}

func invalid(field, msg string) error {
	return simerr.Validation("monte carlo").Field(field).Context(msg).Cause(simerr.ErrOutOfRange).Err()
}

// Limits bound the size of a batch. A zero limit is unbounded.
type Limits struct {
	MaxRuns        int `json:"max_runs" yaml:"max_runs" mapstructure:"max_runs"`
	MaxHorizonDays int `json:"max_horizon_days" yaml:"max_horizon_days" mapstructure:"max_horizon_days"`
	// MaxRunDays bounds runs * horizon_days, the number of simulated days.
	MaxRunDays int64 `json:"max_run_days" yaml:"max_run_days" mapstructure:"max_run_days"`
	MaxNodes   int   `json:"max_nodes" yaml:"max_nodes" mapstructure:"max_nodes"`
}

// DefaultLimits returns the bounds used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxRuns:        100_000,
		MaxHorizonDays: 36_500,
		MaxRunDays:     50_000_000,
		MaxNodes:       100_000,
	}
}

// Check returns a resource error when cfg on a graph of nodes exceeds l.
func (l Limits) Check(cfg Config, nodes int) error {
	exceeded := func(what string, got, max int64) error {
		return simerr.Resource("monte carlo").Field(what).
			Contextf("%d exceeds limit %d", got, max).Err()
	}
	if l.MaxRuns > 0 && cfg.Runs > l.MaxRuns {
		return exceeded("runs", int64(cfg.Runs), int64(l.MaxRuns))
	}
	if l.MaxHorizonDays > 0 && cfg.HorizonDays > l.MaxHorizonDays {
		return exceeded("horizon_days", int64(cfg.HorizonDays), int64(l.MaxHorizonDays))
	}
	if days := int64(cfg.Runs) * int64(cfg.HorizonDays); l.MaxRunDays > 0 && days > l.MaxRunDays {
		return exceeded("run_days", days, l.MaxRunDays)
	}
	if l.MaxNodes > 0 && nodes > l.MaxNodes {
		return exceeded("nodes", int64(nodes), int64(l.MaxNodes))
	}
	return nil
}
