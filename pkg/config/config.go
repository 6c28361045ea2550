// Package config loads engine configuration from YAML files and
// RESILIENCE_* environment variables.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-resilience/pkg/disruption"
	"github.com/dd0wney/cluso-resilience/pkg/montecarlo"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
	"github.com/dd0wney/cluso-resilience/pkg/validation"
)

// EnvPrefix prefixes every environment override, e.g.
// RESILIENCE_SIMULATION_WORKERS.
const EnvPrefix = "RESILIENCE"

// Store drivers
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StorePgx    = "pgx"
)

// Config is the complete engine configuration.
type Config struct {
	Log         LogConfig                    `json:"log" yaml:"log" mapstructure:"log"`
	Simulation  SimulationConfig             `json:"simulation" yaml:"simulation" mapstructure:"simulation"`
	Scoring     ScoringConfig                `json:"scoring" yaml:"scoring" mapstructure:"scoring"`
	Propagation disruption.PropagationPolicy `json:"propagation" yaml:"propagation" mapstructure:"propagation"`
	Cache       CacheConfig                  `json:"cache" yaml:"cache" mapstructure:"cache"`
	Store       StoreConfig                  `json:"store" yaml:"store" mapstructure:"store"`
	Archive     ArchiveConfig                `json:"archive" yaml:"archive" mapstructure:"archive"`
	Metrics     MetricsConfig                `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// SimulationConfig bounds the concurrent analyses.
type SimulationConfig struct {
	// Workers sizes the worker pool; 0 uses GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
	// MaxHops bounds candidate corridor length.
	MaxHops int `json:"max_hops" yaml:"max_hops" mapstructure:"max_hops"`
	// Threshold drops corridors whose criticality is below it.
	Threshold  float64           `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
	MonteCarlo montecarlo.Config `json:"monte_carlo" yaml:"monte_carlo" mapstructure:"monte_carlo"`
	Limits     montecarlo.Limits `json:"limits" yaml:"limits" mapstructure:"limits"`
}

// ScoringConfig holds the composite score tunables.
type ScoringConfig struct {
	Weights  resilience.Weights        `json:"weights" yaml:"weights" mapstructure:"weights"`
	Recovery resilience.RecoveryPolicy `json:"recovery" yaml:"recovery" mapstructure:"recovery"`
}

// CacheConfig configures the report cache.
type CacheConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Size    int           `json:"size" yaml:"size" mapstructure:"size"`
	TTL     time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// StoreConfig selects the report store. DSN is a directory for the file
// driver and a connection string for the SQL drivers.
type StoreConfig struct {
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`
	DSN    string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
}

// ArchiveConfig configures the S3 report archive. Static keys are optional;
// the default AWS credential chain is used when they are empty.
type ArchiveConfig struct {
	Enabled         bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Bucket          string `json:"bucket" yaml:"bucket" mapstructure:"bucket"`
	Prefix          string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
	Region          string `json:"region" yaml:"region" mapstructure:"region"`
	Endpoint        string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	UsePathStyle    bool   `json:"use_path_style" yaml:"use_path_style" mapstructure:"use_path_style"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key" mapstructure:"secret_access_key"`
	Concurrency     int    `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	// TextfilePath, when set, receives the registry in Prometheus text
	// format on engine Close.
	TextfilePath string `json:"textfile_path" yaml:"textfile_path" mapstructure:"textfile_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "json"},
		Simulation: SimulationConfig{
			MaxHops: 4,
			MonteCarlo: montecarlo.Config{
				Runs:             100,
				HorizonDays:      365,
				DailyProbability: 0.01,
			},
			Limits: montecarlo.DefaultLimits(),
		},
		Scoring: ScoringConfig{
			Weights:  resilience.DefaultWeights(),
			Recovery: resilience.DefaultRecoveryPolicy(),
		},
		Propagation: disruption.DefaultPolicy(),
		Cache:       CacheConfig{Enabled: true, Size: 1024, TTL: 24 * time.Hour},
		Store:       StoreConfig{Driver: StoreMemory},
		Archive:     ArchiveConfig{Prefix: "reports", Region: "us-east-1", Concurrency: 4},
	}
}

// Load reads path (YAML or JSON, optional) over the defaults, applies
// RESILIENCE_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults, err := Default().toMap()
	if err != nil {
		return nil, err
	}
	if err := v.MergeConfigMap(defaults); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Not present in the defaults, so AutomaticEnv alone cannot see it.
	if err := v.BindEnv("simulation.monte_carlo.seed"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	cv := validation.NewConfigValidator("config")
	cv.OneOf("log.level", strings.ToLower(c.Log.Level), []string{"debug", "info", "warn", "warning", "error"}).
		OneOf("log.format", c.Log.Format, []string{"json", "console"}).
		NonNegative("simulation.workers", c.Simulation.Workers).
		RangeInt("simulation.max_hops", c.Simulation.MaxHops, 1, 16).
		RangeFloat("simulation.threshold", c.Simulation.Threshold, 0, 1).
		Custom("simulation.monte_carlo", c.Simulation.MonteCarlo.Validate).
		Custom("scoring.weights", c.Scoring.Weights.Validate).
		Custom("scoring.recovery", c.Scoring.Recovery.Validate).
		Custom("propagation", c.Propagation.Validate).
		OneOf("store.driver", c.Store.Driver, []string{StoreMemory, StoreFile, StoreSQLite, StorePgx})

	cv.When(c.Cache.Enabled, func(cv *validation.ConfigValidator) {
		cv.Positive("cache.size", c.Cache.Size).
			MinDuration("cache.ttl", c.Cache.TTL, time.Second)
	})
	cv.When(c.Store.Driver != StoreMemory, func(cv *validation.ConfigValidator) {
		cv.Required("store.dsn", c.Store.DSN)
	})
	cv.When(c.Archive.Enabled, func(cv *validation.ConfigValidator) {
		cv.Required("archive.bucket", c.Archive.Bucket).
			Required("archive.region", c.Archive.Region).
			Positive("archive.concurrency", c.Archive.Concurrency)
	})
	return cv.Validate()
}

// WriteYAML encodes c as YAML.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// SaveYAML writes c to path.
func (c *Config) SaveYAML(path string) error {
	var buf bytes.Buffer
	if err := c.WriteYAML(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (c *Config) toMap() (map[string]any, error) {
	var buf bytes.Buffer
	if err := c.WriteYAML(&buf); err != nil {
		return nil, err
	}
	m := make(map[string]any)
	if err := yaml.Unmarshal(buf.Bytes(), &m); err != nil {
		return nil, fmt.Errorf("failed to decode defaults: %w", err)
	}
	return m, nil
}
