// Package config loads the idxdata YAML configuration and applies
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the idxdata pipeline.
type Config struct {
	Storage  Storage  `yaml:"storage"`
	Roster   Roster   `yaml:"roster"`
	Yahoo    Yahoo    `yaml:"yahoo"`
	Ingest   Ingest   `yaml:"ingest"`
	Logging  Logging  `yaml:"logging"`
	Schedule Schedule `yaml:"schedule"`
}

// Storage holds paths and switches for data persistence.
type Storage struct {
	OutputDir      string `yaml:"output_dir"`
	SQLitePath     string `yaml:"sqlite_path"`      // empty disables the run catalog
	ArchiveParquet bool   `yaml:"archive_parquet"`  // yearly parquet files per symbol
}

// Roster configures the company list source.
type Roster struct {
	Path       string `yaml:"path"`
	NameFilter string `yaml:"name_filter"` // keep only companies whose name contains this
}

// Yahoo holds parameters for the chart API client.
type Yahoo struct {
	BaseURL      string        `yaml:"base_url"`
	SymbolSuffix string        `yaml:"symbol_suffix"` // exchange suffix, ".JK" for IDX
	Timeout      time.Duration `yaml:"timeout"`
}

// Ingest controls the run window and worker pool.
type Ingest struct {
	TrailingDays    int           `yaml:"trailing_days"` // incremental window length
	MaxWorkers      int           `yaml:"max_workers"`
	Pace            time.Duration `yaml:"pace"` // delay after each fetch
	RateLimitPerMin int           `yaml:"rate_limit_per_min"`
	ErrorLog        string        `yaml:"error_log"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Schedule configures the daemon's periodic incremental runs.
type Schedule struct {
	Cron string `yaml:"cron"` // cron spec with seconds field
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, fills defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("IDX_OUTPUT_DIR"); v != "" {
		cfg.Storage.OutputDir = v
	}
	if v := os.Getenv("IDX_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("IDX_ROSTER"); v != "" {
		cfg.Roster.Path = v
	}
	if v := os.Getenv("IDX_MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ingest.MaxWorkers = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// applyDefaults fills zero-valued fields with working defaults. The worker
// count and pacing delay default to the values the pipeline has always run
// with against the public chart endpoint.
func applyDefaults(cfg *Config) {
	if cfg.Yahoo.BaseURL == "" {
		cfg.Yahoo.BaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	}
	if cfg.Yahoo.SymbolSuffix == "" {
		cfg.Yahoo.SymbolSuffix = ".JK"
	}
	if cfg.Yahoo.Timeout <= 0 {
		cfg.Yahoo.Timeout = 30 * time.Second
	}
	if cfg.Ingest.TrailingDays <= 0 {
		cfg.Ingest.TrailingDays = 30
	}
	if cfg.Ingest.MaxWorkers <= 0 {
		cfg.Ingest.MaxWorkers = 8
	}
	if cfg.Ingest.Pace <= 0 {
		cfg.Ingest.Pace = 500 * time.Millisecond
	}
	if cfg.Ingest.ErrorLog == "" {
		cfg.Ingest.ErrorLog = "errors.log"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Schedule.Cron == "" {
		// Weekday evenings, after the IDX close.
		cfg.Schedule.Cron = "0 0 18 * * 1-5"
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir is required")
	}
	if c.Roster.Path == "" {
		return fmt.Errorf("roster.path is required")
	}
	return nil
}
