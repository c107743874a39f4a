// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - All functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"runtime"
	"time"
)

// Data source kinds.
const (
	SourceCSV      = "csv"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text, json or tint.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// DataSource selects the client table backend: csv, sqlite or postgres.
	DataSource string `koanf:"data_source"`

	// DataPath is the CSV file, the SQLite database file, or the postgres DSN.
	DataPath string `koanf:"data_path"`

	// DataTable names the SQL table holding the clients.
	DataTable string `koanf:"data_table"`

	// IDColumn names the identifier column.
	IDColumn string `koanf:"id_column"`

	// ModelPath points at the model artifact (.json, .yaml or .yml).
	ModelPath string `koanf:"model_path"`

	// DecisionThreshold is the probability at or above which credit is refused.
	DecisionThreshold float64 `koanf:"decision_threshold"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// Preflight scores every record at startup before serving.
	Preflight bool `koanf:"preflight"`

	// PreflightWorkers bounds preflight concurrency.
	PreflightWorkers int `koanf:"preflight_workers"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// MetricsInterval is how often memory, goroutine and GC gauges are sampled.
	MetricsInterval time.Duration `koanf:"metrics_interval"`
}

// New creates a Config with default values.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":8000",
		DataSource:        SourceCSV,
		DataPath:          "data/clients.csv",
		DataTable:         "clients",
		IDColumn:          "SK_ID_CURR",
		ModelPath:         "data/model.json",
		DecisionThreshold: 0.10,
		MaxBodyBytes:      1 << 20,
		Preflight:         true,
		PreflightWorkers:  runtime.NumCPU(),
		ShutdownTimeout:   10 * time.Second,
		MetricsInterval:   10 * time.Second,
	}
}
