package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/creditscore/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
				convey.So(cfg.DataPath, convey.ShouldEqual, "data/clients.csv")
				convey.So(cfg.ModelPath, convey.ShouldEqual, "data/model.json")
				convey.So(cfg.DecisionThreshold, convey.ShouldEqual, 0.10)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SCORING_ADDR", ":8080")
			_ = os.Setenv("SCORING_DATA_SOURCE", "sqlite")
			_ = os.Setenv("SCORING_DATA_PATH", "/var/lib/clients.db")
			_ = os.Setenv("SCORING_DECISION_THRESHOLD", "0.25")
			_ = os.Setenv("SCORING_MAX_BODY_BYTES", "4096")
			_ = os.Setenv("SCORING_PREFLIGHT", "false")
			_ = os.Setenv("SCORING_SHUTDOWN_TIMEOUT", "3s")
			_ = os.Setenv("SCORING_METRICS_INTERVAL", "250ms")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DataSource, convey.ShouldEqual, config.SourceSQLite)
				convey.So(cfg.DataPath, convey.ShouldEqual, "/var/lib/clients.db")
				convey.So(cfg.DecisionThreshold, convey.ShouldEqual, 0.25)
				convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, 4096)
				convey.So(cfg.Preflight, convey.ShouldBeFalse)
				convey.So(cfg.ShutdownTimeout.Seconds(), convey.ShouldEqual, 3)
				convey.So(cfg.MetricsInterval, convey.ShouldEqual, 250*time.Millisecond)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
# service settings
addr: ":9090"  # inline comment
data_source: postgres
data_path: "postgres://scoring@localhost/credit?sslmode=disable"
data_table: applications
model_path: models/lr.yaml
decision_threshold: 0.2
log_format: json
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("SCORING_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DataSource, convey.ShouldEqual, config.SourcePostgres)
				convey.So(cfg.DataTable, convey.ShouldEqual, "applications")
				convey.So(cfg.ModelPath, convey.ShouldEqual, "models/lr.yaml")
				convey.So(cfg.DecisionThreshold, convey.ShouldEqual, 0.2)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When environment variables and a file disagree", func() {
			tmpFile := createTempConfigFile(t, "addr: \":9090\"\ndecision_threshold: 0.3\n")
			_ = os.Setenv("SCORING_CONFIG", tmpFile)
			_ = os.Setenv("SCORING_ADDR", ":8081")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the environment should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
				convey.So(cfg.DecisionThreshold, convey.ShouldEqual, 0.3)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("SCORING_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading should fail", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When values are invalid", func() {
			defer clearConfigEnvVars()

			cases := map[string]string{
				"SCORING_ADDR":               "",
				"SCORING_DECISION_THRESHOLD": "1.5",
				"SCORING_DATA_SOURCE":        "mysql",
				"SCORING_LOG_FORMAT":         "xml",
				"SCORING_MAX_BODY_BYTES":     "0",
				"SCORING_METRICS_INTERVAL":   "0s",
			}

			convey.Convey("Then each should be rejected as invalid config", func() {
				for key, value := range cases {
					clearConfigEnvVars()
					_ = os.Setenv(key, value)
					cfg, err := config.Load(ctx)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(cfg, convey.ShouldBeNil)
				}
			})
		})

		convey.Convey("When a value has the wrong type", func() {
			_ = os.Setenv("SCORING_DECISION_THRESHOLD", "high")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading should fail", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestLoadDotEnv(t *testing.T) {
	convey.Convey("Given dotenv files", t, func() {
		ctx := context.Background()
		defer clearConfigEnvVars()
		clearConfigEnvVars()

		convey.Convey("When the file exists", func() {
			path := filepath.Join(t.TempDir(), ".env")
			convey.So(os.WriteFile(path, []byte("SCORING_ADDR=:7000\nSCORING_DECISION_THRESHOLD=0.15\n"), 0o600), convey.ShouldBeNil)

			err := config.LoadDotEnv(ctx, path)
			cfg, loadErr := config.Load(ctx)

			convey.Convey("Then its values should reach the loader", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(loadErr, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7000")
				convey.So(cfg.DecisionThreshold, convey.ShouldEqual, 0.15)
			})
		})

		convey.Convey("When the variable is already set", func() {
			path := filepath.Join(t.TempDir(), ".env")
			convey.So(os.WriteFile(path, []byte("SCORING_ADDR=:7000\n"), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("SCORING_ADDR", ":6000")

			convey.So(config.LoadDotEnv(ctx, path), convey.ShouldBeNil)

			convey.Convey("Then the process environment should win", func() {
				convey.So(os.Getenv("SCORING_ADDR"), convey.ShouldEqual, ":6000")
			})
		})

		convey.Convey("When the file is missing", func() {
			err := config.LoadDotEnv(ctx, filepath.Join(t.TempDir(), "missing.env"))

			convey.Convey("Then it should be ignored", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"SCORING_CONFIG",
		"SCORING_ADDR",
		"SCORING_DATA_SOURCE",
		"SCORING_DATA_PATH",
		"SCORING_DECISION_THRESHOLD",
		"SCORING_MAX_BODY_BYTES",
		"SCORING_PREFLIGHT",
		"SCORING_SHUTDOWN_TIMEOUT",
		"SCORING_METRICS_INTERVAL",
		"SCORING_LOG_FORMAT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scoring-config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
