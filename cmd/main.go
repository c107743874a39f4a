package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/creditscore/internal/adapters/artifact"
	"github.com/okian/creditscore/internal/adapters/dataset"
	"github.com/okian/creditscore/internal/adapters/http/api"
	"github.com/okian/creditscore/internal/adapters/http/swagger"
	app "github.com/okian/creditscore/internal/app"
	"github.com/okian/creditscore/internal/config"
	"github.com/okian/creditscore/pkg/logger"
	"github.com/okian/creditscore/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		// the logger may not be initialized yet
		os.Stderr.WriteString("creditscore: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := config.LoadDotEnv(ctx); err != nil {
		return err
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.SetRefreshInterval(cfg.MetricsInterval)

	records, err := newRecordSource(cfg)
	if err != nil {
		return err
	}

	svc := app.New(
		app.WithLogger(loggerInstance.Named("service")),
		app.WithRecordSource(records),
		app.WithModelLoader(&artifact.File{Path: cfg.ModelPath}),
		app.WithThreshold(cfg.DecisionThreshold),
		app.WithPreflight(cfg.Preflight, cfg.PreflightWorkers),
	)
	// Traffic is only accepted once both resources are loaded.
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})
	g.Go(func() error {
		loggerInstance.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		loggerInstance.Info(ctx, "shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	loggerInstance.Info(ctx, "server stopped")
	return nil
}

// newRecordSource picks the client table backend from the configuration.
func newRecordSource(cfg *config.Config) (dataset.Source, error) {
	switch cfg.DataSource {
	case config.SourceCSV:
		return &dataset.CSVSource{Path: cfg.DataPath, IDColumn: cfg.IDColumn}, nil
	case config.SourceSQLite:
		return &dataset.SQLSource{Driver: dataset.DriverSQLite, DSN: cfg.DataPath, Table: cfg.DataTable, IDColumn: cfg.IDColumn}, nil
	case config.SourcePostgres:
		return &dataset.SQLSource{Driver: dataset.DriverPostgres, DSN: cfg.DataPath, Table: cfg.DataTable, IDColumn: cfg.IDColumn}, nil
	default:
		return nil, fmt.Errorf("%w: unknown data_source %q", config.ErrInvalidConfig, cfg.DataSource)
	}
}

// newHandler registers the docs and business routes on a fresh mux.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc,
		api.WithMaxBodyBytes(cfg.MaxBodyBytes),
		api.WithLogger(logger.Named("api")),
	).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater samples system metrics every
// metrics.RefreshInterval until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
