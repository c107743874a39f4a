// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/creditscore/internal/adapters/artifact"
	"github.com/okian/creditscore/internal/adapters/dataset"
	"github.com/okian/creditscore/internal/adapters/repository"
	"github.com/okian/creditscore/internal/domain/model"
	"github.com/okian/creditscore/internal/domain/scoring"
	"github.com/okian/creditscore/internal/domain/types"
	"github.com/okian/creditscore/pkg/logger"
	"github.com/okian/creditscore/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// state is built once by Start and never mutated afterwards.
type state struct {
	records   repository.Store
	model     scoring.Model
	positions []int // nil means the table is already in model order
	threshold float64
}

func (st *state) vector(rec model.Record) []float64 {
	if st.positions == nil {
		return rec.Features
	}
	out := make([]float64, len(st.positions))
	for i, p := range st.positions {
		out[i] = rec.Features[p]
	}
	return out
}

// score runs the model on rec and checks that the result is a probability.
func (st *state) score(ctx context.Context, rec model.Record) (float64, error) {
	p, err := st.model.Score(ctx, st.vector(rec))
	if err != nil {
		return 0, err
	}
	if err := scoring.ValidateProbability(p); err != nil {
		return 0, fmt.Errorf("model %s: %w", st.model.Name(), err)
	}
	return p, nil
}

// Service implements the API dependencies for the scoring system.
type Service struct {
	mu sync.Mutex

	// Resources
	records dataset.Source
	models  artifact.Loader

	// Configuration
	threshold        float64
	preflight        bool
	preflightWorkers int

	current atomic.Pointer[state]

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRecordSource sets where the client table is loaded from.
func WithRecordSource(src dataset.Source) Option {
	return func(s *Service) {
		s.records = src
	}
}

// WithModelLoader sets where the scoring model is loaded from.
func WithModelLoader(l artifact.Loader) Option {
	return func(s *Service) {
		s.models = l
	}
}

// WithThreshold sets the probability at or above which a client is refused.
func WithThreshold(threshold float64) Option {
	return func(s *Service) {
		s.threshold = threshold
	}
}

// WithPreflight scores every loaded record during Start so that a table the
// model cannot handle is rejected before serving. workers <= 0 keeps the default.
func WithPreflight(enabled bool, workers int) Option {
	return func(s *Service) {
		s.preflight = enabled
		if workers > 0 {
			s.preflightWorkers = workers
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		threshold:        scoring.DefaultThreshold,
		preflight:        true,
		preflightWorkers: runtime.NumCPU(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the record table and the model concurrently and publishes
// them. Any failure leaves the service unavailable.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Load() != nil {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if err := scoring.ValidateThreshold(s.threshold); err != nil {
		return err
	}
	if s.records == nil || s.models == nil {
		return fmt.Errorf("%w: record source and model loader are required", ErrUnavailable)
	}

	s.logger.Info(ctx, "starting scoring service...",
		logger.String("records", s.records.String()),
		logger.String("model", s.models.String()),
	)

	var (
		table *repository.Table
		m     scoring.Model
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		t, err := s.records.Load(gctx)
		if err != nil {
			return fmt.Errorf("load records from %s: %w", s.records, err)
		}
		metrics.RecordResourceLoad("records", time.Since(start))
		table = t
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		loaded, err := s.models.Load(gctx)
		if err != nil {
			return fmt.Errorf("load model from %s: %w", s.models, err)
		}
		metrics.RecordResourceLoad("model", time.Since(start))
		m = loaded
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	st, err := align(table, m, s.threshold)
	if err != nil {
		return err
	}

	if s.preflight {
		start := time.Now()
		if err := s.runPreflight(ctx, st); err != nil {
			return err
		}
		s.logger.Debug(ctx, "preflight scoring passed",
			logger.Int("records", table.Count(ctx)),
			logger.Duration("took", time.Since(start)),
		)
	}

	s.current.Store(st)

	count := table.Count(ctx)
	metrics.UpdateRecordsLoaded(count)
	metrics.UpdateModelInfo(m.Name(), m.Kind(), m.Width())

	s.logger.Info(ctx, "scoring service started",
		logger.Int("clients", count),
		logger.Int("features", m.Width()),
		logger.String("model", m.Name()),
		logger.Float64("threshold", s.threshold),
	)

	return nil
}

// align matches model inputs to table columns. Named model features are
// looked up by name; unnamed ones require the table to have the same width.
func align(table repository.Store, m scoring.Model, threshold float64) (*state, error) {
	st := &state{records: table, model: m, threshold: threshold}

	names := m.Features()
	if len(names) == 0 {
		if got := len(table.Columns()); got != m.Width() {
			return nil, fmt.Errorf("%w: table has %d feature columns, model expects %d", ErrMisaligned, got, m.Width())
		}
		return st, nil
	}

	positions, err := repository.Project(table, names)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMisaligned, err)
	}
	identity := len(positions) == len(table.Columns())
	for i, p := range positions {
		if p != i {
			identity = false
			break
		}
	}
	if !identity {
		st.positions = positions
	}
	return st, nil
}

// runPreflight scores every record with a bounded number of goroutines and
// stops at the first failure.
func (s *Service) runPreflight(ctx context.Context, st *state) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.preflightWorkers)

	for _, id := range st.records.IDs(ctx) {
		g.Go(func() error {
			rec, err := st.records.Lookup(gctx, id)
			if err != nil {
				return err
			}
			if _, err := st.score(gctx, rec); err != nil {
				return fmt.Errorf("%w: client %d: %w", ErrPreflight, id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Stop drops the loaded resources. Later calls fail with ErrUnavailable.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Swap(nil) == nil {
		return
	}
	metrics.UpdateRecordsLoaded(0)
	s.logger.Info(context.Background(), "scoring service stopped")
}

// Ready reports whether Start has completed successfully.
func (s *Service) Ready() bool {
	return s.current.Load() != nil
}

// ListIdentifiers returns every known client identifier in table order.
func (s *Service) ListIdentifiers(ctx context.Context) ([]int64, error) {
	st := s.current.Load()
	if st == nil {
		return nil, ErrUnavailable
	}
	return st.records.IDs(ctx), nil
}

// Predict scores one client and applies the decision threshold.
func (s *Service) Predict(ctx context.Context, id int64) (model.Prediction, error) {
	st := s.current.Load()
	if st == nil {
		return model.Prediction{}, ErrUnavailable
	}

	rec, err := st.records.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordPredictionNotFound()
			return model.Prediction{}, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return model.Prediction{}, fmt.Errorf("lookup %d: %w", id, err)
	}

	start := time.Now()
	p, err := st.score(ctx, rec)
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordScoringError()
		s.logger.Error(ctx, "scoring failed", logger.Int64("client_id", id), logger.Error(err))
		return model.Prediction{}, fmt.Errorf("score %d: %w", id, err)
	}

	decision := scoring.Decide(p, st.threshold)
	metrics.RecordPrediction(decision.String(), p)

	s.logger.Debug(ctx, "prediction",
		logger.Int64("client_id", id),
		logger.Float64("probability", p),
		logger.String("decision", decision.String()),
	)

	return model.Prediction{ClientID: id, Probability: p, Decision: decision}, nil
}

// Health status values reported by GetStats.
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
)

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) types.Health {
	st := s.current.Load()
	if st == nil {
		return types.Health{Status: StatusUnavailable}
	}
	count := st.records.Count(ctx)
	metrics.UpdateRecordsLoaded(count)
	return types.Health{
		Status:    StatusOK,
		Clients:   count,
		Features:  st.model.Width(),
		Model:     st.model.Name(),
		Threshold: st.threshold,
	}
}
