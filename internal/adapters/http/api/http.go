// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	service "github.com/okian/creditscore/internal/app"
	"github.com/okian/creditscore/internal/domain/model"
	"github.com/okian/creditscore/internal/domain/types"
	"github.com/okian/creditscore/pkg/logger"
	"github.com/okian/creditscore/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultMaxBodyBytes caps POST bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

// Dependencies required by HTTP handlers. Errors are expected to match
// service.ErrNotFound and service.ErrUnavailable where they apply.
type Dependencies interface {
	ListIdentifiers(ctx context.Context) ([]int64, error)
	Predict(ctx context.Context, id int64) (model.Prediction, error)
	GetStats(ctx context.Context) types.Health
}

// Server wires HTTP routes for the business API.
type Server struct {
	clientsHandler *ClientsHandler
	predictHandler *PredictHandler
	healthHandler  *HealthHandler
	maxBodyBytes   int64
	logger         logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxBodyBytes limits the size of request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets a custom logger for request handling.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}

	s.clientsHandler = NewClientsHandler(deps, s.logger)
	s.predictHandler = NewPredictHandler(deps, s.logger)
	s.healthHandler = NewHealthHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.Handle("GET /clients", s.wrap(s.clientsHandler.HandleList, "clients"))
	mux.Handle("POST /predict", s.wrap(s.predictHandler.HandlePredict, "predict"))
	mux.Handle("GET /healthz", s.wrap(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

func (s *Server) wrap(h http.HandlerFunc, endpoint string) http.Handler {
	return RequestIDMiddleware(BodyLimitMiddleware(MetricsMiddleware(h, endpoint), s.maxBodyBytes))
}

// writeJSON encodes v before sending the status; an encoding failure is
// answered with a 500.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Get().Error(ctx, "failed to encode response", logger.Error(WrapKind("api.write", ErrEncodeResponse, err)))
		status = http.StatusInternalServerError
		body = []byte(`{"detail":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Get().Debug(ctx, "failed to write response", logger.Error(err))
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, detail string) {
	writeJSON(ctx, w, status, types.ErrorResponse{Detail: detail})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound), errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// internalDetail hides causes of 5xx responses except for the unavailable
// condition, which callers can act on.
func internalDetail(err error) string {
	if errors.Is(err, service.ErrUnavailable) {
		return service.ErrUnavailable.Error()
	}
	return "internal error"
}
