package api

import (
	"context"
	"net/http"

	service "github.com/okian/creditscore/internal/app"
	"github.com/okian/creditscore/internal/domain/types"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats(ctx context.Context) types.Health
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	stats StatsProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(stats StatsProvider) *HealthHandler {
	return &HealthHandler{stats: stats}
}

// HandleHealth handles GET /healthz requests. It answers 503 until the
// service has loaded its resources.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.stats.GetStats(r.Context())
	status := http.StatusOK
	if health.Status != service.StatusOK {
		status = http.StatusServiceUnavailable
		health = types.Health{Status: service.StatusUnavailable}
	}
	writeJSON(r.Context(), w, status, health)
}
