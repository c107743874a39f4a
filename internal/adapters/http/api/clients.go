package api

import (
	"context"
	"net/http"

	"github.com/okian/creditscore/pkg/logger"
)

// ClientsDependencies defines the interface for listing identifiers.
type ClientsDependencies interface {
	ListIdentifiers(ctx context.Context) ([]int64, error)
}

// ClientsHandler handles identifier listing requests.
type ClientsHandler struct {
	deps   ClientsDependencies
	logger logger.Logger
}

// NewClientsHandler creates a new clients handler.
func NewClientsHandler(deps ClientsDependencies, l logger.Logger) *ClientsHandler {
	return &ClientsHandler{deps: deps, logger: l}
}

// HandleList handles GET /clients requests.
func (h *ClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_clients"
	ctx := r.Context()

	ids, err := h.deps.ListIdentifiers(ctx)
	if err != nil {
		err = WrapKind(op, ErrUnavailable, err)
		h.logger.Error(ctx, "listing clients failed",
			logger.String("request_id", RequestID(ctx)),
			logger.Error(err),
		)
		writeError(ctx, w, http.StatusInternalServerError, internalDetail(err))
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(ctx, w, http.StatusOK, ids)
}
