package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/okian/creditscore/internal/domain/model"
	"github.com/okian/creditscore/internal/domain/types"
	"github.com/okian/creditscore/pkg/logger"
)

// PredictDependencies defines the interface for scoring a client.
type PredictDependencies interface {
	Predict(ctx context.Context, id int64) (model.Prediction, error)
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps     PredictDependencies
	validate *validator.Validate
	logger   logger.Logger
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies, l logger.Logger) *PredictHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &PredictHandler{deps: deps, validate: v, logger: l}
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	ctx := r.Context()

	var req types.PredictRequest
	if err := h.read(r, &req); err != nil {
		err = Wrap(op, err)
		h.logger.Debug(ctx, "rejected predict request",
			logger.String("request_id", RequestID(ctx)),
			logger.Error(err),
		)
		writeError(ctx, w, statusFor(err), detail(err))
		return
	}

	id := *req.ClientID
	pred, err := h.deps.Predict(ctx, id)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			writeError(ctx, w, status, fmt.Sprintf("%d not found", id))
			return
		}
		err = WrapKind(op, ErrInternal, err)
		h.logger.Error(ctx, "prediction failed",
			logger.String("request_id", RequestID(ctx)),
			logger.Int64("client_id", id),
			logger.Error(err),
		)
		writeError(ctx, w, status, internalDetail(err))
		return
	}

	writeJSON(ctx, w, http.StatusOK, types.Prediction{
		ClientID:    pred.ClientID,
		Probability: pred.Probability,
		Decision:    pred.Decision.String(),
	})
}

// read decodes and validates the body. An empty body is treated as an
// empty object so it fails validation rather than parsing.
func (h *PredictHandler) read(r *http.Request, dest *types.PredictRequest) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return WrapKind("read", ErrBodyTooLarge, err)
		}
		return WrapKind("read", ErrBadRequest, fmt.Errorf("invalid JSON body: %w", err))
	}
	if err := h.validate.StructCtx(r.Context(), dest); err != nil {
		return WrapKind("read", ErrValidation, validationMessage(err))
	}
	return nil
}

// detail renders the client-facing message for a rejected request.
func detail(err error) string {
	var apiErr *Error
	for errors.As(err, &apiErr) {
		if apiErr.Kind != nil && apiErr.Err != nil {
			return apiErr.Err.Error()
		}
		if apiErr.Err == nil {
			break
		}
		err = apiErr.Err
	}
	return err.Error()
}

func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
