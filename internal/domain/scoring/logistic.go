package scoring

import (
	"context"
	"fmt"
	"math"
)

// KindLogistic is the only model family currently understood.
const KindLogistic = "logistic"

const defaultModelName = "unnamed"

// LogisticParams are the fitted parameters of an
// impute -> standardize -> logistic regression pipeline.
type LogisticParams struct {
	Features     []string  // optional, len must match Coefficients
	Coefficients []float64 // required
	Intercept    float64
	Impute       []float64 // optional replacement for NaN inputs
	Mean         []float64 // optional standardization mean
	Std          []float64 // optional standardization std; 0 leaves the value centered only
}

// Option applies a configuration option to the LogisticModel.
type Option func(*LogisticModel)

// WithName sets the model name reported in logs and health output.
func WithName(name string) Option {
	return func(m *LogisticModel) {
		if name != "" {
			m.name = name
		}
	}
}

// LogisticModel implements Model. All slices are owned copies, so the model
// is immutable once built.
type LogisticModel struct {
	name      string
	features  []string
	coef      []float64
	intercept float64
	impute    []float64
	mean      []float64
	std       []float64
}

// NewLogistic validates params and builds a LogisticModel.
func NewLogistic(params LogisticParams, opts ...Option) (*LogisticModel, error) {
	width := len(params.Coefficients)
	if width == 0 {
		return nil, fmt.Errorf("%w: no coefficients", ErrInvalidModel)
	}
	if !finite(params.Intercept) {
		return nil, fmt.Errorf("%w: intercept is not finite", ErrInvalidModel)
	}
	for i, c := range params.Coefficients {
		if !finite(c) {
			return nil, fmt.Errorf("%w: coefficient %d is not finite", ErrInvalidModel, i)
		}
	}
	if err := checkLen("features", len(params.Features), width); err != nil {
		return nil, err
	}
	if err := checkLen("impute", len(params.Impute), width); err != nil {
		return nil, err
	}
	if err := checkLen("scale.mean", len(params.Mean), width); err != nil {
		return nil, err
	}
	if err := checkLen("scale.std", len(params.Std), width); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(params.Features))
	for _, f := range params.Features {
		if f == "" {
			return nil, fmt.Errorf("%w: empty feature name", ErrInvalidModel)
		}
		if _, dup := seen[f]; dup {
			return nil, fmt.Errorf("%w: duplicate feature %q", ErrInvalidModel, f)
		}
		seen[f] = struct{}{}
	}

	m := &LogisticModel{
		name:      defaultModelName,
		features:  clone(params.Features),
		coef:      clone(params.Coefficients),
		intercept: params.Intercept,
		impute:    clone(params.Impute),
		mean:      clone(params.Mean),
		std:       clone(params.Std),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Score computes sigmoid(intercept + sum(coef_i * z_i)) where z_i is the
// imputed and standardized input.
func (m *LogisticModel) Score(ctx context.Context, features []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context cancelled: %w", err)
	}
	if len(features) != len(m.coef) {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrInvalidInput, len(features), len(m.coef))
	}

	z := m.intercept
	for i, x := range features {
		if math.IsNaN(x) {
			x = 0
			if m.impute != nil {
				x = m.impute[i]
			}
		}
		if m.mean != nil {
			x -= m.mean[i]
		}
		if m.std != nil && m.std[i] != 0 {
			x /= m.std[i]
		}
		if !finite(x) {
			return 0, fmt.Errorf("%w: value %d is not finite", ErrInvalidInput, i)
		}
		z += m.coef[i] * x
	}
	// opposite overflowing terms sum to NaN
	if math.IsNaN(z) {
		return 0, fmt.Errorf("%w: linear term is not a number", ErrInvalidInput)
	}

	return sigmoid(z), nil
}

// Name implements Model.
func (m *LogisticModel) Name() string { return m.name }

// Kind implements Model.
func (m *LogisticModel) Kind() string { return KindLogistic }

// Features implements Model.
func (m *LogisticModel) Features() []string { return clone(m.features) }

// Width implements Model.
func (m *LogisticModel) Width() int { return len(m.coef) }

// sigmoid is split by sign to avoid overflow in math.Exp. It maps -Inf to 0
// and +Inf to 1.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func checkLen(field string, got, want int) error {
	if got != 0 && got != want {
		return fmt.Errorf("%w: %s has %d values, want %d", ErrInvalidModel, field, got, want)
	}
	return nil
}

// clone copies s; empty input yields nil so optional vectors stay unset.
func clone[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
