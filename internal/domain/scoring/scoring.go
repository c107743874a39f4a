// Package scoring defines the contract for turning a client feature vector
// into a default probability, and the decision policy applied on top of it.
package scoring

import (
	"context"
	"errors"
)

// Sentinel kinds for scoring errors.
var (
	ErrInvalidModel     = errors.New("invalid model")
	ErrInvalidInput     = errors.New("invalid feature vector")
	ErrInvalidThreshold = errors.New("threshold must be within [0, 1]")
	ErrInvalidScore     = errors.New("score is not a probability")
)

// Scorer computes a default probability in [0, 1] from a feature vector.
// Implementations are immutable and safe for concurrent use.
type Scorer interface {
	// Score computes a probability, honoring ctx for cancellation.
	Score(ctx context.Context, features []float64) (float64, error)
}

// Model is a loaded scoring artifact.
type Model interface {
	Scorer

	// Name identifies the artifact in logs and health output.
	Name() string
	// Kind is the model family, e.g. "logistic".
	Kind() string
	// Features returns the ordered input names, or nil when the model
	// consumes columns positionally.
	Features() []string
	// Width is the expected length of the feature vector.
	Width() int
}
