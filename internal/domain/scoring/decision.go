package scoring

import (
	"fmt"
	"math"

	"github.com/okian/creditscore/internal/domain/model"
)

// DefaultThreshold is the business cutoff on the default probability.
const DefaultThreshold = 0.10

// Decide applies the threshold rule: a probability at or above the
// threshold is rejected, anything below is accepted.
func Decide(probability, threshold float64) model.Decision {
	if probability >= threshold {
		return model.DecisionRejected
	}
	return model.DecisionAccepted
}

// ValidateProbability rejects NaN and values outside [0, 1].
func ValidateProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidScore, p)
	}
	return nil
}

// ValidateThreshold checks that a threshold is a usable probability.
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	return nil
}
