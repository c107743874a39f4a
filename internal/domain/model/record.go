// Package model contains domain models passed between layers.
package model

// Record is one row of the client table: a unique identifier and the
// feature vector fed to the scoring model. The identifier column is never
// part of Features.
type Record struct {
	ID       int64     // SK_ID_CURR
	Features []float64 // NaN marks a missing value
}

// Decision is the business outcome derived from a default probability.
type Decision string

// Decision labels as exposed on the wire.
const (
	DecisionAccepted Decision = "accepté"
	DecisionRejected Decision = "refusé"
)

// String implements fmt.Stringer.
func (d Decision) String() string { return string(d) }

// Rejected reports whether the decision refuses the credit.
func (d Decision) Rejected() bool { return d == DecisionRejected }

// Prediction is the scored outcome for a single client. It is computed per
// request and never stored.
type Prediction struct {
	ClientID    int64
	Probability float64
	Decision    Decision
}
