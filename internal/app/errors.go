package service

import "errors"

var (
	// ErrUnavailable is returned when the record table or the model is not loaded.
	ErrUnavailable = errors.New("scoring resources unavailable")
	// ErrNotFound is returned when no record matches the requested identifier.
	ErrNotFound = errors.New("client not found")
	// ErrMisaligned is returned at startup when model features cannot be
	// matched to table columns.
	ErrMisaligned = errors.New("model does not match dataset")
	// ErrPreflight is returned at startup when a loaded record cannot be scored.
	ErrPreflight = errors.New("preflight scoring failed")
)
