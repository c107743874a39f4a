package repository

import "errors"

// Sentinel kinds for record table errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateID   = errors.New("duplicate client identifier")
	ErrWidthMismatch = errors.New("feature vector width mismatch")
	ErrNoColumns     = errors.New("table has no feature columns")
	ErrUnknownColumn = errors.New("unknown feature column")
)
