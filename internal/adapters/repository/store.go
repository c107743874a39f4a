// Package repository holds the in-memory client record table.
package repository

import (
	"context"

	"github.com/okian/creditscore/internal/domain/model"
)

// Store provides read access to the client records. Implementations are
// immutable once built and safe for concurrent readers.
type Store interface {
	// IDs returns every identifier in table order.
	IDs(ctx context.Context) []int64

	// Lookup returns the record for id.
	// Returns ErrNotFound if the identifier is unknown.
	Lookup(ctx context.Context, id int64) (model.Record, error)

	// Columns returns the feature column names in vector order.
	Columns() []string

	// Count returns the number of records.
	Count(ctx context.Context) int
}
