package repository

import (
	"context"
	"fmt"

	"github.com/okian/creditscore/internal/domain/model"
)

// Builder accumulates rows before freezing them into a Table. It is not
// safe for concurrent use.
type Builder struct {
	columns  []string
	ids      []int64
	index    map[int64]int
	features [][]float64
}

// NewBuilder starts a table with the given feature column names.
func NewBuilder(columns []string, opts ...Option) (*Builder, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		seen[c] = struct{}{}
	}

	b := &Builder{
		columns: append([]string(nil), columns...),
		index:   make(map[int64]int),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// Add appends one record. Identifiers must be unique and every vector must
// match the column count.
func (b *Builder) Add(id int64, features []float64) error {
	if len(features) != len(b.columns) {
		return fmt.Errorf("%w: client %d has %d values, want %d", ErrWidthMismatch, id, len(features), len(b.columns))
	}
	if _, dup := b.index[id]; dup {
		return fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	b.index[id] = len(b.ids)
	b.ids = append(b.ids, id)
	b.features = append(b.features, append([]float64(nil), features...))
	return nil
}

// Len returns the number of rows added so far.
func (b *Builder) Len() int { return len(b.ids) }

// Build freezes the rows into an immutable Table. The builder must not be
// used afterwards.
func (b *Builder) Build() *Table {
	t := &Table{
		columns:  b.columns,
		ids:      b.ids,
		index:    b.index,
		features: b.features,
	}
	*b = Builder{}
	return t
}

// Table is an immutable in-memory Store keyed by client identifier and
// preserving source row order.
type Table struct {
	columns  []string
	ids      []int64
	index    map[int64]int
	features [][]float64
}

var _ Store = (*Table)(nil)

// IDs implements Store. The returned slice is a copy and never nil.
func (t *Table) IDs(_ context.Context) []int64 {
	out := make([]int64, len(t.ids))
	copy(out, t.ids)
	return out
}

// Lookup implements Store. The returned feature slice is a copy.
func (t *Table) Lookup(_ context.Context, id int64) (model.Record, error) {
	i, ok := t.index[id]
	if !ok {
		return model.Record{}, fmt.Errorf("%d %w", id, ErrNotFound)
	}
	return model.Record{
		ID:       id,
		Features: append([]float64(nil), t.features[i]...),
	}, nil
}

// Columns implements Store.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Count implements Store.
func (t *Table) Count(_ context.Context) int {
	return len(t.ids)
}

// Project maps feature names onto column positions, so a vector in name
// order can be gathered from a record. It fails on the first unknown name.
func Project(s Store, names []string) ([]int, error) {
	pos := make(map[string]int)
	for i, c := range s.Columns() {
		pos[c] = i
	}
	out := make([]int, len(names))
	for i, n := range names {
		p, ok := pos[n]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, n)
		}
		out[i] = p
	}
	return out, nil
}
