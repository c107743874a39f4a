// Package dataset loads the client record table from CSV files or SQL
// databases into an immutable repository.Table.
package dataset

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/creditscore/internal/adapters/repository"
	"github.com/okian/creditscore/internal/domain/types"
	"github.com/samber/lo"
)

// DefaultIDColumn names the identifier column when none is configured.
const DefaultIDColumn = types.IDField

// Source produces the record table once at startup.
type Source interface {
	Load(ctx context.Context) (*repository.Table, error)
	String() string
}

// layout splits a header into the identifier position and feature columns.
type layout struct {
	idPos    int
	columns  []string
	features []int
}

func newLayout(header []string, idColumn string) (layout, error) {
	if idColumn == "" {
		idColumn = DefaultIDColumn
	}
	header = lo.Map(header, func(name string, _ int) string {
		return strings.TrimSpace(name)
	})
	idPos := lo.IndexOf(header, strings.TrimSpace(idColumn))
	if idPos < 0 {
		return layout{}, fmt.Errorf("%w: %q", ErrMissingIDColumn, idColumn)
	}

	l := layout{idPos: idPos}
	for i, name := range header {
		if i == idPos {
			continue
		}
		l.columns = append(l.columns, name)
		l.features = append(l.features, i)
	}
	return l, nil
}

// split converts one raw row into an identifier and its feature vector.
// row is 1-based and only used in error messages.
func (l layout) split(row int, header []string, cells []any) (int64, []float64, error) {
	if len(cells) != len(header) {
		return 0, nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedRow, row, len(cells), len(header))
	}

	id, err := parseID(cells[l.idPos])
	if err != nil {
		return 0, nil, fmt.Errorf("row %d column %q: %w", row, header[l.idPos], err)
	}

	vec := make([]float64, len(l.features))
	for j, i := range l.features {
		v, err := parseCell(cells[i])
		if err != nil {
			return 0, nil, fmt.Errorf("row %d column %q: %w", row, header[i], err)
		}
		vec[j] = v
	}
	return id, vec, nil
}

// parseCell reads one feature value. Empty and null cells are missing (NaN),
// booleans map to 1 and 0.
func parseCell(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return parseText(string(x))
	case string:
		return parseText(x)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidCell, v)
	}
}

func parseText(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "null", "na":
		return math.NaN(), nil
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}
	return f, nil
}

func parseID(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidIdentifier, x)
		}
		return int64(x), nil
	case []byte:
		return parseIDText(string(x))
	case string:
		return parseIDText(x)
	default:
		return 0, fmt.Errorf("%w: %v", ErrInvalidIdentifier, v)
	}
}

func parseIDText(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	// exported dataframes sometimes write integer ids as 100002.0
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return parseID(f)
}
