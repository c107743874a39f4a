package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/creditscore/internal/adapters/repository"
)

// CSVSource reads records from a comma separated file with a header row.
type CSVSource struct {
	Path     string
	IDColumn string
}

var _ Source = (*CSVSource)(nil)

func (s *CSVSource) String() string { return "csv:" + s.Path }

// Load implements Source.
func (s *CSVSource) Load(ctx context.Context) (*repository.Table, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	return ReadCSV(ctx, f, s.IDColumn)
}

// ReadCSV builds a table from r. Rows are read in order and the context is
// checked between rows.
func ReadCSV(ctx context.Context, r io.Reader, idColumn string) (*repository.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("read header: empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)
	// spreadsheet exports may start with a UTF-8 byte order mark
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	l, err := newLayout(header, idColumn)
	if err != nil {
		return nil, err
	}
	b, err := repository.NewBuilder(l.columns)
	if err != nil {
		return nil, fmt.Errorf("dataset header: %w", err)
	}

	cells := make([]any, len(header))
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		cells = cells[:0]
		for _, c := range rec {
			cells = append(cells, c)
		}
		id, vec, err := l.split(row, header, cells)
		if err != nil {
			return nil, err
		}
		if err := b.Add(id, vec); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
	}

	return b.Build(), nil
}
