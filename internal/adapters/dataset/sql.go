package dataset

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/okian/creditscore/internal/adapters/repository"
	"github.com/samber/lo"
	_ "modernc.org/sqlite" // sqlite driver
)

const (
	// DriverSQLite reads from a SQLite database file.
	DriverSQLite = "sqlite"
	// DriverPostgres reads from a PostgreSQL database; DSN is a lib/pq connection string.
	DriverPostgres = "postgres"
)

// DefaultTable is queried when no table name is configured.
const DefaultTable = "clients"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLSource reads every row of one table. The identifier column and all
// other columns are interpreted as in a CSV file.
type SQLSource struct {
	Driver   string
	DSN      string
	Table    string
	IDColumn string
}

var _ Source = (*SQLSource)(nil)

func (s *SQLSource) String() string { return s.Driver + ":" + s.table() }

func (s *SQLSource) table() string {
	if s.Table == "" {
		return DefaultTable
	}
	return s.Table
}

// Load implements Source.
func (s *SQLSource) Load(ctx context.Context) (*repository.Table, error) {
	if s.Driver != DriverSQLite && s.Driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, s.Driver)
	}
	query, err := selectAll(s.table())
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, s.Driver, s.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", s.Driver, err)
	}
	defer db.Close()

	return ReadSQL(ctx, db, query, s.IDColumn)
}

// ReadSQL runs query and builds a table from its result set.
func ReadSQL(ctx context.Context, db *sqlx.DB, query, idColumn string) (*repository.Table, error) {
	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query dataset: %w", err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	l, err := newLayout(header, idColumn)
	if err != nil {
		return nil, err
	}
	b, err := repository.NewBuilder(l.columns)
	if err != nil {
		return nil, fmt.Errorf("dataset columns: %w", err)
	}

	for row := 1; rows.Next(); row++ {
		cells, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("scan row %d: %w", row, err)
		}
		id, vec, err := l.split(row, header, cells)
		if err != nil {
			return nil, err
		}
		if err := b.Add(id, vec); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return b.Build(), nil
}

// selectAll quotes name so that mixed-case tables keep working on postgres.
func selectAll(name string) (string, error) {
	if !tableName.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTable, name)
	}
	parts := lo.Map(strings.Split(name, "."), func(p string, _ int) string {
		return `"` + p + `"`
	})
	return "SELECT * FROM " + strings.Join(parts, "."), nil
}
