package dataset

import "errors"

var (
	// ErrMissingIDColumn is returned when the identifier column is absent from the header.
	ErrMissingIDColumn = errors.New("identifier column not found")
	// ErrInvalidCell is returned when a cell cannot be read as a number.
	ErrInvalidCell = errors.New("invalid cell")
	// ErrInvalidIdentifier is returned when an identifier cell is not an integer.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrRaggedRow is returned when a row is wider or narrower than the header.
	ErrRaggedRow = errors.New("row width does not match header")
	// ErrInvalidTable is returned for table names that are not plain SQL identifiers.
	ErrInvalidTable = errors.New("invalid table name")
	// ErrUnsupportedDriver is returned for SQL drivers other than sqlite and postgres.
	ErrUnsupportedDriver = errors.New("unsupported driver")
)
