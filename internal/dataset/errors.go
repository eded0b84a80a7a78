package dataset

import (
	"fmt"
	"strings"
)

// SchemaError indicates that one or more required columns are absent from
// the source. It is fatal: the loader aborts rather than guessing mappings.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("dataset schema mismatch: missing required columns %s",
		strings.Join(e.Missing, ", "))
}

// RowParseError describes a single malformed row. Rows with parse errors are
// dropped and counted, never silently discarded; the error itself is only
// aggregated into the CleanResult, not returned from Load.
type RowParseError struct {
	Line   int
	Column string
	Reason string
}

func (e *RowParseError) Error() string {
	return fmt.Sprintf("row %d: column %s: %s", e.Line, e.Column, e.Reason)
}
