// =============================================================================
// Sales Rollup - Validation Errors
// =============================================================================
//
// This module defines the error taxonomy of a reconciliation run:
//   - MissingColumnError : a mandatory column is absent (fatal)
//   - ColumnNotFoundError: a positional fallback ran past the last column (fatal)
//   - Warnings           : non-fatal counters (type coercions, unmatched keys)
//
// Fatal errors abort the run before any join or rollup work. They travel
// unchanged to the run boundary where MapError turns them into one
// user-facing message.
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/sales-rollup/internal/types"
)

// Table names used in error messages.
const (
	TableCatalog      = "catalog"
	TableTransactions = "transactions"
	TableEnriched     = "enriched"
)

// =============================================================================
// FATAL ERRORS
// =============================================================================

// MissingColumnError reports a mandatory column absent from a table.
type MissingColumnError struct {
	// Column is the column (or role description) that could not be found.
	Column string

	// Table is the table that was searched.
	Table string

	// Suggestion is the closest existing header, if any was close enough.
	Suggestion string
}

// Error implements the error interface.
func (e *MissingColumnError) Error() string {
	msg := fmt.Sprintf("missing required column %q in %s table", e.Column, e.Table)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// ColumnNotFoundError reports a positional fallback beyond the table width.
type ColumnNotFoundError struct {
	Role     string
	Table    string
	Position int // 0-based
	Width    int
}

// Error implements the error interface.
func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column not found: %s column expected at position %d but %s table has %d column(s)",
		e.Role, e.Position+1, e.Table, e.Width)
}

// IsFatal reports whether err belongs to the fatal precondition taxonomy.
func IsFatal(err error) bool {
	var missing *MissingColumnError
	var notFound *ColumnNotFoundError
	return errors.As(err, &missing) || errors.As(err, &notFound)
}

// =============================================================================
// PRECONDITION CHECKS
// =============================================================================

// Missing builds a MissingColumnError for table t, with a header suggestion.
func Missing(t *types.Table, column string) *MissingColumnError {
	var headers []string
	name := ""
	if t != nil {
		headers = t.Columns
		name = t.Name
	}
	return &MissingColumnError{
		Column:     column,
		Table:      name,
		Suggestion: Suggest(column, headers),
	}
}

// RequireColumns returns an error naming the first column of columns that t
// lacks, in the order given.
func RequireColumns(t *types.Table, columns ...string) error {
	for _, c := range columns {
		if !t.HasColumn(c) {
			return Missing(t, c)
		}
	}
	return nil
}

// =============================================================================
// NON-FATAL WARNINGS
// =============================================================================

// Warnings aggregates non-fatal conditions of a run. They are counted, never
// reported per row.
type Warnings struct {
	// TypeCoercions counts cells that were not numeric and were coerced to 0.
	TypeCoercions int `json:"type_coercions"`

	// UnmatchedKeys counts transaction rows with no catalog match.
	UnmatchedKeys int `json:"unmatched_keys"`
}

// Add returns the element-wise sum of w and other.
func (w Warnings) Add(other Warnings) Warnings {
	return Warnings{
		TypeCoercions: w.TypeCoercions + other.TypeCoercions,
		UnmatchedKeys: w.UnmatchedKeys + other.UnmatchedKeys,
	}
}

// Empty reports whether no warning was recorded.
func (w Warnings) Empty() bool {
	return w.TypeCoercions == 0 && w.UnmatchedKeys == 0
}

// FormatWarnings renders warnings for the CLI summary.
func FormatWarnings(w Warnings) string {
	if w.Empty() {
		return "No warnings."
	}

	var lines []string
	if w.TypeCoercions > 0 {
		lines = append(lines, fmt.Sprintf("%d non-numeric value(s) coerced to 0", w.TypeCoercions))
	}
	if w.UnmatchedKeys > 0 {
		lines = append(lines, fmt.Sprintf("%d transaction row(s) had no catalog match", w.UnmatchedKeys))
	}
	return strings.Join(lines, "\n")
}
