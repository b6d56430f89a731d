// =============================================================================
// Sales Rollup - Shared Types
// =============================================================================
//
// This package contains the in-memory table shared by the loaders, the
// reconciliation engine, the rollup engine and the exporters. Keeping it in a
// leaf package avoids import cycles between those modules.
//
// A Table is a plain grid of strings. Every loader (CSV or XLSX) produces one,
// and every stage hands a new one to the next stage. Tables are never mutated
// after a stage returns them.
//
// =============================================================================

package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// TABLE
// =============================================================================

// Table is a named, column-ordered grid of string cells.
type Table struct {
	// Name identifies the table in error messages ("catalog", "transactions").
	Name string

	// Columns holds the header names in declaration order.
	Columns []string

	// Rows holds the data rows. Every row has exactly len(Columns) cells.
	Rows [][]string
}

// NewTable creates a table and pads or truncates every row to the column count.
func NewTable(name string, columns []string, rows [][]string) *Table {
	t := &Table{
		Name:    name,
		Columns: append([]string(nil), columns...),
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, t.fit(row))
	}
	return t
}

// fit returns a copy of row with exactly len(t.Columns) cells.
func (t *Table) fit(row []string) []string {
	out := make([]string, len(t.Columns))
	copy(out, row)
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of the first column named name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether a column named name exists.
func (t *Table) HasColumn(name string) bool {
	return t.Index(name) >= 0
}

// Cell returns the value at (row, col), or "" when col is out of range.
func (t *Table) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Column returns every value of the named column in row order.
func (t *Table) Column(name string) ([]string, error) {
	idx := t.Index(name)
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found in %s", name, t.Name)
	}
	values := make([]string, len(t.Rows))
	for i := range t.Rows {
		values[i] = t.Rows[i][idx]
	}
	return values, nil
}

// Clone returns a deep copy so a stage can derive a new table without
// touching its input.
func (t *Table) Clone() *Table {
	out := &Table{
		Name:    t.Name,
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

// =============================================================================
// HEADER HELPERS
// =============================================================================

// CleanHeaders trims header names and replaces empty ones with Column_N.
func CleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// IsRowEmpty reports whether every cell in row is blank.
func IsRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
