// =============================================================================
// Sales Rollup - Export Labels
// =============================================================================
//
// Rollup rows carry a Kind and raw group values. This module renders them for
// presentation, the way a spreadsheet pivot table would:
//
//   | Manager     | Brand | Classification | Sum of Gross Units | Sum of Sales |
//   |-------------|-------|----------------|--------------------|--------------|
//   | M1          | Acme  | A              | 5                  | 100          |
//   | M1          | Acme  | B              | 3                  | 60           |
//   | M1          | Acme  | Acme Total     | 8                  | 160          |
//   | M1          |       | M1 Total       | 8                  | 160          |
//   | Grand Total |       |                | 8                  | 160          |
//
//   - A SUBTOTAL row keeps its own group values and puts "<value> Total"
//     in the innermost group field, where <value> is its deepest kept value
//   - The GRAND_TOTAL row puts "Grand Total" in the outermost field
//   - Measure columns are headed "Sum of <measure>"
//
// =============================================================================

package export

import (
	"github.com/ginjaninja78/sales-rollup/internal/numeric"
	"github.com/ginjaninja78/sales-rollup/internal/rollup"
)

// GrandTotalLabel is written in the outermost group field of the grand total.
const GrandTotalLabel = "Grand Total"

// SubtotalLabel renders the label of a subtotal for value.
func SubtotalLabel(value string) string {
	return value + " Total"
}

// MeasureHeader renders the column header of a summed measure.
func MeasureHeader(measure string) string {
	return "Sum of " + measure
}

// Header returns the presentation header of a rollup.
func Header(res *rollup.Result) []string {
	header := make([]string, 0, len(res.GroupKeys)+len(res.Measures))
	header = append(header, res.GroupKeys...)
	for _, m := range res.Measures {
		header = append(header, MeasureHeader(m))
	}
	return header
}

// LabelKeys returns the group cells of row as they are displayed.
func LabelKeys(row rollup.Row) []string {
	keys := append([]string(nil), row.Keys...)
	switch row.Kind {
	case rollup.Subtotal:
		if row.Level > 0 && row.Level < len(keys) {
			keys[len(keys)-1] = SubtotalLabel(keys[row.Level-1])
		}
	case rollup.GrandTotal:
		if len(keys) > 0 {
			keys[0] = GrandTotalLabel
		}
	}
	return keys
}

// Render returns the header and the labeled string rows of a rollup.
func Render(res *rollup.Result) ([]string, [][]string) {
	rows := make([][]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		cells := LabelKeys(row)
		for _, s := range row.Sums {
			cells = append(cells, numeric.Format(s))
		}
		rows = append(rows, cells)
	}
	return Header(res), rows
}

// showsRawKey reports whether column col of row displays the raw group value
// (as opposed to a label or an aggregated-away blank). Subtotal labels sit in
// the innermost field, which a subtotal never keeps.
func showsRawKey(row rollup.Row, col int) bool {
	return row.Kind != rollup.GrandTotal && col < row.Level
}
