// =============================================================================
// Sales Rollup - XLSX Workbook Writer
// =============================================================================
//
// Workbook collects every table of a run into one spreadsheet:
//   - one sheet per rollup, outer group cells merged over their block,
//     subtotal and grand-total rows in bold
//   - a flat sheet for the enriched dataset
//   - a Summary sheet of run metrics
//
// Measure cells are written as numbers so the workbook stays usable for
// further analysis.
//
// =============================================================================

package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sales-rollup/internal/rollup"
	"github.com/ginjaninja78/sales-rollup/internal/types"
)

// maxSheetName is the longest sheet name Excel accepts.
const maxSheetName = 31

// KV is one line of the Summary sheet.
type KV struct {
	Key   string
	Value any
}

// Workbook builds an XLSX file sheet by sheet.
type Workbook struct {
	file      *excelize.File
	boldStyle int
	headStyle int
	sheets    int
}

// NewWorkbook creates an empty workbook.
func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating style: %w", err)
	}
	head, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating style: %w", err)
	}

	return &Workbook{file: f, boldStyle: bold, headStyle: head}, nil
}

// Close releases the workbook.
func (wb *Workbook) Close() error {
	return wb.file.Close()
}

// SheetName makes name acceptable to Excel: forbidden characters become
// '-', and the result is cut to 31 characters.
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "Sheet"
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}

// newSheet adds a sheet. The first sheet renames excelize's default one.
func (wb *Workbook) newSheet(name string) (string, error) {
	name = SheetName(name)
	wb.sheets++
	if wb.sheets == 1 {
		if err := wb.file.SetSheetName("Sheet1", name); err != nil {
			return "", fmt.Errorf("naming sheet %q: %w", name, err)
		}
		return name, nil
	}
	if idx, _ := wb.file.GetSheetIndex(name); idx >= 0 {
		return "", fmt.Errorf("duplicate sheet %q", name)
	}
	if _, err := wb.file.NewSheet(name); err != nil {
		return "", fmt.Errorf("adding sheet %q: %w", name, err)
	}
	return name, nil
}

// cell returns the A1 reference of a 0-based (col, row).
func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row+1)
	return name
}

func (wb *Workbook) writeHeader(sheet string, header []string) error {
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := wb.file.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}
	if len(header) == 0 {
		return nil
	}
	if err := wb.file.SetCellStyle(sheet, cell(0, 0), cell(len(header)-1, 0), wb.headStyle); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(header))
	return wb.file.SetColWidth(sheet, "A", last, 18)
}

// AddRollup writes res to a new sheet.
func (wb *Workbook) AddRollup(title string, res *rollup.Result) error {
	sheet, err := wb.newSheet(title)
	if err != nil {
		return err
	}
	if err := wb.writeHeader(sheet, Header(res)); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}

	groups := len(res.GroupKeys)
	width := groups + len(res.Measures)

	for i, row := range res.Rows {
		values := make([]any, 0, width)
		for _, k := range LabelKeys(row) {
			values = append(values, k)
		}
		for _, s := range row.Sums {
			values = append(values, s.InexactFloat64())
		}
		if err := wb.file.SetSheetRow(sheet, cell(0, i+1), &values); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
		if row.Kind != rollup.Detail {
			if err := wb.file.SetCellStyle(sheet, cell(0, i+1), cell(width-1, i+1), wb.boldStyle); err != nil {
				return fmt.Errorf("styling %s row %d: %w", sheet, i+1, err)
			}
		}
	}

	for _, m := range MergeRanges(res.Rows, groups) {
		if err := wb.file.MergeCell(sheet, cell(m.Col, m.First+1), cell(m.Col, m.Last+1)); err != nil {
			return fmt.Errorf("merging %s cells: %w", sheet, err)
		}
	}
	return nil
}

// AddTable writes t to a new sheet as plain text cells.
func (wb *Workbook) AddTable(title string, t *types.Table) error {
	sheet, err := wb.newSheet(title)
	if err != nil {
		return err
	}
	if err := wb.writeHeader(sheet, t.Columns); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	for i, row := range t.Rows {
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := wb.file.SetSheetRow(sheet, cell(0, i+1), &values); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// AddSummary writes key/value lines to a new sheet.
func (wb *Workbook) AddSummary(title string, lines []KV) error {
	sheet, err := wb.newSheet(title)
	if err != nil {
		return err
	}
	if err := wb.writeHeader(sheet, []string{"Metric", "Value"}); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	if err := wb.file.SetColWidth(sheet, "A", "A", 36); err != nil {
		return err
	}
	for i, line := range lines {
		values := []any{line.Key, line.Value}
		if err := wb.file.SetSheetRow(sheet, cell(0, i+1), &values); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// Write serializes the workbook to w with the first sheet active.
func (wb *Workbook) Write(w io.Writer) error {
	wb.file.SetActiveSheet(0)
	if err := wb.file.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// =============================================================================
// MERGED GROUP CELLS
// =============================================================================

// MergeRange is a vertical run of rows (0-based, inclusive) sharing a raw
// group value in column Col.
type MergeRange struct {
	Col   int
	First int
	Last  int
}

// MergeRanges finds the runs of identical outer group values. The innermost
// group column is never merged; neither are label cells.
func MergeRanges(rows []rollup.Row, groups int) []MergeRange {
	var out []MergeRange
	for col := 0; col < groups-1; col++ {
		start := -1
		flush := func(end int) {
			if start >= 0 && end > start {
				out = append(out, MergeRange{Col: col, First: start, Last: end})
			}
			start = -1
		}
		for i, row := range rows {
			if !showsRawKey(row, col) {
				flush(i - 1)
				continue
			}
			if start >= 0 && !samePrefix(rows[start], row, col+1) {
				flush(i - 1)
			}
			if start < 0 {
				start = i
			}
		}
		flush(len(rows) - 1)
	}
	return out
}

func samePrefix(a, b rollup.Row, n int) bool {
	for i := 0; i < n; i++ {
		if a.Keys[i] != b.Keys[i] {
			return false
		}
	}
	return true
}
