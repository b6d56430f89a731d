// =============================================================================
// Sales Rollup - XLSX Parser
// =============================================================================
//
// This module reads a worksheet of an uploaded workbook into a types.Table.
// Catalog extracts in particular are usually maintained as spreadsheets.
//
// SHEET SELECTION:
//   An explicit sheet name is used when configured. Otherwise the first sheet
//   of the workbook is read.
//
// LAYOUT:
//   The first non-empty row is the header. Every later non-empty row is data.
//   Cell values are the formatted strings excelize reports.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sales-rollup/internal/types"
)

// Settings controls how a workbook upload is read.
type Settings struct {
	// Sheet is the worksheet to read. Empty selects the first sheet.
	Sheet string
}

// Parse reads a workbook stream into a table called name.
func Parse(r io.Reader, name string, settings Settings) (*types.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet in %s: %w", name, err)
	}
	defer f.Close()

	sheetName, err := selectSheet(f, settings.Sheet)
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet in %s: %w", name, err)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet in %s: failed to read rows: %w", name, err)
	}

	// Skip leading blank rows until the header.
	start := 0
	for start < len(rows) && types.IsRowEmpty(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, fmt.Errorf("%s: sheet %q is an empty file", name, sheetName)
	}

	headers := types.CleanHeaders(rows[start])

	dataRows := make([][]string, 0, len(rows)-start-1)
	for _, row := range rows[start+1:] {
		if len(row) == 0 || types.IsRowEmpty(row) {
			continue
		}
		dataRows = append(dataRows, row)
	}

	return types.NewTable(name, headers, dataRows), nil
}

// selectSheet returns the requested sheet, or the first one when none is set.
func selectSheet(f *excelize.File, requested string) (string, error) {
	if requested == "" {
		sheetName := f.GetSheetName(0)
		if sheetName == "" {
			return "", fmt.Errorf("workbook has no sheets")
		}
		return sheetName, nil
	}

	idx, err := f.GetSheetIndex(requested)
	if err != nil {
		return "", err
	}
	if idx < 0 {
		return "", fmt.Errorf("sheet %q not found (available: %v)", requested, f.GetSheetList())
	}
	return requested, nil
}

// SheetNames lists the worksheets of a workbook stream.
func SheetNames(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
