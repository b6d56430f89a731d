// =============================================================================
// Sales Rollup - CSV Parser Module
// =============================================================================
//
// This module parses delimited text uploads (catalog or transactions) into a
// types.Table. It handles:
//   - Different delimiters (comma, pipe, tab, semicolon)
//   - Multi-line headers
//   - Legacy single-byte encodings (Windows-1252, ISO-8859-1)
//   - A UTF-8 byte order mark written by spreadsheet exports
//   - Invalid UTF-8 bytes, replaced with '?'
//
// Cells are kept verbatim apart from header trimming. Numeric coercion and key
// trimming belong to later stages.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/sales-rollup/internal/types"
)

// ErrEmptyFile is returned when the input holds no header row.
var ErrEmptyFile = errors.New("empty file")

// =============================================================================
// SETTINGS
// =============================================================================

// Settings controls how a CSV upload is read.
type Settings struct {
	// Delimiter: a single character or "tab", "pipe", "semicolon".
	// Default: ","
	Delimiter string

	// Encoding: "utf-8", "windows-1252", "iso-8859-1".
	// Default: "utf-8"
	Encoding string

	// HeaderRows is the number of rows merged into the header.
	// Default: 1
	HeaderRows int
}

// DefaultSettings returns comma-delimited UTF-8 with one header row.
func DefaultSettings() Settings {
	return Settings{Delimiter: ",", Encoding: "utf-8", HeaderRows: 1}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV stream into a table called name.
//
// PARSING PROCESS:
//  1. Decode the configured encoding to UTF-8 (or sanitize UTF-8 input)
//  2. Configure the CSV reader with the delimiter
//  3. Read and merge the header rows
//  4. Keep every non-empty data row, padded to the header width
func Parse(r io.Reader, name string, settings Settings) (*types.Table, error) {
	decoded, err := decode(r, settings.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(bufio.NewReader(decoded))
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv in %s: %w", name, err)
	}

	if len(allRows) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}

	headerRows := settings.HeaderRows
	if headerRows <= 0 {
		headerRows = 1
	}
	if len(allRows) < headerRows {
		return nil, fmt.Errorf("invalid csv in %s: file has fewer rows than the %d header rows", name, headerRows)
	}

	headers := mergeHeaders(allRows[:headerRows])

	dataRows := make([][]string, 0, len(allRows)-headerRows)
	for _, row := range allRows[headerRows:] {
		if types.IsRowEmpty(row) {
			continue
		}
		dataRows = append(dataRows, row)
	}

	return types.NewTable(name, headers, dataRows), nil
}

// configureReader applies the delimiter and the lenient parsing options.
func configureReader(reader *csv.Reader, settings Settings) {
	reader.Comma = Delimiter(settings.Delimiter)

	// Exports often end rows early when trailing cells are blank.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// Delimiter maps a configured delimiter name to its rune.
func Delimiter(value string) rune {
	switch value {
	case "\\t", "\t", "tab", "TAB":
		return '\t'
	case "|", "pipe", "PIPE":
		return '|'
	case ";", "semicolon":
		return ';'
	}
	if len(value) > 0 {
		return rune(value[0])
	}
	return ','
}

// mergeHeaders joins the non-empty cells of each header column with a space.
//
//	Row 1: "Final Sale", "",       "Brand"
//	Row 2: "Units",      "Amount", ""
//	Result: "Final Sale Units", "Amount", "Brand"
func mergeHeaders(rows [][]string) []string {
	if len(rows) == 1 {
		return types.CleanHeaders(rows[0])
	}

	maxCols := 0
	for _, row := range rows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string
		for _, row := range rows {
			if col < len(row) {
				if value := strings.TrimSpace(row[col]); value != "" {
					parts = append(parts, value)
				}
			}
		}
		headers[col] = strings.Join(parts, " ")
	}
	return types.CleanHeaders(headers)
}

// =============================================================================
// ENCODING
// =============================================================================

// decode wraps r so that it yields UTF-8.
func decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return NewUTF8Sanitizer(NewBOMSkippingReader(r)), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "iso-8859-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}
