// Package loader turns an uploaded file into a types.Table, picking the CSV
// or XLSX parser by content sniffing with the file name as a hint.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/sales-rollup/internal/csvparser"
	"github.com/ginjaninja78/sales-rollup/internal/types"
	"github.com/ginjaninja78/sales-rollup/internal/xlsxparser"
)

// Formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ErrNoFile is returned when an upload carries no bytes.
var ErrNoFile = errors.New("no file provided")

// zipMagic starts every XLSX workbook.
var zipMagic = []byte("PK\x03\x04")

// Options carries the per-format parsing settings.
type Options struct {
	CSV   csvparser.Settings
	Sheet string
}

// Parser reads one file format into a table.
type Parser interface {
	Parse(r io.Reader, name string, opts Options) (*types.Table, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with the CSV and XLSX parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(csvParser{})
	r.Register(xlsxParser{})
	return r
}

type csvParser struct{}

func (csvParser) Format() string { return FormatCSV }

func (csvParser) Parse(r io.Reader, name string, opts Options) (*types.Table, error) {
	return csvparser.Parse(r, name, opts.CSV)
}

type xlsxParser struct{}

func (xlsxParser) Format() string { return FormatXLSX }

func (xlsxParser) Parse(r io.Reader, name string, opts Options) (*types.Table, error) {
	return xlsxparser.Parse(r, name, xlsxparser.Settings{Sheet: opts.Sheet})
}

// Detect returns the format of data. Zip content is a workbook whatever its
// name; otherwise an .xlsx name with non-zip content is still reported as
// xlsx so the parser can fail with a precise error.
func Detect(data []byte, filename string) string {
	if bytes.HasPrefix(data, zipMagic) {
		return FormatXLSX
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	}
	return FormatCSV
}

// Load parses data as a table called name.
func (r *Registry) Load(data []byte, filename, name string, opts Options) (*types.Table, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoFile)
	}

	format := Detect(data, filename)
	p := r.Get(format)
	if p == nil {
		return nil, fmt.Errorf("%s: no parser registered for format %q", name, format)
	}
	return p.Parse(bytes.NewReader(data), name, opts)
}

// LoadFile reads path from disk and parses it.
func (r *Registry) LoadFile(path, name string, opts Options) (*types.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s file: %w", name, err)
	}
	return r.Load(data, path, name, opts)
}
