package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sales-rollup/internal/csvparser"
)

func xlsxBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"SKU ID", "Sales"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"A1", 10}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDetect(t *testing.T) {
	workbook := xlsxBytes(t)

	tests := []struct {
		name     string
		data     []byte
		filename string
		want     string
	}{
		{"zip content wins over csv name", workbook, "sales.csv", FormatXLSX},
		{"xlsx name", []byte("a,b"), "catalog.XLSX", FormatXLSX},
		{"csv name", []byte("a,b"), "catalog.csv", FormatCSV},
		{"no name", []byte("a,b"), "", FormatCSV},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.data, tt.filename))
		})
	}
}

func TestRegistry_Load(t *testing.T) {
	reg := DefaultRegistry()
	opts := Options{CSV: csvparser.DefaultSettings()}

	table, err := reg.Load([]byte("SKU ID,Sales\nA1,10\n"), "t.csv", "transactions", opts)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A1", "10"}}, table.Rows)

	table, err = reg.Load(xlsxBytes(t), "t.bin", "transactions", opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"SKU ID", "Sales"}, table.Columns)
	assert.Equal(t, [][]string{{"A1", "10"}}, table.Rows)
}

func TestRegistry_LoadEmpty(t *testing.T) {
	_, err := DefaultRegistry().Load(nil, "x.csv", "catalog", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoFile))
}

func TestRegistry_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte("FNS\nX\n"), 0o644))

	table, err := DefaultRegistry().LoadFile(path, "catalog", Options{CSV: csvparser.DefaultSettings()})
	require.NoError(t, err)
	assert.Equal(t, "catalog", table.Name)

	_, err = DefaultRegistry().LoadFile(filepath.Join(t.TempDir(), "missing.csv"), "catalog", Options{})
	require.Error(t, err)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	reg := DefaultRegistry()
	assert.Panics(t, func() { reg.Register(csvParser{}) })
	assert.Nil(t, reg.Get("parquet"))
}
