package csvparser

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Basic(t *testing.T) {
	input := "SKU ID,Gross Units,Sales\nA1, 5 ,100\n,,\nB2,3\n"

	table, err := Parse(strings.NewReader(input), "transactions", DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, "transactions", table.Name)
	assert.Equal(t, []string{"SKU ID", "Gross Units", "Sales"}, table.Columns)
	require.Len(t, table.Rows, 2, "blank rows are skipped")
	assert.Equal(t, []string{"A1", "5 ", "100"}, table.Rows[0])
	assert.Equal(t, []string{"B2", "3", ""}, table.Rows[1], "short rows are padded")
}

func TestParse_Delimiters(t *testing.T) {
	tests := []struct {
		delimiter string
		input     string
	}{
		{"tab", "a\tb\n1\t2\n"},
		{"\\t", "a\tb\n1\t2\n"},
		{"pipe", "a|b\n1|2\n"},
		{";", "a;b\n1;2\n"},
		{"", "a,b\n1,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.delimiter, func(t *testing.T) {
			table, err := Parse(strings.NewReader(tt.input), "t", Settings{Delimiter: tt.delimiter})
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, table.Columns)
			assert.Equal(t, [][]string{{"1", "2"}}, table.Rows)
		})
	}
}

func TestParse_MultiLineHeader(t *testing.T) {
	input := "Final Sale,,Brand\nUnits,Amount,\n4,10,Acme\n"
	settings := DefaultSettings()
	settings.HeaderRows = 2

	table, err := Parse(strings.NewReader(input), "t", settings)
	require.NoError(t, err)
	assert.Equal(t, []string{"Final Sale Units", "Amount", "Brand"}, table.Columns)
	assert.Len(t, table.Rows, 1)
}

func TestParse_EmptyHeaderCellsGetNames(t *testing.T) {
	table, err := Parse(strings.NewReader("a,,c\n1,2,3\n"), "t", DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "Column_2", "c"}, table.Columns)
}

func TestParse_BOMIsStripped(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("SKU ID,Units\nA,1\n")...)

	table, err := Parse(bytes.NewReader(input), "t", DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, "SKU ID", table.Columns[0])
}

func TestParse_Windows1252(t *testing.T) {
	// "Café" with é as 0xE9.
	input := []byte("Brand\nCaf\xe9\n")

	table, err := Parse(bytes.NewReader(input), "t", Settings{Encoding: "windows-1252"})
	require.NoError(t, err)
	assert.Equal(t, "Café", table.Rows[0][0])
}

func TestParse_InvalidUTF8IsSanitized(t *testing.T) {
	input := []byte("Brand\nCaf\xe9\n")

	table, err := Parse(bytes.NewReader(input), "t", DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, "Caf?", table.Rows[0][0])
}

func TestParse_Errors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := Parse(strings.NewReader(""), "catalog", DefaultSettings())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmptyFile))
	})

	t.Run("unsupported encoding", func(t *testing.T) {
		_, err := Parse(strings.NewReader("a\n"), "catalog", Settings{Encoding: "ebcdic"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported encoding")
	})

	t.Run("too few header rows", func(t *testing.T) {
		_, err := Parse(strings.NewReader("a\n"), "catalog", Settings{HeaderRows: 3})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid csv")
	})

	t.Run("read failure", func(t *testing.T) {
		_, err := Parse(iotest.ErrReader(io.ErrUnexpectedEOF), "catalog", DefaultSettings())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid csv")
	})
}

func TestUTF8Sanitizer_SplitSequence(t *testing.T) {
	// "é" is 0xC3 0xA9; OneByteReader splits it across reads.
	src := iotest.OneByteReader(bytes.NewReader([]byte("x\xc3\xa9y\xff")))

	out, err := io.ReadAll(NewUTF8Sanitizer(src))
	require.NoError(t, err)
	assert.Equal(t, "xéy?", string(out))
}

func TestBOMSkippingReader_ShortInput(t *testing.T) {
	out, err := io.ReadAll(NewBOMSkippingReader(strings.NewReader("a")))
	require.NoError(t, err)
	assert.Equal(t, "a", string(out))
}
