package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable_PadsAndTruncatesRows(t *testing.T) {
	tbl := NewTable("catalog", []string{"A", "B", "C"}, [][]string{
		{"1"},
		{"1", "2", "3", "4"},
	})

	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"1", "", ""}, tbl.Rows[0])
	assert.Equal(t, []string{"1", "2", "3"}, tbl.Rows[1])
}

func TestTable_IndexReturnsFirstMatch(t *testing.T) {
	tbl := NewTable("t", []string{"Brand", "Sales", "Brand"}, nil)

	assert.Equal(t, 0, tbl.Index("Brand"))
	assert.Equal(t, 1, tbl.Index("Sales"))
	assert.Equal(t, -1, tbl.Index("brand"))
	assert.False(t, tbl.HasColumn("Manager"))
}

func TestTable_Column(t *testing.T) {
	tbl := NewTable("t", []string{"Key", "Units"}, [][]string{{"A1", "5"}, {"A2", "3"}})

	units, err := tbl.Column("Units")
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "3"}, units)

	_, err = tbl.Column("Sales")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Sales"`)
}

func TestTable_CellOutOfRange(t *testing.T) {
	tbl := NewTable("t", []string{"Key"}, [][]string{{"A1"}})

	assert.Equal(t, "A1", tbl.Cell(0, 0))
	assert.Equal(t, "", tbl.Cell(0, 5))
	assert.Equal(t, "", tbl.Cell(3, 0))
	assert.Equal(t, "", tbl.Cell(0, -1))
}

func TestTable_CloneIsIndependent(t *testing.T) {
	tbl := NewTable("t", []string{"Key"}, [][]string{{"A1"}})
	c := tbl.Clone()
	c.Rows[0][0] = "changed"
	c.Columns[0] = "Other"

	assert.Equal(t, "A1", tbl.Rows[0][0])
	assert.Equal(t, "Key", tbl.Columns[0])
}

func TestCleanHeaders(t *testing.T) {
	got := CleanHeaders([]string{" SKU ID ", "", "Sales"})
	assert.Equal(t, []string{"SKU ID", "Column_2", "Sales"}, got)
}

func TestIsRowEmpty(t *testing.T) {
	assert.True(t, IsRowEmpty([]string{"", "  "}))
	assert.True(t, IsRowEmpty(nil))
	assert.False(t, IsRowEmpty([]string{"", "x"}))
}
