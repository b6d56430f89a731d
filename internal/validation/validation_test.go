package validation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ginjaninja78/sales-rollup/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireColumns_ReportsFirstMissingInOrder(t *testing.T) {
	tbl := types.NewTable(TableCatalog, []string{"FNS", "Brand"}, nil)

	err := RequireColumns(tbl, "FNS", "Brand Manager", "Cost")
	require.Error(t, err)

	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Brand Manager", missing.Column)
	assert.Equal(t, TableCatalog, missing.Table)
}

func TestRequireColumns_AllPresent(t *testing.T) {
	tbl := types.NewTable(TableTransactions, []string{"SKU ID", "Sales"}, nil)
	assert.NoError(t, RequireColumns(tbl, "Sales", "SKU ID"))
}

func TestMissing_Suggestion(t *testing.T) {
	tbl := types.NewTable(TableCatalog, []string{"Brand Manger", "Brand", "CP"}, nil)

	err := Missing(tbl, "Brand Manager")
	assert.Equal(t, "Brand Manger", err.Suggestion)
	assert.Contains(t, err.Error(), `did you mean "Brand Manger"`)
}

func TestSuggest_NothingClose(t *testing.T) {
	assert.Equal(t, "", Suggest("Brand Manager", []string{"SKU ID", "Sales"}))
	assert.Equal(t, "", Suggest("", []string{"SKU ID"}))
}

func TestSuggest_CaseOnlyDifference(t *testing.T) {
	assert.Equal(t, "gross units", Suggest("Gross Units", []string{"sales", "gross units"}))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(fmt.Errorf("wrap: %w", &MissingColumnError{Column: "x", Table: "t"})))
	assert.True(t, IsFatal(&ColumnNotFoundError{Role: "cost", Position: 8, Width: 3}))
	assert.False(t, IsFatal(errors.New("boom")))
}

func TestColumnNotFoundError_Message(t *testing.T) {
	err := &ColumnNotFoundError{Role: "cost", Table: TableCatalog, Position: 8, Width: 4}
	assert.Equal(t, "column not found: cost column expected at position 9 but catalog table has 4 column(s)", err.Error())
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"missing column", fmt.Errorf("enrich: %w", &MissingColumnError{Column: "Brand", Table: "catalog"}), "COL001"},
		{"column not found", &ColumnNotFoundError{Role: "cost", Table: "catalog", Position: 8, Width: 2}, "COL002"},
		{"too large", errors.New("http: request body FILE TOO LARGE"), "FILE001"},
		{"bad csv", errors.New("invalid csv: bare quote"), "FILE002"},
		{"busy", errors.New("too many concurrent runs, please try again later"), "RUN001"},
		{"unknown", errors.New("something else"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, MapError(tt.err).Code)
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.Equal(t, UserMessage{}, MapError(nil))
}

func TestUserMessage_String(t *testing.T) {
	m := UserMessage{Message: "Boom", Action: "Retry", Code: "ERR000"}
	assert.Equal(t, "Boom. Retry (ERR000)", m.String())
}

func TestWarnings(t *testing.T) {
	w := Warnings{TypeCoercions: 2}.Add(Warnings{UnmatchedKeys: 1})
	assert.Equal(t, Warnings{TypeCoercions: 2, UnmatchedKeys: 1}, w)
	assert.False(t, w.Empty())
	assert.Contains(t, FormatWarnings(w), "2 non-numeric value(s)")
	assert.Contains(t, FormatWarnings(w), "1 transaction row(s)")
	assert.Equal(t, "No warnings.", FormatWarnings(Warnings{}))
}
