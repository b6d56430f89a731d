package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ginjaninja78/sales-rollup/internal/rollup"
	"github.com/ginjaninja78/sales-rollup/internal/types"
)

// WriteRollupCSV writes a labeled rollup as CSV.
func WriteRollupCSV(w io.Writer, res *rollup.Result) error {
	header, rows := Render(res)
	return writeCSV(w, header, rows)
}

// WriteTableCSV writes a table (typically the enriched dataset) as CSV.
func WriteTableCSV(w io.Writer, t *types.Table) error {
	return writeCSV(w, t.Columns, t.Rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
