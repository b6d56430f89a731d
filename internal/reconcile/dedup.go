package reconcile

import (
	"strings"

	"github.com/ginjaninja78/sales-rollup/internal/types"
)

// NormalizeKey is the only key normalization applied anywhere: surrounding
// whitespace is trimmed and the cell text is used as-is. "123" and "123.0"
// stay distinct.
func NormalizeKey(s string) string {
	return strings.TrimSpace(s)
}

// Dedup returns a copy of catalog with one row per key column value. The
// first occurrence of a key wins and row order is preserved. The key cell of
// every kept row is normalized. dropped is the number of discarded rows.
func Dedup(catalog *types.Table, keyIndex int) (deduped *types.Table, dropped int) {
	out := &types.Table{
		Name:    catalog.Name,
		Columns: append([]string(nil), catalog.Columns...),
		Rows:    make([][]string, 0, len(catalog.Rows)),
	}

	seen := make(map[string]struct{}, len(catalog.Rows))
	for _, row := range catalog.Rows {
		key := NormalizeKey(cellAt(row, keyIndex))
		if _, ok := seen[key]; ok {
			dropped++
			continue
		}
		seen[key] = struct{}{}

		kept := append([]string(nil), row...)
		if keyIndex >= 0 && keyIndex < len(kept) {
			kept[keyIndex] = key
		}
		out.Rows = append(out.Rows, kept)
	}
	return out, dropped
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
