// =============================================================================
// Sales Rollup - Rollup Engine
// =============================================================================
//
// Build computes grouped sums over an enriched table and synthesizes subtotal
// and grand-total rows.
//
// ALGORITHM:
//   1. DETAIL rows: one per combination of group values present in the data
//   2. SUBTOTAL rows: one per distinct value of every strict prefix of the
//      group keys, summed from the DETAIL rows
//   3. GRAND_TOTAL row: the sum of every DETAIL row
//   4. Deterministic ordering (see order.go)
//
// Rows carry a structured Kind and the raw group values. Display labels such
// as "<value> Total" and "Grand Total" are rendered by the export package.
//
// =============================================================================

package rollup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/sales-rollup/internal/numeric"
	"github.com/ginjaninja78/sales-rollup/internal/types"
	"github.com/ginjaninja78/sales-rollup/internal/validation"
	"github.com/shopspring/decimal"
)

// Kind tags the aggregation depth of a row.
type Kind int

const (
	Detail Kind = iota
	Subtotal
	GrandTotal
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Detail:
		return "DETAIL"
	case Subtotal:
		return "SUBTOTAL"
	case GrandTotal:
		return "GRAND_TOTAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the kind for JSON responses.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the names produced by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "DETAIL":
		*k = Detail
	case "SUBTOTAL":
		*k = Subtotal
	case "GRAND_TOTAL":
		*k = GrandTotal
	default:
		return fmt.Errorf("unknown row kind %q", text)
	}
	return nil
}

// Row is one line of rollup output.
type Row struct {
	Kind Kind `json:"kind"`

	// Level is the number of leading group values the row keeps. DETAIL rows
	// keep all of them, SUBTOTAL rows keep their prefix length, the grand
	// total keeps none.
	Level int `json:"level"`

	// Keys holds one value per group key. Positions at or beyond Level are
	// aggregated away and always "".
	Keys []string `json:"keys"`

	// Sums holds one unlabeled sum per measure.
	Sums []decimal.Decimal `json:"sums"`
}

// rank orders a row against its own ancestors: DETAIL 0, the innermost
// subtotal 1, and so on outward.
func (r Row) rank(groups int) int {
	return groups - r.Level
}

// Options controls grouping policy.
type Options struct {
	// KeepMissingKeys groups rows with a blank group value under "" instead
	// of dropping them.
	KeepMissingKeys bool
}

// Result is the ordered output of Build.
type Result struct {
	GroupKeys []string `json:"group_keys"`
	Measures  []string `json:"measures"`
	Rows      []Row    `json:"rows"`

	// DroppedRows counts input rows skipped for a blank group value when
	// KeepMissingKeys is off.
	DroppedRows int `json:"dropped_rows"`

	Warnings validation.Warnings `json:"warnings"`
}

// ErrNoGroupKeys is returned when Build is called without group keys.
var ErrNoGroupKeys = errors.New("rollup requires at least one group key")

// ErrNoMeasures is returned when Build is called without measures.
var ErrNoMeasures = errors.New("rollup requires at least one measure")

// Build aggregates t by groupKeys, summing measures.
func Build(t *types.Table, groupKeys, measures []string, opts Options) (*Result, error) {
	if len(groupKeys) == 0 {
		return nil, ErrNoGroupKeys
	}
	if len(measures) == 0 {
		return nil, ErrNoMeasures
	}
	if err := validation.RequireColumns(t, groupKeys...); err != nil {
		return nil, err
	}
	if err := validation.RequireColumns(t, measures...); err != nil {
		return nil, err
	}

	keyIdx := indexes(t, groupKeys)
	measureIdx := indexes(t, measures)

	res := &Result{
		GroupKeys: append([]string(nil), groupKeys...),
		Measures:  append([]string(nil), measures...),
	}

	// Step 1: detail aggregation.
	var coercer numeric.Coercer
	details := newAccumulator(len(measures))
	for _, row := range t.Rows {
		keys := make([]string, len(keyIdx))
		missing := false
		for i, idx := range keyIdx {
			keys[i] = row[idx]
			if isMissing(keys[i]) {
				keys[i] = ""
				missing = true
			}
		}
		if missing && !opts.KeepMissingKeys {
			res.DroppedRows++
			continue
		}

		values := make([]decimal.Decimal, len(measureIdx))
		for i, idx := range measureIdx {
			values[i] = coercer.Coerce(row[idx])
		}
		details.add(keys, values)
	}

	rows := details.rows(Detail, len(groupKeys))

	// Step 2: subtotal synthesis per strict prefix.
	for level := 1; level < len(groupKeys); level++ {
		subtotals := newAccumulator(len(measures))
		for _, d := range rows[:details.len()] {
			prefix := make([]string, len(groupKeys))
			copy(prefix, d.Keys[:level])
			subtotals.add(prefix, d.Sums)
		}
		rows = append(rows, subtotals.rows(Subtotal, level)...)
	}

	// Step 3: grand total.
	grand := Row{
		Kind:  GrandTotal,
		Level: 0,
		Keys:  make([]string, len(groupKeys)),
		Sums:  zeros(len(measures)),
	}
	for _, d := range rows[:details.len()] {
		for i := range grand.Sums {
			grand.Sums[i] = grand.Sums[i].Add(d.Sums[i])
		}
	}
	rows = append(rows, grand)

	// Step 4: ordering.
	Sort(rows, len(groupKeys))

	res.Rows = rows
	res.Warnings.TypeCoercions = coercer.Warnings
	return res, nil
}

func indexes(t *types.Table, names []string) []int {
	out := make([]int, len(names))
	for i, n := range names {
		out[i] = t.Index(n)
	}
	return out
}

func zeros(n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.Zero
	}
	return out
}

// =============================================================================
// ACCUMULATOR
// =============================================================================

// accumulator sums measure vectors per key tuple, remembering first-seen order.
type accumulator struct {
	measures int
	order    [][]string
	sums     map[string][]decimal.Decimal
}

func newAccumulator(measures int) *accumulator {
	return &accumulator{measures: measures, sums: make(map[string][]decimal.Decimal)}
}

// tupleKey joins values with a unit separator, which cannot appear in cells
// read from CSV or XLSX text.
func tupleKey(keys []string) string {
	return strings.Join(keys, "\x1f")
}

func (a *accumulator) add(keys []string, values []decimal.Decimal) {
	k := tupleKey(keys)
	sums, ok := a.sums[k]
	if !ok {
		sums = zeros(a.measures)
		a.order = append(a.order, keys)
	}
	for i, v := range values {
		sums[i] = sums[i].Add(v)
	}
	a.sums[k] = sums
}

func (a *accumulator) len() int {
	return len(a.order)
}

func (a *accumulator) rows(kind Kind, level int) []Row {
	out := make([]Row, 0, len(a.order))
	for _, keys := range a.order {
		out = append(out, Row{
			Kind:  kind,
			Level: level,
			Keys:  keys,
			Sums:  a.sums[tupleKey(keys)],
		})
	}
	return out
}

// =============================================================================
// ACCESSORS
// =============================================================================

// GrandTotal returns the grand-total row.
func (r *Result) GrandTotal() Row {
	for _, row := range r.Rows {
		if row.Kind == GrandTotal {
			return row
		}
	}
	return Row{Kind: GrandTotal, Keys: make([]string, len(r.GroupKeys)), Sums: zeros(len(r.Measures))}
}

// Details returns the DETAIL rows in output order.
func (r *Result) Details() []Row {
	var out []Row
	for _, row := range r.Rows {
		if row.Kind == Detail {
			out = append(out, row)
		}
	}
	return out
}

// MeasureIndex returns the position of measure, or -1.
func (r *Result) MeasureIndex(measure string) int {
	for i, m := range r.Measures {
		if m == measure {
			return i
		}
	}
	return -1
}
