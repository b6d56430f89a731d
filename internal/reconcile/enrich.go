// =============================================================================
// Sales Rollup - Join & Enrichment
// =============================================================================
//
// Enrich left-joins the transactions extract against the deduplicated catalog
// and attaches manager, brand, cost, classification and vendor code to every
// transaction row.
//
// PIPELINE:
//   1. Resolve catalog columns, then transaction columns (first failure wins)
//   2. Deduplicate the catalog by key (first occurrence wins)
//   3. Build the output header in presentation order
//   4. Join row by row, coercing units and cost to numbers
//
// OUTPUT COLUMN ORDER:
//   transaction columns ... <units> <cost> <classification> [<vendor>] ... Manager Brand
//
// A transaction column literally named "Brand" becomes "Brand1"; any other
// transaction column that collides with an attached column gets the same
// suffix. The amount column is renamed "Sales".
//
// =============================================================================

package reconcile

import (
	"github.com/ginjaninja78/sales-rollup/internal/numeric"
	"github.com/ginjaninja78/sales-rollup/internal/resolver"
	"github.com/ginjaninja78/sales-rollup/internal/types"
	"github.com/ginjaninja78/sales-rollup/internal/validation"
	"github.com/shopspring/decimal"
)

// Output column names attached by the join.
const (
	ColumnSales   = "Sales"
	ColumnManager = "Manager"
	ColumnBrand   = "Brand"

	// Fallback names when a resolved catalog header collides with another
	// attached column.
	ColumnCost           = "Cost"
	ColumnClassification = "Classification"
	ColumnVendorCode     = "Vendor Code"
)

// Options are the behavioral switches of a join. The zero value disables all
// of them; callers pass every flag explicitly.
type Options struct {
	// ClampNegativeUnits replaces negative unit counts with 0.
	ClampNegativeUnits bool

	// ExcludeZeroUnits drops rows whose units are exactly 0 after clamping.
	ExcludeZeroUnits bool

	// StandardizeBrand title-cases matched brand names.
	StandardizeBrand bool
}

// Stats counts what happened during a join.
type Stats struct {
	TransactionRows   int `json:"transaction_rows"`
	CatalogRows       int `json:"catalog_rows"`
	DuplicateKeys     int `json:"duplicate_keys"`
	Matched           int `json:"matched"`
	Unmatched         int `json:"unmatched"`
	ClampedUnits      int `json:"clamped_units"`
	ExcludedZeroUnits int `json:"excluded_zero_units"`
	OutputRows        int `json:"output_rows"`

	Warnings validation.Warnings `json:"warnings"`
}

// Columns names the role-bearing columns of an enriched table.
type Columns struct {
	Key            string `json:"key"`
	Units          string `json:"units"`
	Sales          string `json:"sales"`
	Cost           string `json:"cost"`
	Classification string `json:"classification"`
	VendorCode     string `json:"vendor_code"` // empty when the catalog has no columns to fall back on
	Manager        string `json:"manager"`
	Brand          string `json:"brand"`
}

// Enriched is the result of a join.
type Enriched struct {
	Table   *types.Table
	Columns Columns
	Stats   Stats
}

// catalogMatch holds the attributes attached to a transaction row.
type catalogMatch struct {
	manager        string
	brand          string
	cost           decimal.Decimal
	classification string
	vendorCode     string
}

// Enrich joins transactions against catalog.
func Enrich(transactions, catalog *types.Table, opts Options) (*Enriched, error) {
	catCols, err := resolver.ResolveCatalog(catalog)
	if err != nil {
		return nil, err
	}
	txnCols, err := resolver.ResolveTransactions(transactions)
	if err != nil {
		return nil, err
	}

	deduped, dropped := Dedup(catalog, catCols.Key.Index)
	stats := Stats{
		TransactionRows: transactions.Len(),
		CatalogRows:     catalog.Len(),
		DuplicateKeys:   dropped,
	}

	var coercer numeric.Coercer
	index := buildIndex(deduped, catCols, opts, &coercer)

	layout := planLayout(transactions.Columns, txnCols, catCols)
	out := &types.Table{
		Name:    validation.TableEnriched,
		Columns: layout.header,
		Rows:    make([][]string, 0, transactions.Len()),
	}

	for _, row := range transactions.Rows {
		units := coercer.Coerce(cellAt(row, txnCols.Units.Index))
		if opts.ClampNegativeUnits && units.IsNegative() {
			units = decimal.Zero
			stats.ClampedUnits++
		}
		if opts.ExcludeZeroUnits && units.IsZero() {
			stats.ExcludedZeroUnits++
			continue
		}

		key := NormalizeKey(cellAt(row, txnCols.Key.Index))
		match, ok := index[key]
		if ok && key != "" {
			stats.Matched++
		} else {
			match = catalogMatch{cost: decimal.Zero}
			stats.Unmatched++
		}

		out.Rows = append(out.Rows, layout.build(row, key, units, match))
	}

	stats.OutputRows = len(out.Rows)
	stats.Warnings = validation.Warnings{
		TypeCoercions: coercer.Warnings,
		UnmatchedKeys: stats.Unmatched,
	}

	return &Enriched{Table: out, Columns: layout.columns, Stats: stats}, nil
}

// buildIndex maps each non-blank catalog key to its attached attributes.
func buildIndex(catalog *types.Table, cols resolver.CatalogColumns, opts Options, coercer *numeric.Coercer) map[string]catalogMatch {
	index := make(map[string]catalogMatch, len(catalog.Rows))
	for _, row := range catalog.Rows {
		key := cellAt(row, cols.Key.Index)
		if key == "" {
			continue
		}

		brand := cellAt(row, cols.Brand.Index)
		if opts.StandardizeBrand {
			brand = StandardizeBrand(brand)
		}

		index[key] = catalogMatch{
			manager:        cellAt(row, cols.Manager.Index),
			brand:          brand,
			cost:           coercer.Coerce(cellAt(row, cols.Cost.Index)),
			classification: textOrEmpty(cellAt(row, cols.Classification.Index)),
			vendorCode:     textOrEmpty(cellAt(row, cols.VendorCode.Index)),
		}
	}
	return index
}

// textOrEmpty maps null artifacts to "".
func textOrEmpty(s string) string {
	if numeric.IsBlank(s) {
		return ""
	}
	return s
}

// =============================================================================
// OUTPUT LAYOUT
// =============================================================================

// slot says where an output cell comes from.
type slot int

const (
	slotPassthrough slot = iota
	slotKey
	slotUnits
	slotCost
	slotClassification
	slotVendorCode
	slotManager
	slotBrand
)

type outputColumn struct {
	kind   slot
	source int // transaction column index for passthrough cells
}

type layout struct {
	header  []string
	cells   []outputColumn
	columns Columns
}

// planLayout computes the presentation-order header once per join.
func planLayout(txnHeader []string, txn resolver.TransactionColumns, cat resolver.CatalogColumns) *layout {
	names := newNameSet()

	// Attached names are claimed first so transaction columns yield to them.
	attached := Columns{
		Manager: names.claim(ColumnManager, ColumnManager),
		Brand:   names.claim(ColumnBrand, ColumnBrand),
	}
	attached.Cost = names.claim(cat.Cost.Column, ColumnCost)
	attached.Classification = names.claim(cat.Classification.Column, ColumnClassification)
	if cat.VendorCode.Found() {
		attached.VendorCode = names.claim(cat.VendorCode.Column, ColumnVendorCode)
	}

	l := &layout{columns: attached}

	for i, name := range txnHeader {
		col := outputColumn{kind: slotPassthrough, source: i}
		switch i {
		case txn.Key.Index:
			col.kind = slotKey
		case txn.Units.Index:
			col.kind = slotUnits
		case txn.Amount.Index:
			name = ColumnSales
		}
		name = names.suffix(name)

		l.header = append(l.header, name)
		l.cells = append(l.cells, col)

		switch col.kind {
		case slotKey:
			l.columns.Key = name
		case slotUnits:
			l.columns.Units = name
			l.add(attached.Cost, slotCost)
			l.add(attached.Classification, slotClassification)
			if attached.VendorCode != "" {
				l.add(attached.VendorCode, slotVendorCode)
			}
		}
		if i == txn.Amount.Index {
			l.columns.Sales = name
		}
	}

	l.add(attached.Manager, slotManager)
	l.add(attached.Brand, slotBrand)
	return l
}

func (l *layout) add(name string, kind slot) {
	l.header = append(l.header, name)
	l.cells = append(l.cells, outputColumn{kind: kind, source: -1})
}

// build renders one output row.
func (l *layout) build(row []string, key string, units decimal.Decimal, m catalogMatch) []string {
	out := make([]string, len(l.cells))
	for i, c := range l.cells {
		switch c.kind {
		case slotPassthrough:
			out[i] = cellAt(row, c.source)
		case slotKey:
			out[i] = key
		case slotUnits:
			out[i] = numeric.Format(units)
		case slotCost:
			out[i] = numeric.Format(m.cost)
		case slotClassification:
			out[i] = m.classification
		case slotVendorCode:
			out[i] = m.vendorCode
		case slotManager:
			out[i] = m.manager
		case slotBrand:
			out[i] = m.brand
		}
	}
	return out
}

// nameSet hands out unique column names.
type nameSet map[string]struct{}

func newNameSet() nameSet { return nameSet{} }

// claim reserves preferred, or fallback when preferred is empty or taken.
func (s nameSet) claim(preferred, fallback string) string {
	if preferred != "" {
		if _, taken := s[preferred]; !taken {
			s[preferred] = struct{}{}
			return preferred
		}
	}
	return s.suffix(fallback)
}

// suffix reserves name, appending "1" until it is unique.
func (s nameSet) suffix(name string) string {
	for {
		if _, taken := s[name]; !taken {
			s[name] = struct{}{}
			return name
		}
		name += "1"
	}
}
