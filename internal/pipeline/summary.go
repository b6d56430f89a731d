package pipeline

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sales-rollup/internal/numeric"
	"github.com/ginjaninja78/sales-rollup/internal/reconcile"
	"github.com/ginjaninja78/sales-rollup/internal/types"
)

var hundred = decimal.NewFromInt(100)

// Share is one slice of the sales distribution.
type Share struct {
	Key     string          `json:"key"`
	Sales   decimal.Decimal `json:"sales"`
	Percent decimal.Decimal `json:"percent"`
}

// Summary holds the headline metrics of a run.
type Summary struct {
	TotalUnits decimal.Decimal `json:"total_units"`
	TotalSales decimal.Decimal `json:"total_sales"`

	// Brands and Managers count distinct non-blank values.
	Brands   int `json:"brands"`
	Managers int `json:"managers"`

	BrandShares   []Share `json:"brand_shares"`
	ManagerShares []Share `json:"manager_shares"`
}

// Summarize computes the summary of an enriched table. It also returns the
// number of sales cells that had to be coerced to 0.
func Summarize(t *types.Table, cols reconcile.Columns, keepMissing bool) (Summary, int) {
	s := Summary{TotalUnits: decimal.Zero, TotalSales: decimal.Zero}

	unitsIdx := t.Index(cols.Units)
	salesIdx := t.Index(cols.Sales)
	brandIdx := t.Index(cols.Brand)
	managerIdx := t.Index(cols.Manager)

	var coercer numeric.Coercer
	var units numeric.Coercer
	brands := newShareSet()
	managers := newShareSet()

	for i := range t.Rows {
		sales := coercer.Coerce(t.Cell(i, salesIdx))
		s.TotalUnits = s.TotalUnits.Add(units.Coerce(t.Cell(i, unitsIdx)))
		s.TotalSales = s.TotalSales.Add(sales)

		brands.add(t.Cell(i, brandIdx), sales, keepMissing)
		managers.add(t.Cell(i, managerIdx), sales, keepMissing)
	}

	s.Brands = brands.distinct()
	s.Managers = managers.distinct()
	s.BrandShares = brands.shares(s.TotalSales)
	s.ManagerShares = managers.shares(s.TotalSales)
	return s, coercer.Warnings
}

type shareSet struct {
	order []string
	sums  map[string]decimal.Decimal
}

func newShareSet() *shareSet {
	return &shareSet{sums: make(map[string]decimal.Decimal)}
}

func (s *shareSet) add(key string, sales decimal.Decimal, keepMissing bool) {
	if strings.TrimSpace(key) == "" && !keepMissing {
		return
	}
	sum, ok := s.sums[key]
	if !ok {
		s.order = append(s.order, key)
		sum = decimal.Zero
	}
	s.sums[key] = sum.Add(sales)
}

func (s *shareSet) distinct() int {
	n := 0
	for _, k := range s.order {
		if strings.TrimSpace(k) != "" {
			n++
		}
	}
	return n
}

// shares returns the per-key sales, largest first, with their percentage of
// total rounded to two places. A zero total yields zero percentages.
func (s *shareSet) shares(total decimal.Decimal) []Share {
	out := make([]Share, 0, len(s.order))
	for _, k := range s.order {
		pct := decimal.Zero
		if !total.IsZero() {
			pct = s.sums[k].Div(total).Mul(hundred).Round(2)
		}
		out = append(out, Share{Key: k, Sales: s.sums[k], Percent: pct})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Sales.Equal(out[j].Sales) {
			return out[i].Sales.GreaterThan(out[j].Sales)
		}
		return out[i].Key < out[j].Key
	})
	return out
}
