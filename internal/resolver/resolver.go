package resolver

import (
	"strings"

	"github.com/ginjaninja78/sales-rollup/internal/types"
	"github.com/ginjaninja78/sales-rollup/internal/validation"
)

// Match records which step of a rule produced a resolution.
type Match string

const (
	MatchNone      Match = ""
	MatchAlias     Match = "alias"
	MatchPrefix    Match = "prefix"
	MatchSubstring Match = "substring"
	MatchPosition  Match = "position"
	MatchLast      Match = "last column"
)

// Resolution is the outcome of resolving one rule against a header row.
type Resolution struct {
	Role   Role
	Column string
	Index  int
	Match  Match
}

// Found reports whether a column was resolved.
func (r Resolution) Found() bool {
	return r.Match != MatchNone
}

// label returns the column description used when a required rule misses.
func (r Rule) label() string {
	if r.Label != "" {
		return r.Label
	}
	if len(r.Aliases) > 0 {
		return r.Aliases[0]
	}
	return string(r.Role)
}

// Resolve applies rule to t's header row. It never caches; callers resolve
// every uploaded table from scratch.
func Resolve(t *types.Table, rule Rule) (Resolution, error) {
	res := Resolution{Role: rule.Role, Index: -1}
	columns := t.Columns

	normalized := make([]string, len(columns))
	for i, c := range columns {
		normalized[i] = strings.ToLower(strings.TrimSpace(c))
	}

	found := func(i int, m Match) (Resolution, error) {
		res.Column = columns[i]
		res.Index = i
		res.Match = m
		return res, nil
	}

	for _, alias := range rule.Aliases {
		want := strings.ToLower(strings.TrimSpace(alias))
		for i, c := range normalized {
			if c == want {
				return found(i, MatchAlias)
			}
		}
	}

	for i, c := range normalized {
		for _, p := range rule.Prefixes {
			if strings.HasPrefix(c, strings.ToLower(p)) {
				return found(i, MatchPrefix)
			}
		}
	}

	if len(rule.AllOf) > 0 {
		for i, c := range normalized {
			if containsAll(c, rule.AllOf) {
				return found(i, MatchSubstring)
			}
		}
	}

	if rule.Position != NoPosition {
		if rule.Position < len(columns) {
			return found(rule.Position, MatchPosition)
		}
		if !rule.LastColumn && rule.Required {
			return res, &validation.ColumnNotFoundError{
				Role:     string(rule.Role),
				Table:    t.Name,
				Position: rule.Position,
				Width:    len(columns),
			}
		}
	}

	if rule.LastColumn && len(columns) > 0 {
		return found(len(columns)-1, MatchLast)
	}

	if rule.Required {
		return res, validation.Missing(t, rule.label())
	}
	return res, nil
}

func containsAll(s string, parts []string) bool {
	for _, p := range parts {
		if !strings.Contains(s, strings.ToLower(p)) {
			return false
		}
	}
	return true
}

// =============================================================================
// RESOLVED COLUMN SETS
// =============================================================================

// CatalogColumns holds the resolved catalog roles.
type CatalogColumns struct {
	Key            Resolution
	Manager        Resolution
	Brand          Resolution
	Cost           Resolution
	Classification Resolution
	VendorCode     Resolution
}

// TransactionColumns holds the resolved transaction roles.
type TransactionColumns struct {
	Key    Resolution
	Units  Resolution
	Amount Resolution
}

// ResolveCatalog resolves every catalog rule in order and returns the first
// failure.
func ResolveCatalog(t *types.Table) (CatalogColumns, error) {
	var cols CatalogColumns
	targets := []*Resolution{&cols.Key, &cols.Manager, &cols.Brand, &cols.Cost, &cols.Classification, &cols.VendorCode}
	for i, rule := range CatalogRules() {
		res, err := Resolve(t, rule)
		if err != nil {
			return CatalogColumns{}, err
		}
		*targets[i] = res
	}
	return cols, nil
}

// ResolveTransactions resolves every transaction rule in order and returns
// the first failure.
func ResolveTransactions(t *types.Table) (TransactionColumns, error) {
	var cols TransactionColumns
	targets := []*Resolution{&cols.Key, &cols.Units, &cols.Amount}
	for i, rule := range TransactionRules() {
		res, err := Resolve(t, rule)
		if err != nil {
			return TransactionColumns{}, err
		}
		*targets[i] = res
	}
	return cols, nil
}
