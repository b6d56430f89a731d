// =============================================================================
// Sales Rollup - Column Rules
// =============================================================================
//
// Catalog and sales extracts have changed their headers several times. Each
// semantic role (cost, classification, key, ...) is therefore described by an
// ordered rule instead of a hard-coded column name. The rules are evaluated in
// this order:
//
//   1. Exact aliases (case-insensitive, trimmed), in alias order
//   2. Prefix rules (case-insensitive), first column in declaration order
//   3. All-of substring rules (case-insensitive)
//   4. Positional fallback (0-based index)
//   5. Last-column fallback
//
// A required rule that resolves nothing fails. An optional rule resolves to
// nothing and the caller leaves the role empty.
//
// =============================================================================

package resolver

import "github.com/ginjaninja78/sales-rollup/internal/validation"

// Role names a semantic column.
type Role string

const (
	RoleCatalogKey     Role = "catalog key"
	RoleManager        Role = "manager"
	RoleBrand          Role = "brand"
	RoleCost           Role = "cost"
	RoleClassification Role = "classification"
	RoleVendorCode     Role = "vendor code"

	RoleTransactionKey Role = "transaction key"
	RoleUnits          Role = "units"
	RoleAmount         Role = "amount"
)

// NoPosition disables the positional fallback.
const NoPosition = -1

// Rule describes how to find one role's column.
type Rule struct {
	Role Role

	// Table is the table the rule applies to (used in errors).
	Table string

	// Aliases are accepted exact names, most preferred first.
	Aliases []string

	// Prefixes match columns starting with any of these strings.
	Prefixes []string

	// AllOf matches a column whose name contains every one of these strings.
	AllOf []string

	// Position is the positional fallback, or NoPosition.
	Position int

	// LastColumn falls back to the final column when everything else failed.
	LastColumn bool

	// Required makes a miss fatal.
	Required bool

	// Label is the column description used in MissingColumnError. Defaults
	// to the first alias.
	Label string
}

// Catalog rules, evaluated in this order. Precondition errors follow it.
var (
	CatalogKeyRule = Rule{
		Role:     RoleCatalogKey,
		Table:    validation.TableCatalog,
		Aliases:  []string{"Flipkart Sku Name", "FNS"},
		Position: NoPosition,
		Required: true,
	}
	ManagerRule = Rule{
		Role:     RoleManager,
		Table:    validation.TableCatalog,
		Aliases:  []string{"Brand Manager"},
		Position: NoPosition,
		Required: true,
	}
	BrandRule = Rule{
		Role:     RoleBrand,
		Table:    validation.TableCatalog,
		Aliases:  []string{"Brand"},
		Position: NoPosition,
		Required: true,
	}
	CostRule = Rule{
		Role:     RoleCost,
		Table:    validation.TableCatalog,
		Prefixes: []string{"cp"},
		Position: 8,
		Required: true,
	}
	ClassificationRule = Rule{
		Role:     RoleClassification,
		Table:    validation.TableCatalog,
		Prefixes: []string{"fns"},
		Position: NoPosition,
		Required: true,
		Label:    "classification",
	}
	VendorCodeRule = Rule{
		Role:       RoleVendorCode,
		Table:      validation.TableCatalog,
		AllOf:      []string{"vendor", "sku"},
		Position:   3,
		LastColumn: true,
	}
)

// Transaction rules, evaluated in this order.
var (
	TransactionKeyRule = Rule{
		Role:     RoleTransactionKey,
		Table:    validation.TableTransactions,
		Aliases:  []string{"SKU ID", "Product Id"},
		Position: NoPosition,
		Required: true,
	}
	UnitsRule = Rule{
		Role:     RoleUnits,
		Table:    validation.TableTransactions,
		Aliases:  []string{"Gross Units", "Final Sale Units"},
		Position: NoPosition,
		Required: true,
	}
	AmountRule = Rule{
		Role:     RoleAmount,
		Table:    validation.TableTransactions,
		Aliases:  []string{"Sales", "Final Sale Amount", "Final Sales Amount"},
		Position: NoPosition,
		Required: true,
	}
)

// CatalogRules returns the catalog rule table in evaluation order.
func CatalogRules() []Rule {
	return []Rule{CatalogKeyRule, ManagerRule, BrandRule, CostRule, ClassificationRule, VendorCodeRule}
}

// TransactionRules returns the transaction rule table in evaluation order.
func TransactionRules() []Rule {
	return []Rule{TransactionKeyRule, UnitsRule, AmountRule}
}
