// Package numeric turns spreadsheet cell text into exact decimal values.
//
// Catalog and sales extracts arrive with currency symbols, thousands
// separators and accounting-style negatives. Parse strips those before
// handing the text to shopspring/decimal so sums stay exact.
package numeric

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotNumeric is wrapped by Parse when a non-blank cell is not a number.
var ErrNotNumeric = errors.New("not a number")

// numericRegex matches integers, decimals and scientific notation after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// MaxExponent bounds the decimal exponent of a parsed value. Rescaling a
// value like 1e-50000000 against an ordinary one allocates one digit per
// step, so such cells are rejected as not numeric.
const MaxExponent = 30

// currencySymbols are removed before matching.
var currencySymbols = []string{"$", "€", "£", "₹", "Rs.", "INR"}

// nullTokens are the stringified-null artifacts spreadsheet exports leave behind.
var nullTokens = map[string]bool{
	"nan":  true,
	"null": true,
	"none": true,
	"n/a":  true,
	"-":    true,
}

// IsBlank reports whether s is empty or a null artifact.
func IsBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || nullTokens[strings.ToLower(s)]
}

// Parse converts s to a decimal.
//
// Blank cells and null artifacts parse to zero without error. Anything else
// that is not a number returns zero and an error wrapping ErrNotNumeric.
func Parse(s string) (decimal.Decimal, error) {
	if IsBlank(s) {
		return decimal.Zero, nil
	}
	raw := s
	s = strings.TrimSpace(s)

	// Accounting negative "(123.45)"
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%q: %w", raw, ErrNotNumeric)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", raw, ErrNotNumeric)
	}
	if exp := d.Exponent(); exp > MaxExponent || exp < -MaxExponent {
		return decimal.Zero, fmt.Errorf("%q: exponent out of range: %w", raw, ErrNotNumeric)
	}
	return d, nil
}

// Coercer parses cells leniently and counts the ones it had to zero.
// The zero value is ready to use.
type Coercer struct {
	Warnings int
}

// Coerce returns the parsed value of s, or zero when s is not numeric.
func (c *Coercer) Coerce(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		c.Warnings++
	}
	return d
}

// Format renders d the way the exports print numbers: no trailing zeros,
// no exponent.
func Format(d decimal.Decimal) string {
	return d.String()
}
