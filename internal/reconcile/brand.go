package reconcile

import (
	"strings"
	"unicode"

	"github.com/ginjaninja78/sales-rollup/internal/numeric"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnknownBrand replaces brand values that were null in the catalog.
const UnknownBrand = "Unknown"

var titleCaser = cases.Title(language.Und)

// StandardizeBrand trims the brand and title-cases every run of letters, so
// a letter after a digit or an apostrophe starts a new word ("3m" becomes
// "3M", "l'oreal" becomes "L'Oreal"). Values that come out as "Nan" (a
// stringified null) or were blank become UnknownBrand.
func StandardizeBrand(brand string) string {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return UnknownBrand
	}
	titled := titleLetterRuns(brand)
	if titled == "Nan" || numeric.IsBlank(titled) {
		return UnknownBrand
	}
	return titled
}

func titleLetterRuns(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	start := -1
	for i, r := range s {
		if unicode.IsLetter(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			b.WriteString(titleCaser.String(s[start:i]))
			start = -1
		}
		b.WriteRune(r)
	}
	if start >= 0 {
		b.WriteString(titleCaser.String(s[start:]))
	}
	return b.String()
}
