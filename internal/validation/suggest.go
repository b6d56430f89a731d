package validation

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Suggest returns the header in candidates closest to name, or "" when none
// is within a third of the name's length (minimum 2 edits).
func Suggest(name string, candidates []string) string {
	target := []rune(strings.ToLower(strings.TrimSpace(name)))
	if len(target) == 0 {
		return ""
	}

	limit := len(target) / 3
	if limit < 2 {
		limit = 2
	}

	best := ""
	bestDist := limit + 1
	for _, c := range candidates {
		d := levenshtein.DistanceForStrings(target, []rune(strings.ToLower(strings.TrimSpace(c))), levenshtein.DefaultOptions)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
