package rollup

import (
	"sort"
	"strings"
)

// Sort orders rows in place:
//
//  1. the grand total is always last
//  2. group values ascend from the outermost field inward; a position that
//     is aggregated away sorts after every concrete value, so children come
//     before their own subtotal; a missing (blank) value sorts after every
//     concrete value at the same position
//  3. lower rank first (DETAIL, then the innermost subtotal, outward)
//  4. descending by the first measure
//
// The sort is stable.
func Sort(rows []Row, groups int) {
	sort.SliceStable(rows, func(i, j int) bool {
		return less(rows[i], rows[j], groups)
	})
}

func less(a, b Row, groups int) bool {
	aGrand, bGrand := a.Kind == GrandTotal, b.Kind == GrandTotal
	if aGrand != bGrand {
		return bGrand
	}

	for i := 0; i < groups; i++ {
		aAgg, bAgg := i >= a.Level, i >= b.Level
		switch {
		case aAgg && bAgg:
			continue
		case aAgg:
			return false
		case bAgg:
			return true
		}
		aMissing, bMissing := isMissing(a.Keys[i]), isMissing(b.Keys[i])
		if aMissing != bMissing {
			return bMissing
		}
		if a.Keys[i] != b.Keys[i] {
			return a.Keys[i] < b.Keys[i]
		}
	}

	if ra, rb := a.rank(groups), b.rank(groups); ra != rb {
		return ra < rb
	}

	if len(a.Sums) > 0 && len(b.Sums) > 0 {
		return a.Sums[0].GreaterThan(b.Sums[0])
	}
	return false
}

func isMissing(v string) bool {
	return strings.TrimSpace(v) == ""
}
