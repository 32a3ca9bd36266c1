package verification

import (
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil/metrics"
)

// indel is Levenshtein with substitutions priced as a delete plus an insert.
var indel = &metrics.Levenshtein{
	CaseSensitive: true,
	InsertCost:    1,
	DeleteCost:    1,
	ReplaceCost:   2,
}

// Similarity is the InDel ratio of a and b, case-insensitive:
// (len(a)+len(b)-indel) / (len(a)+len(b)). It is symmetric, returns 1 for
// identical strings and 1 for two empty strings.
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}
	return float64(total-indel.Distance(a, b)) / float64(total)
}
