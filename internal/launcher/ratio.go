package launcher

import (
	"math"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Threshold is the score an application name must exceed to be
// accepted as a fuzzy match.
const Threshold = 80

// Ratio scores the similarity of a and b from 0 to 100 as
// 2*M/T, where M is the number of runes the two strings share along a
// minimal character diff and T is their combined rune length. The
// comparison is case-sensitive; two empty strings score 100.
func Ratio(a, b string) int {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	matched := 0
	for _, d := range dmp.DiffMain(a, b, false) {
		if d.Type == diffmatchpatch.DiffEqual {
			matched += utf8.RuneCountInString(d.Text)
		}
	}

	return int(math.Round(100 * float64(2*matched) / float64(total)))
}
