// Package matcher holds the fuzzy comparisons used to line up judge
// record rows with entry-page rows: round labels, entry codes, judge
// names and speaker points. Every matcher answers "no" when unsure.
package matcher

import (
	"regexp"
	"strings"
)

var (
	reDigits   = regexp.MustCompile(`\d+`)
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
)

// eliminationFamily is one elimination stage and its spellings.
type eliminationFamily struct {
	name     string
	variants []string
}

// eliminationFamilies is checked in order; families whose variants embed
// another family's words come first. "Octa-Finals" must resolve to
// octafinals before the bare "finals" word is tried.
var eliminationFamilies = []eliminationFamily{
	{"double-octas", []string{"double octafinals", "double octas", "double octos", "doubles", "double", "dbl octas", "dbls", "dbl"}},
	{"triple-octas", []string{"triple octafinals", "triple octas", "triple octos", "triples", "triple", "trips"}},
	{"octafinals", []string{"octafinals", "octafinal", "octofinals", "octofinal", "octas", "octa", "octos", "octo", "octs", "octaf", "octafi", "oct"}},
	{"quarterfinals", []string{"quarterfinals", "quarterfinal", "quarters", "quarter", "quarte", "quarts", "qtrs", "qf"}},
	{"semifinals", []string{"semifinals", "semifinal", "semis", "semi", "sf"}},
	{"finals", []string{"finals", "final", "f"}},
}

// RoundsMatch reports whether two round labels name the same round,
// e.g. "Round 6" and "R6", or "Semis" and "SF".
func RoundsMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}

	da, db := reDigits.FindString(a), reDigits.FindString(b)
	if da != "" && db != "" {
		return strings.TrimLeft(da, "0") == strings.TrimLeft(db, "0")
	}

	fa, fb := RoundFamily(a), RoundFamily(b)
	return fa != "" && fa == fb
}

// RoundFamily returns the elimination family a label belongs to, or ""
// when the label is not a recognised elimination round.
func RoundFamily(label string) string {
	norm := " " + strings.TrimSpace(reNonAlnum.ReplaceAllString(strings.ToLower(label), " ")) + " "
	if strings.TrimSpace(norm) == "" {
		return ""
	}
	for _, fam := range eliminationFamilies {
		for _, v := range fam.variants {
			if strings.Contains(norm, " "+v+" ") {
				return fam.name
			}
		}
	}
	return ""
}
