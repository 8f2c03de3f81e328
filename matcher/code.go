package matcher

import (
	"strings"
)

// CodesSimilar reports whether two entry codes plausibly name the same
// team. Codes match exactly, or when their team suffixes (last token)
// are equal and one school part contains the other:
//
//	CodesSimilar("Lincoln High School AB", "Lincoln AB") == true
//	CodesSimilar("Lincoln AB", "Lincoln BC")             == false
func CodesSimilar(a, b string) bool {
	a, b = normalizeCode(a), normalizeCode(b)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}

	schoolA, teamA := splitCode(a)
	schoolB, teamB := splitCode(b)
	if teamA != teamB {
		return false
	}
	return strings.Contains(schoolA, schoolB) || strings.Contains(schoolB, schoolA)
}

func normalizeCode(code string) string {
	return strings.Join(strings.Fields(strings.ToLower(code)), " ")
}

// splitCode separates a normalised code into school and team suffix.
// A single-token code is both its own school and its own suffix.
func splitCode(code string) (school, team string) {
	toks := strings.Fields(code)
	if len(toks) == 1 {
		return toks[0], toks[0]
	}
	return strings.Join(toks[:len(toks)-1], " "), toks[len(toks)-1]
}

// StripVersus removes the "vs" / "vs." prefix entry pages put in front
// of opponent codes.
func StripVersus(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, prefix := range []string{"vs. ", "vs.", "vs ", "v. "} {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(s[len(prefix):])
		}
	}
	return s
}
