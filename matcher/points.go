package matcher

import (
	"regexp"
	"strconv"
	"strings"
)

// Speaker points bounds, inclusive.
const (
	MinPoints = 20.0
	MaxPoints = 30.0
)

var (
	rePointsLiteral = regexp.MustCompile(`^\d{1,2}(?:\.\d+)?$`)
	reNumber        = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
)

// ParsePoints returns s trimmed when it is a decimal in
// [MinPoints, MaxPoints], otherwise "". Round numbers like "6" are
// rejected.
func ParsePoints(s string) string {
	s = strings.TrimSpace(s)
	if !rePointsLiteral.MatchString(s) {
		return ""
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < MinPoints || f > MaxPoints {
		return ""
	}
	return s
}

// ScanPoints returns the first in-range number found in free text.
func ScanPoints(text string) string {
	for _, m := range reNumber.FindAllString(text, -1) {
		if p := ParsePoints(m); p != "" {
			return p
		}
	}
	return ""
}
