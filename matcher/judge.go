package matcher

import "strings"

var nameSeparators = strings.NewReplacer(",", " ", ".", " ")

// JudgeNameMatches reports whether text (typically a judge link on an
// entry page) names the judge. Every token of name must appear in text,
// so "Jane Doe" matches both "Jane Doe" and "Doe, Jane".
func JudgeNameMatches(name, text string) bool {
	want := nameTokens(name)
	if len(want) == 0 {
		return false
	}
	have := make(map[string]struct{})
	for _, tok := range nameTokens(text) {
		have[tok] = struct{}{}
	}
	for _, tok := range want {
		if _, ok := have[tok]; !ok {
			return false
		}
	}
	return true
}

func nameTokens(s string) []string {
	return strings.Fields(strings.ToLower(nameSeparators.Replace(s)))
}

// SplitName splits a full name into first name and the remainder, the
// way the split search form expects it. A single name is a last name.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
