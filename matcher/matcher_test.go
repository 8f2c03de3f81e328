package matcher

import "testing"

func TestRoundsMatch(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Round 6", "R6", true},
		{"Round 6", "round 6", true},
		{"R06", "Round 6", true},
		{"Round 1", "Round 10", false},
		{"Octas", "Quarters", false},
		{"Semis", "SF", true},
		{"Quarterfinals", "QF", true},
		{"Double Octas", "Octas", false},
		{"Doubles", "Double Octafinals", true},
		{"Trips", "Triple Octas", true},
		{"Finals", "Semifinals", false},
		{"Final", "F", true},
		{"Octa-Finals", "Finals", false},
		{"Octo Finals", "Finals", false},
		{"Octa-Finals", "Octas", true},
		{"Semifinal", "Semis", true},
		{"Quarterfinal", "Quarters", true},
		{"Octafinal", "Octas", true},
		{"Semi Finals", "Final", false},
		{"Quarters", "Round 3", false},
		{"Elim", "Prelim", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			if got := RoundsMatch(tt.a, tt.b); got != tt.want {
				t.Errorf("RoundsMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := RoundsMatch(tt.b, tt.a); got != tt.want {
				t.Errorf("RoundsMatch(%q, %q) = %v, want %v (reversed)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestRoundFamily(t *testing.T) {
	tests := map[string]string{
		"Semis":             "semifinals",
		"Semi-Finals":       "semifinals",
		"Double Octafinals": "double-octas",
		"Octos":             "octafinals",
		"Octo Finals":       "octafinals",
		"Quarterfinal":      "quarterfinals",
		"Semifinal":         "semifinals",
		"Round 4":           "",
		"":                  "",
	}
	for label, want := range tests {
		if got := RoundFamily(label); got != want {
			t.Errorf("RoundFamily(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestCodesSimilar(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Lincoln High School AB", "Lincoln AB", true},
		{"Lincoln AB", "Lincoln BC", false},
		{"lincoln  ab", "Lincoln AB", true},
		{"Westwood CL", "Lincoln CL", false},
		{"AB", "Lincoln AB", false},
		{"", "", false},
		{"Lincoln AB", "", false},
	}
	for _, tt := range tests {
		if got := CodesSimilar(tt.a, tt.b); got != tt.want {
			t.Errorf("CodesSimilar(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestStripVersus(t *testing.T) {
	tests := map[string]string{
		"vs Lincoln AB":   "Lincoln AB",
		"Vs. Lincoln AB":  "Lincoln AB",
		"  vs  Lincoln":   "Lincoln",
		"Lincoln AB":      "Lincoln AB",
		"Vasquez Acad XY": "Vasquez Acad XY",
	}
	for in, want := range tests {
		if got := StripVersus(in); got != want {
			t.Errorf("StripVersus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestJudgeNameMatches(t *testing.T) {
	tests := []struct {
		name, text string
		want       bool
	}{
		{"Jane Doe", "Jane Doe", true},
		{"Jane Doe", "Doe, Jane", true},
		{"Jane Doe", "Doe, Jane M.", true},
		{"Jane Doe", "Jane Doer", false},
		{"Jane Doe", "John Doe", false},
		{"", "Jane Doe", false},
	}
	for _, tt := range tests {
		if got := JudgeNameMatches(tt.name, tt.text); got != tt.want {
			t.Errorf("JudgeNameMatches(%q, %q) = %v, want %v", tt.name, tt.text, got, tt.want)
		}
	}
}

func TestSplitName(t *testing.T) {
	first, last := SplitName("  Mary Ann  van Buren ")
	if first != "Mary" || last != "Ann van Buren" {
		t.Errorf("SplitName = %q, %q", first, last)
	}
	if first, last := SplitName("Cher"); first != "" || last != "Cher" {
		t.Errorf("SplitName single = %q, %q", first, last)
	}
}

func TestParsePoints(t *testing.T) {
	tests := map[string]string{
		"28.5":  "28.5",
		" 29 ":  "29",
		"20":    "20",
		"30":    "30",
		"30.1":  "",
		"6":     "",
		"19.9":  "",
		"NaN":   "",
		"abc":   "",
		"":      "",
		"0x1A":  "",
		"27.25": "27.25",
	}
	for in, want := range tests {
		if got := ParsePoints(in); got != want {
			t.Errorf("ParsePoints(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestScanPoints(t *testing.T) {
	tests := map[string]string{
		"Round 6 Jane Doe 28.5": "28.5",
		"2024-03-15 27":         "27",
		"R6 W":                  "",
		"":                      "",
	}
	for in, want := range tests {
		if got := ScanPoints(in); got != want {
			t.Errorf("ScanPoints(%q) = %q, want %q", in, got, want)
		}
	}
}
