// Package cleaner turns raw table-cell markup into plain field values.
package cleaner

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Field selects field-specific extraction in Cell.
type Field int

const (
	// FieldText strips markup and collapses whitespace.
	FieldText Field = iota
	// FieldDate keeps only the first YYYY-MM-DD substring.
	FieldDate
	// FieldResult is cleaned like FieldText.
	FieldResult
)

var (
	reDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

	angleStripper = strings.NewReplacer("<", "", ">", "")
)

// Cell cleans raw cell markup for the given field kind. It never panics;
// any internal failure yields "".
func Cell(raw string, field Field) (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()

	text := Text(raw)
	switch field {
	case FieldDate:
		return reDate.FindString(text)
	case FieldResult:
		return text
	default:
		return text
	}
}

// Text walks an HTML fragment with the tokenizer and joins its text
// tokens, skipping script and style bodies. Entities are decoded and
// whitespace collapsed. The result contains no angle brackets.
func Text(raw string) string {
	if raw == "" {
		return ""
	}

	var b strings.Builder
	skip := 0
	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return ""
			}
			return Collapse(angleStripper.Replace(b.String()))
		case html.StartTagToken:
			if isRawText(z) {
				skip++
			}
		case html.EndTagToken:
			if isRawText(z) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

// isRawText reports whether the current tag is script or style.
func isRawText(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	return string(name) == "script" || string(name) == "style"
}

// Collapse folds every whitespace run (including non-breaking spaces)
// into one space and trims the ends.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Date extracts the first ISO date in s, or "".
func Date(s string) string {
	return reDate.FindString(s)
}
