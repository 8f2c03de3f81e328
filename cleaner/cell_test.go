package cleaner

import (
	"strings"
	"testing"
)

func TestCell_StripsTags(t *testing.T) {
	inputs := []string{
		`<td>Lincoln <b>AB</b></td>`,
		`<a href="/index/tourn/postings/entry_record.mhtml?entry_id=1">Lincoln AB</a>`,
		`<span class="x">5 < 6</span>`,
		`<div><p>Nested <i>tags</i></p><br/></div>`,
		`<td>a &lt;b&gt; c</td>`,
		`<unterminated`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			out := Cell(in, FieldText)
			if strings.ContainsAny(out, "<>") {
				t.Errorf("Cell(%q) = %q, contains angle brackets", in, out)
			}
		})
	}
}

func TestCell_CollapsesWhitespace(t *testing.T) {
	got := Cell("<td>\n  Round\t\t6   </td>", FieldText)
	if got != "Round 6" {
		t.Errorf("got %q, want %q", got, "Round 6")
	}
}

func TestCell_Date(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`<td>Fri 2024-03-15 09:00</td>`, "2024-03-15"},
		{`...2024-03-15...`, "2024-03-15"},
		{`<td>2023-11-04<br>2023-11-05</td>`, "2023-11-04"},
		{`<td>March 15, 2024</td>`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		if got := Cell(tt.in, FieldDate); got != tt.want {
			t.Errorf("Cell(%q, FieldDate) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCell_Result(t *testing.T) {
	got := Cell("<td> Aff  2-1 </td>", FieldResult)
	if got != "Aff 2-1" {
		t.Errorf("got %q", got)
	}
}

func TestText_DecodesEntities(t *testing.T) {
	got := Text("<td>Smith &amp; Jones&nbsp;AB</td>")
	if got != "Smith & Jones AB" {
		t.Errorf("got %q", got)
	}
}

func TestText_SkipsScriptAndStyle(t *testing.T) {
	got := Text(`<td><style>.x{color:red}</style>Lincoln<script>var a = "<b>";</script> <b>AB</b></td>`)
	if got != "Lincoln AB" {
		t.Errorf("got %q, want %q", got, "Lincoln AB")
	}
}

func TestText_SeparatesAdjacentCells(t *testing.T) {
	got := Text(`<span>Doe, Jane</span><span>28.5</span>`)
	if got != "Doe, Jane 28.5" {
		t.Errorf("got %q, want %q", got, "Doe, Jane 28.5")
	}
}
