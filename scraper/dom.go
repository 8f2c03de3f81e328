package scraper

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/use-agent/judgetrack/cleaner"
	"github.com/use-agent/judgetrack/engine"
)

// Selector preference lists. The first entry is the current site layout;
// later entries cover older layouts still served for archived
// tournaments.
var (
	judgeHeadingSelector = "h3"
	recordRowSelector    = "#judgerecord tbody tr"

	entryHeadingSelectors = []string{"h4.nospace.semibold", "h4", "h2"}
	entryRowSelectors     = []string{"div.row", "table tbody tr"}
	roundLabelSelectors   = []string{"span.tenth.semibold", "span.tenth", "td:first-child"}
	opponentSelectors     = []string{"a.white.padtop.padbottom", `a[href*="entry"]`}
	judgeLinkSelectors    = []string{`a[href*="judge.mhtml"]`, `a[href*="judge_person_id"]`}
	pointsScopeSelector   = "div.padless"
	pointsSelectors       = []string{"span.fifth.marno", "span.tenth.marno", "span.points", ".speaker_points"}

	searchFirstSelector = `input[name="search_first"]`
	searchLastSelector  = `input[name="search_last"]`
	searchTextSelector  = "#searchtext"
	candidateSelector   = `a[href*="judge_person_id="]`

	tournamentNameSelector    = "h2.centeralign.marno"
	tournamentDetailsSelector = "h5.full.centeralign.marno"
	judgeListSelector         = "#judgelist"
	judgeListRowSelector      = "#judgelist tbody tr"
)

// sidebarLabels are judge_person_id links on the results page that are
// not judges.
var sidebarLabels = map[string]struct{}{
	"view past ratings":     {},
	"view upcoming ratings": {},
	"view judging record":   {},
}

var reJudgeID = regexp.MustCompile(`judge_person_id=(\d+)`)

// judgeIDFromURL returns the judge_person_id query value, or "".
func judgeIDFromURL(u string) string {
	if m := reJudgeID.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	return ""
}

// textOf returns the collapsed visible text of el, or "".
func textOf(el engine.Element) string {
	if el == nil {
		return ""
	}
	t, err := el.Text()
	if err != nil {
		return ""
	}
	return cleaner.Collapse(t)
}

// cellOf returns the cleaned markup of el for field.
func cellOf(el engine.Element, field cleaner.Field) string {
	raw, err := el.InnerHTML()
	if err != nil {
		return ""
	}
	return cleaner.Cell(raw, field)
}

// pageText returns the text of the first element matching sel.
func pageText(ctx context.Context, h engine.Handle, sel string) string {
	el, ok := h.WaitFor(ctx, sel, 0)
	if !ok {
		return ""
	}
	return textOf(el)
}

// firstOnPage waits up to timeout for the first selector of sels and
// looks once for the rest.
func firstOnPage(ctx context.Context, h engine.Handle, sels []string, timeout time.Duration) engine.Element {
	for i, sel := range sels {
		wait := timeout
		if i > 0 {
			wait = 0
		}
		if el, ok := h.WaitFor(ctx, sel, wait); ok {
			return el
		}
	}
	return nil
}

// allOnPage returns the matches of the first selector in sels that
// matches anything.
func allOnPage(ctx context.Context, h engine.Handle, sels []string) []engine.Element {
	for _, sel := range sels {
		if els, err := h.QueryAll(ctx, sel); err == nil && len(els) > 0 {
			return els
		}
	}
	return nil
}

// firstWithin returns the first descendant of el matching any of sels,
// in preference order.
func firstWithin(el engine.Element, sels []string) engine.Element {
	for _, sel := range sels {
		if els, err := el.QueryAll(sel); err == nil && len(els) > 0 {
			return els[0]
		}
	}
	return nil
}

// allWithin returns descendants of el matching any of sels, grouped in
// preference order.
func allWithin(el engine.Element, sels []string) []engine.Element {
	var out []engine.Element
	for _, sel := range sels {
		if els, err := el.QueryAll(sel); err == nil {
			out = append(out, els...)
		}
	}
	return out
}

// hrefOf returns the first link under el, resolved against base.
func hrefOf(el engine.Element, base string) string {
	links, err := el.QueryAll("a")
	if err != nil || len(links) == 0 {
		return ""
	}
	href, ok := links[0].Attribute("href")
	if !ok {
		return ""
	}
	return resolveURL(base, href)
}

// resolveURL resolves ref against base. Blank and javascript: refs
// resolve to "".
func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(strings.ToLower(ref), "javascript:") {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	u, err := b.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}
