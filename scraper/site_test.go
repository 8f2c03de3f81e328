package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/use-agent/judgetrack/config"
	"github.com/use-agent/judgetrack/engine"
)

// fakeJudge is a judge profile served by the fake site.
type fakeJudge struct {
	first, last string
	rows        []string
	noHeading   bool
}

func recordRow(tourn, date, round, aff, neg, vote, result string) string {
	return fmt.Sprintf(`<tr><td>%s</td><td>HS</td><td><span>%s</span> Fri</td><td>LD</td><td>%s</td>
<td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`, tourn, date, round, aff, neg, vote, result)
}

var fakeJudges = map[string]fakeJudge{
	"1": {first: "Jane", last: "Doe", rows: []string{
		`<tr><th>Tournament</th><th>Lv</th><th>Date</th><th>Ev</th><th>Rd</th><th>Aff</th><th>Neg</th><th>Vote</th><th>Result</th></tr>`,
		`<tr><td>Tournament</td><td>Lv</td><td>Date</td><td>Ev</td><td>Rd</td><td>Aff</td><td>Neg</td><td>Vote</td><td>Result</td></tr>`,
		recordRow("Alpha Invitational", "2024-03-15", "1",
			`<a href="/entry?entry_id=11">Lincoln AB</a>`, `<a href="/entry?entry_id=12">Central CD</a>`, "Aff", "AFF"),
		recordRow("Alpha Invitational", "2024-03-15", "2", "Lincoln AB", "North EF", "Neg", "NEG"),
		`<tr><td>Short</td><td>HS</td><td>2024-03-16</td><td>LD</td><td>3</td><td>X</td><td>Y</td></tr>`,
		recordRow("Alpha Invitational", "2024-03-16", "Semis", "Lincoln AB", "North EF", "Aff", "2-1 AFF"),
	}},
	"2": {first: "Jane", last: "Doer", rows: []string{
		recordRow("Beta Open", "2024-01-10", "4", "South GH", "West IJ", "Aff", "AFF"),
	}},
	"3": {first: "Solo", last: "Judge", rows: []string{
		recordRow("Gamma Classic", "2024-02-01", "1", "East KL", "West IJ", "Neg", "NEG"),
	}},
	"4": {first: "Pat", last: "Lee", rows: []string{
		recordRow("Gamma Classic", "2024-02-01", "2", "East KL", "South GH", "Aff", "AFF"),
	}},
	"5": {first: "Sam", last: "Roe", rows: []string{
		recordRow("Gamma Classic", "2024-02-02", "Finals", "East KL", "North EF", "Aff", "3-0 AFF"),
	}},
	// Profile served without its <h3> name heading.
	"6": {first: "Jane", last: "Doe", noHeading: true, rows: []string{
		recordRow("Alpha Invitational", "2024-03-15", "1",
			`<a href="/entry?entry_id=11">Lincoln AB</a>`, `<a href="/entry?entry_id=12">Central CD</a>`, "Aff", "AFF"),
	}},
}

func profilePage(j fakeJudge) string {
	heading := fmt.Sprintf("<h3>%s %s</h3>", j.first, j.last)
	if j.noHeading {
		heading = ""
	}
	return fmt.Sprintf(`<html><body>%s
<table id="judgerecord"><tbody>%s</tbody></table></body></html>`, heading, strings.Join(j.rows, "\n"))
}

const searchForm = `<html><body>
<form action="/index/paradigm.mhtml" method="get">
  <input name="search_first"><input name="search_last">
</form></body></html>`

const searchResults = `<html><body><h2>Paradigm search</h2>
<div class="sidebar"><a href="/index/paradigm.mhtml?judge_person_id=1&amp;past=1">View Past Ratings</a></div>
<table><tbody>
<tr><td>Jane</td><td>Doer</td><td><a href="/index/paradigm.mhtml?judge_person_id=2">Paradigm</a></td></tr>
<tr><td>Jane</td><td>Doe</td><td><a href="/index/paradigm.mhtml?judge_person_id=1">Paradigm</a></td></tr>
</tbody></table></body></html>`

// Current entry layout: one div.row per round, judges in div.padless.
const entryCurrent = `<html><body><h4 class="nospace semibold">Lincoln AB: Ann Smith &amp; Bo Lee</h4>
<div class="row">
  <span class="tenth semibold">Round 2</span>
  <a class="white padtop padbottom" href="/entry?entry_id=12">vs Central CD</a>
  <div class="padless"><a href="/index/tourn/judge.mhtml?judge_id=9">Doe, Jane</a><span class="fifth marno">27</span></div>
</div>
<div class="row">
  <span class="tenth semibold">Round 1</span>
  <a class="white padtop padbottom" href="/entry?entry_id=12">vs Central CD</a>
  <div class="padless"><a href="/index/tourn/judge.mhtml?judge_id=8">Roe, Sam</a><span class="fifth marno">29</span></div>
  <div class="padless"><a href="/index/tourn/judge.mhtml?judge_id=9">Doe, Jane</a><span class="fifth marno">28.5</span></div>
</div></body></html>`

// Legacy entry layout: a plain table with points inline.
const entryLegacy = `<html><body><h2>Central CD</h2>
<table><tbody>
<tr><td>1</td><td><a href="/entry?entry_id=11">vs. Lincoln High School AB</a></td>
<td><a href="/index/paradigm.mhtml?judge_person_id=1">Jane Doe</a> 27.5</td></tr>
</tbody></table></body></html>`

const judgeList = `<html><body>
<h2 class="centeralign marno">Test Invitational</h2>
<h5 class="full centeralign marno">2025 — Atlanta, GA/US</h5>
<table id="judgelist"><tbody>%s</tbody></table></body></html>`

func judgeListRows(ids ...string) string {
	var b strings.Builder
	b.WriteString(`<tr><td>School</td><td>No link</td><td>Row</td></tr>`)
	for _, id := range ids {
		j := fakeJudges[id]
		fmt.Fprintf(&b, `<tr><td>Lincoln</td><td><a href="/index/paradigm.mhtml?judge_person_id=%s">%s</a></td><td><a href="/index/paradigm.mhtml?judge_person_id=%s">%s</a></td></tr>`,
			id, j.first, id, j.last)
	}
	return b.String()
}

// newFakeSite serves just enough of tabroom for the scraper. Judge ids
// listed in broken answer with HTTP 500.
func newFakeSite(t *testing.T, broken ...string) *httptest.Server {
	t.Helper()
	bad := make(map[string]bool)
	for _, id := range broken {
		bad[id] = true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/index/paradigm.mhtml", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("judge_person_id") != "":
			id := q.Get("judge_person_id")
			j, ok := fakeJudges[id]
			if !ok || bad[id] {
				http.Error(w, "server error", http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, profilePage(j))
		case strings.EqualFold(q.Get("search_first"), "Solo") && strings.EqualFold(q.Get("search_last"), "Judge"):
			fmt.Fprint(w, profilePage(fakeJudges["3"]))
		case q.Get("search_last") != "":
			fmt.Fprint(w, searchResults)
		default:
			fmt.Fprint(w, searchForm)
		}
	})
	mux.HandleFunc("/entry", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("entry_id") {
		case "11":
			fmt.Fprint(w, entryCurrent)
		case "12":
			fmt.Fprint(w, entryLegacy)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/index/tourn/judges.mhtml", func(w http.ResponseWriter, r *http.Request) {
		ids := []string{"1", "2", "3", "4", "5"}
		if q := r.URL.Query().Get("ids"); q != "" {
			ids = strings.Split(q, ",")
		}
		fmt.Fprintf(w, judgeList, judgeListRows(ids...))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// countingProvider counts navigations, acquisitions and releases.
type countingProvider struct {
	engine.Provider
	navigations atomic.Int32
	acquired    atomic.Int32
	released    atomic.Int32
}

func (p *countingProvider) Acquire(ctx context.Context) (engine.Handle, error) {
	h, err := p.Provider.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	p.acquired.Add(1)
	return &countingHandle{Handle: h, p: p}, nil
}

func (p *countingProvider) Release(h engine.Handle) {
	p.released.Add(1)
	p.Provider.Release(h.(*countingHandle).Handle)
}

type countingHandle struct {
	engine.Handle
	p *countingProvider
}

func (h *countingHandle) Navigate(ctx context.Context, url string) error {
	h.p.navigations.Add(1)
	return h.Handle.Navigate(ctx, url)
}

func newTestScraper(t *testing.T, srv *httptest.Server, correlate bool) (*Scraper, *countingProvider) {
	t.Helper()
	site := config.SiteConfig{
		BaseURL:    srv.URL,
		SearchPath: "/index/paradigm.mhtml",
		LoginPath:  "/user/login/login.mhtml",
	}
	cfg := config.ScraperConfig{
		NavigationTimeout:  5 * time.Second,
		SettleInterval:     time.Millisecond,
		NameFieldTimeout:   time.Second,
		SearchFieldTimeout: time.Second,
		ProfileTimeout:     time.Second,
		RecordTableTimeout: time.Second,
		EntryTimeout:       time.Second,
		JudgeListTimeout:   time.Second,
		Correlate:          correlate,
		Workers:            1,
	}
	inner, err := engine.NewHTTPProvider(config.BrowserConfig{Engine: "http", MaxPages: 2}, site, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = inner.Close() })

	p := &countingProvider{Provider: inner}
	return New(p, site, cfg), p
}
