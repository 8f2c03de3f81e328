package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/use-agent/judgetrack/cleaner"
	"github.com/use-agent/judgetrack/engine"
	"github.com/use-agent/judgetrack/matcher"
	"github.com/use-agent/judgetrack/models"
)

// candidate is a search result row together with its live link.
type candidate struct {
	models.Candidate
	link engine.Element
}

// SearchJudge finds the judge named name through the site search and
// extracts their record.
//
// Lifecycle:
//
//  1. Acquire a handle (released on every exit path)
//  2. Submit the search form, preferring split first/last fields
//  3. Settle while results render
//  4. Direct match: the results page already is the profile
//  5. Otherwise pick the first exact candidate and open it
//  6. Extract the record table
func (s *Scraper) SearchJudge(ctx context.Context, name string) (res *models.JudgeResult) {
	query := cleaner.Collapse(name)
	res = &models.JudgeResult{Query: query, Records: []models.JudgeRecord{}}
	if query == "" {
		res.Err = models.NewScrapeError(models.ErrCodeInvalidInput, "judge name is required", nil)
		return res
	}

	ctx, cancel := withTimeout(ctx, s.cfg.SearchTimeout)
	defer cancel()

	// ── 1. Acquire ───────────────────────────────────────────────────
	h, err := s.provider.Acquire(ctx)
	if err != nil {
		slog.Error("no session for judge search", "judge", query, "error", err)
		res.Err = models.AsScrapeError(err)
		return res
	}
	defer s.provider.Release(h)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("judge search panicked", "judge", query, "panic", r)
			res = &models.JudgeResult{
				Query:   query,
				Records: []models.JudgeRecord{},
				Err:     models.NewScrapeError(models.ErrCodeInternal, fmt.Sprintf("search panicked: %v", r), nil),
			}
		}
	}()

	// ── 2. Submit search ─────────────────────────────────────────────
	searchURL := s.site.SearchURL()
	if err := h.Navigate(ctx, searchURL); err != nil {
		slog.Error("search page navigation failed", "url", searchURL, "error", err)
		res.Err = models.AsScrapeError(err)
		return res
	}
	if err := s.submitSearch(ctx, h, query); err != nil {
		slog.Error("judge search submission failed", "judge", query, "error", err)
		res.Err = models.AsScrapeError(err)
		return res
	}

	// ── 3. Settle ────────────────────────────────────────────────────
	if err := settle(ctx, s.cfg.SettleInterval); err != nil {
		res.Err = models.NewScrapeError(models.ErrCodeTimeout, "search interrupted", err)
		return res
	}

	// ── 4. Direct match ──────────────────────────────────────────────
	if heading := pageText(ctx, h, judgeHeadingSelector); strings.EqualFold(heading, query) {
		slog.Info("direct match on results page", "judge", query, "url", h.CurrentURL())
		return s.finish(query, s.ExtractJudge(ctx, h, h.CurrentURL(), false))
	}

	// ── 5. Candidates ────────────────────────────────────────────────
	cands := candidates(ctx, h)
	slog.Info("judge search candidates", "judge", query, "count", len(cands))
	var picked *candidate
	for i := range cands {
		if strings.EqualFold(cands[i].FullName, query) {
			picked = &cands[i]
			break
		}
	}
	if picked == nil {
		res.Err = models.NewScrapeError(models.ErrCodeJudgeNotFound, notFoundMessage(query, cands), nil)
		slog.Warn("no exact judge match", "judge", query, "candidates", len(cands))
		return res
	}

	if err := h.Click(ctx, picked.link); err != nil {
		slog.Error("opening judge profile failed", "judge", query, "error", err)
		res.Err = models.AsScrapeError(err)
		return res
	}
	_, opened := h.WaitFor(ctx, judgeHeadingSelector, s.cfg.ProfileTimeout)
	if !opened {
		slog.Warn("profile heading did not appear", "judge", query)
	}

	profileURL := picked.ProfileURL
	if profileURL == "" || profileURL == searchURL || judgeIDFromURL(profileURL) == "" {
		profileURL = h.CurrentURL()
	}

	// ── 6. Extract ───────────────────────────────────────────────────
	return s.finish(query, s.ExtractJudge(ctx, h, profileURL, !opened))
}

func (s *Scraper) finish(query string, res *models.JudgeResult) *models.JudgeResult {
	res.Query = query
	slog.Info("judge search done", "judge", query, "records", len(res.Records))
	return res
}

// submitSearch fills and submits the search form.
func (s *Scraper) submitSearch(ctx context.Context, h engine.Handle, query string) error {
	if first, ok := h.WaitFor(ctx, searchFirstSelector, s.cfg.NameFieldTimeout); ok {
		if last, ok := h.WaitFor(ctx, searchLastSelector, 0); ok {
			firstName, lastName := matcher.SplitName(query)
			if err := h.Fill(ctx, first, firstName); err != nil {
				return err
			}
			if err := h.Fill(ctx, last, lastName); err != nil {
				return err
			}
			slog.Debug("search submitted with split fields", "first", firstName, "last", lastName)
			return h.Submit(ctx, last)
		}
	}

	field, ok := h.WaitFor(ctx, searchTextSelector, s.cfg.SearchFieldTimeout)
	if !ok {
		return models.NewScrapeError(models.ErrCodeSearchFormMissing, "no judge search field on "+h.CurrentURL(), ctx.Err())
	}
	if err := h.Fill(ctx, field, query); err != nil {
		return err
	}
	slog.Debug("search submitted with free-text field", "query", query)
	return h.Submit(ctx, field)
}

// candidates lists judge links on the results page with the name from
// the first two cells of their row. Sidebar links are dropped.
func candidates(ctx context.Context, h engine.Handle) []candidate {
	links, err := h.QueryAll(ctx, candidateSelector)
	if err != nil {
		return nil
	}
	base := h.CurrentURL()

	var out []candidate
	for _, link := range links {
		if _, skip := sidebarLabels[strings.ToLower(textOf(link))]; skip {
			continue
		}
		row, ok := link.Closest("tr")
		if !ok {
			continue
		}
		tds, err := row.QueryAll("td")
		if err != nil || len(tds) < 2 {
			continue
		}
		full := strings.TrimSpace(textOf(tds[0]) + " " + textOf(tds[1]))
		if _, skip := sidebarLabels[strings.ToLower(full)]; skip {
			continue
		}
		href, _ := link.Attribute("href")
		out = append(out, candidate{
			Candidate: models.Candidate{FullName: full, ProfileURL: resolveURL(base, href)},
			link:      link,
		})
	}
	return out
}

// notFoundMessage names the closest candidates by Jaro-Winkler
// similarity. Selection itself stays exact.
func notFoundMessage(query string, cands []candidate) string {
	if len(cands) == 0 {
		return fmt.Sprintf("no judge named %q in search results", query)
	}

	type scored struct {
		name  string
		score float64
	}
	seen := make(map[string]struct{}, len(cands))
	var ranked []scored
	for _, c := range cands {
		key := strings.ToLower(c.FullName)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ranked = append(ranked, scored{c.FullName, matchr.JaroWinkler(strings.ToLower(query), key, false)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	names := make([]string, 0, 3)
	for i := 0; i < len(ranked) && i < 3; i++ {
		names = append(names, ranked[i].name)
	}
	return fmt.Sprintf("no judge named %q in search results; closest: %s", query, strings.Join(names, ", "))
}
