package scraper

import (
	"context"
	"log/slog"
	"strings"

	"github.com/use-agent/judgetrack/cleaner"
	"github.com/use-agent/judgetrack/engine"
	"github.com/use-agent/judgetrack/matcher"
)

// CorrelateEntry visits an entry page and returns the entry's display
// name and the points judgeName gave it in round against opponent.
// Either value is "" when it cannot be found. h is always navigated back
// to the page it started on.
func (s *Scraper) CorrelateEntry(ctx context.Context, h engine.Handle, entryURL, judgeName, round, opponent string) (name, points string) {
	original := h.CurrentURL()
	defer func() {
		if original == "" || original == entryURL {
			return
		}
		if err := h.Navigate(ctx, original); err != nil {
			slog.Warn("return from entry page failed", "url", original, "error", err)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("entry correlation panicked", "entry", entryURL, "panic", r)
			name, points = "", ""
		}
	}()

	if err := h.Navigate(ctx, entryURL); err != nil {
		slog.Warn("entry page navigation failed", "entry", entryURL, "error", err)
		return "", ""
	}

	name = textOf(firstOnPage(ctx, h, entryHeadingSelectors, s.cfg.EntryTimeout))
	if name == "" {
		slog.Debug("entry name not found", "entry", entryURL)
	}

	for _, row := range allOnPage(ctx, h, entryRowSelectors) {
		if p, ok := matchEntryRow(row, judgeName, round, opponent); ok {
			slog.Debug("entry row matched", "entry", entryURL, "round", round, "points", p)
			return name, p
		}
	}
	slog.Debug("no entry row matched", "entry", entryURL, "judge", judgeName, "round", round)
	return name, ""
}

// matchEntryRow reports whether row is the round judged by judgeName
// against opponent, and returns the points found in it.
func matchEntryRow(row engine.Element, judgeName, round, opponent string) (points string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			points, ok = "", false
		}
	}()

	if !matcher.RoundsMatch(textOf(firstWithin(row, roundLabelSelectors)), round) {
		return "", false
	}
	opp := firstWithin(row, opponentSelectors)
	if opp == nil || !matcher.CodesSimilar(matcher.StripVersus(textOf(opp)), opponent) {
		return "", false
	}

	for _, link := range allWithin(row, judgeLinkSelectors) {
		linkText := textOf(link)
		if !matcher.JudgeNameMatches(judgeName, linkText) {
			continue
		}
		scope, found := link.Closest(pointsScopeSelector)
		if !found {
			scope = row
		}
		return pointsIn(scope, linkText), true
	}
	return "", false
}

// pointsIn finds speaker points inside scope, preferring dedicated
// points elements and falling back to scanning the scope's text with the
// judge's name removed.
func pointsIn(scope engine.Element, judgeText string) string {
	for _, el := range allWithin(scope, pointsSelectors) {
		if p := matcher.ParsePoints(textOf(el)); p != "" {
			return p
		}
	}

	raw, err := scope.InnerHTML()
	if err != nil {
		return ""
	}
	text := cleaner.Text(raw)
	if judgeText != "" {
		text = strings.ReplaceAll(text, judgeText, " ")
	}
	return matcher.ScanPoints(text)
}
