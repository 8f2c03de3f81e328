package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/use-agent/judgetrack/engine"
	"github.com/use-agent/judgetrack/models"
	"golang.org/x/sync/errgroup"
)

// reTournamentDetails parses the year and location line under the
// tournament name. Dash separators vary between pages.
var reTournamentDetails = regexp.MustCompile(`(\d{4})\s*[—–-]\s*(.*)`)

// TournamentOptions tunes a tournament run.
type TournamentOptions struct {
	// MaxJudges truncates the judge list. Zero means no limit.
	MaxJudges int

	// Workers is the number of judges processed at once, each on its own
	// handle. Zero uses the scraper default.
	Workers int

	// Skip reports judges to leave out, typically ones already stored.
	Skip func(ctx context.Context, judgeID string) bool

	// OnJudge receives each judge's annotated records as soon as they
	// are extracted. It may be called from several goroutines.
	OnJudge func(judge models.JudgeListEntry, records []models.JudgeRecord)

	// Progress is called after each judge finishes, in any outcome.
	Progress func(done, total int)
}

// ScrapeTournament extracts the record of every judge on a tournament
// judge list. One judge failing never aborts the run: its outcome
// carries the error and the remaining judges are still processed.
func (s *Scraper) ScrapeTournament(ctx context.Context, listURL string, opts TournamentOptions) *models.TournamentResult {
	res := &models.TournamentResult{URL: listURL, Records: []models.JudgeRecord{}, Judges: []models.JudgeOutcome{}}
	if strings.TrimSpace(listURL) == "" {
		res.Err = models.NewScrapeError(models.ErrCodeInvalidInput, "tournament URL is required", nil)
		return res
	}

	ctx, cancel := withTimeout(ctx, s.cfg.TournamentTimeout)
	defer cancel()

	info, judges, serr := s.readJudgeList(ctx, listURL)
	res.Info = info
	if serr != nil {
		res.Err = serr
		return res
	}
	if opts.MaxJudges > 0 && len(judges) > opts.MaxJudges {
		judges = judges[:opts.MaxJudges]
	}
	slog.Info("tournament judge list read", "tournament", info.Name, "judges", len(judges))

	outcomes := make([]models.JudgeOutcome, len(judges))
	records := make([][]models.JudgeRecord, len(judges))

	jobs := make(chan int, len(judges))
	for i := range judges {
		jobs <- i
	}
	close(jobs)

	workers := opts.Workers
	if workers <= 0 {
		workers = s.cfg.Workers
	}
	workers = max(1, min(workers, len(judges)))

	var done atomic.Int32
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range jobs {
				outcomes[i], records[i] = s.scrapeListedJudge(ctx, judges[i], info, opts)
				if opts.Progress != nil {
					opts.Progress(int(done.Add(1)), len(judges))
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	for i := range judges {
		res.Records = append(res.Records, records[i]...)
	}
	res.Judges = outcomes
	slog.Info("tournament run done", "tournament", info.Name,
		"judges", len(judges), "failed", res.Failed(), "records", len(res.Records))
	return res
}

// scrapeListedJudge extracts one judge straight from their profile URL.
func (s *Scraper) scrapeListedJudge(ctx context.Context, judge models.JudgeListEntry, info models.TournamentInfo, opts TournamentOptions) (out models.JudgeOutcome, recs []models.JudgeRecord) {
	out = models.JudgeOutcome{JudgeID: judge.JudgeID, JudgeName: judge.JudgeName, ProfileURL: judge.ProfileURL}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("judge panicked in tournament run", "judge", judge.JudgeName, "id", judge.JudgeID, "panic", r)
			out.Err = models.NewScrapeError(models.ErrCodeInternal, fmt.Sprintf("judge panicked: %v", r), nil)
			out.Error = out.Err.ToDetail()
			out.Records = 0
			recs = nil
		}
	}()

	if err := ctx.Err(); err != nil {
		out.Err = models.NewScrapeError(models.ErrCodeTimeout, "tournament run interrupted", err)
		out.Error = out.Err.ToDetail()
		return out, nil
	}
	if opts.Skip != nil && opts.Skip(ctx, judge.JudgeID) {
		slog.Info("judge skipped", "judge", judge.JudgeName, "id", judge.JudgeID)
		out.Skipped = true
		return out, nil
	}

	h, err := s.provider.Acquire(ctx)
	if err != nil {
		out.Err = models.AsScrapeError(err)
		out.Error = out.Err.ToDetail()
		return out, nil
	}
	defer s.provider.Release(h)

	jr := s.extractJudge(ctx, h, judge.ProfileURL, true, judge.JudgeName)
	if jr.JudgeName != "" {
		out.JudgeName = jr.JudgeName
	}
	if jr.Err != nil {
		out.Err = jr.Err
		out.Error = jr.Err.ToDetail()
		slog.Warn("judge extraction incomplete", "judge", out.JudgeName, "id", judge.JudgeID, "error", jr.Err)
	}

	recs = make([]models.JudgeRecord, 0, len(jr.Records))
	for _, r := range jr.Records {
		if r.JudgeName == "" {
			r.JudgeName = out.JudgeName
		}
		if r.JudgeID == "" {
			r.JudgeID = judge.JudgeID
		}
		recs = append(recs, r.WithTournament(info))
	}
	out.Records = len(recs)

	if opts.OnJudge != nil && len(recs) > 0 {
		named := judge
		named.JudgeName = out.JudgeName
		opts.OnJudge(named, recs)
	}
	return out, recs
}

// readJudgeList loads the list page and returns the tournament heading
// and the judges in list order.
func (s *Scraper) readJudgeList(ctx context.Context, listURL string) (info models.TournamentInfo, judges []models.JudgeListEntry, serr *models.ScrapeError) {
	h, err := s.provider.Acquire(ctx)
	if err != nil {
		return info, nil, models.AsScrapeError(err)
	}
	defer s.provider.Release(h)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("judge list read panicked", "url", listURL, "panic", r)
			serr = models.NewScrapeError(models.ErrCodeInternal, fmt.Sprintf("judge list panicked: %v", r), nil)
		}
	}()

	if err := h.Navigate(ctx, listURL); err != nil {
		return info, nil, models.AsScrapeError(err)
	}
	info = tournamentInfo(ctx, h)

	if _, ok := h.WaitFor(ctx, judgeListSelector, s.cfg.JudgeListTimeout); !ok {
		return info, nil, models.NewScrapeError(models.ErrCodeNoRecords, "judge list not found on "+listURL, ctx.Err())
	}
	rows, err := h.QueryAll(ctx, judgeListRowSelector)
	if err != nil {
		return info, nil, models.AsScrapeError(err)
	}

	base := h.CurrentURL()
	for _, row := range rows {
		if j, ok := judgeListEntry(row, base); ok {
			judges = append(judges, j)
		}
	}
	return info, judges, nil
}

// tournamentInfo parses the list page heading. Missing parts stay empty.
func tournamentInfo(ctx context.Context, h engine.Handle) models.TournamentInfo {
	info := models.TournamentInfo{Name: pageText(ctx, h, tournamentNameSelector)}
	if m := reTournamentDetails.FindStringSubmatch(pageText(ctx, h, tournamentDetailsSelector)); m != nil {
		info.Year = m[1]
		info.Location = strings.TrimSpace(m[2])
	}
	return info
}

// judgeListEntry reads the first and last name links of a judge list
// row. Rows without a judge_person_id are dropped.
func judgeListEntry(row engine.Element, base string) (models.JudgeListEntry, bool) {
	first, err := row.QueryAll("td:nth-child(2) a")
	if err != nil || len(first) == 0 {
		return models.JudgeListEntry{}, false
	}
	last, err := row.QueryAll("td:nth-child(3) a")
	if err != nil || len(last) == 0 {
		return models.JudgeListEntry{}, false
	}
	href, _ := first[0].Attribute("href")
	profile := resolveURL(base, href)
	id := judgeIDFromURL(profile)
	if id == "" {
		return models.JudgeListEntry{}, false
	}
	return models.JudgeListEntry{
		JudgeID:    id,
		JudgeName:  strings.TrimSpace(textOf(first[0]) + " " + textOf(last[0])),
		ProfileURL: profile,
	}, true
}
