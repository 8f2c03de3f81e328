package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/use-agent/judgetrack/cleaner"
	"github.com/use-agent/judgetrack/engine"
	"github.com/use-agent/judgetrack/models"
)

// recordColumns is the number of leading cells a record row must carry.
const recordColumns = 9

// rowData is one record row read off the page before any correlation.
type rowData struct {
	cells  [recordColumns]string
	affURL string
	negURL string
}

// ExtractJudge reads the judge record table from h. When reload is true
// h first navigates to profileURL; otherwise the current page is used.
//
// The result carries records in source order. A missing record table
// yields no records and an ErrCodeNoRecords error; correlation failures
// only leave name and points fields empty.
func (s *Scraper) ExtractJudge(ctx context.Context, h engine.Handle, profileURL string, reload bool) *models.JudgeResult {
	return s.extractJudge(ctx, h, profileURL, reload, "")
}

// extractJudge is ExtractJudge with a name to correlate under when the
// profile page has no heading, as when a tournament list already named
// the judge.
func (s *Scraper) extractJudge(ctx context.Context, h engine.Handle, profileURL string, reload bool, knownName string) (res *models.JudgeResult) {
	res = &models.JudgeResult{ProfileURL: profileURL, Records: []models.JudgeRecord{}}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("judge extraction panicked", "url", profileURL, "panic", r)
			res.Err = models.NewScrapeError(models.ErrCodeInternal, fmt.Sprintf("extraction panicked: %v", r), nil)
		}
	}()

	if reload {
		if err := h.Navigate(ctx, profileURL); err != nil {
			res.Err = models.AsScrapeError(err)
			slog.Warn("judge page navigation failed", "url", profileURL, "error", err)
			return res
		}
	}
	if res.ProfileURL == "" {
		res.ProfileURL = h.CurrentURL()
	}

	res.JudgeID = judgeIDFromURL(res.ProfileURL)
	if res.JudgeID == "" {
		res.JudgeID = judgeIDFromURL(h.CurrentURL())
	}
	res.JudgeName = pageText(ctx, h, judgeHeadingSelector)
	matchName := res.JudgeName
	if matchName == "" {
		matchName = knownName
		slog.Warn("judge name not found", "url", res.ProfileURL, "fallback", knownName)
	}

	if _, ok := h.WaitFor(ctx, recordRowSelector, s.cfg.RecordTableTimeout); !ok {
		slog.Warn("judge record table not found", "judge", res.JudgeName, "url", res.ProfileURL)
		res.Err = models.NewScrapeError(models.ErrCodeNoRecords, "judge record table not found", ctx.Err())
		return res
	}

	rows, err := h.QueryAll(ctx, recordRowSelector)
	if err != nil {
		res.Err = models.AsScrapeError(err)
		return res
	}

	// Read every row before correlating: correlation navigates away and
	// would invalidate live row elements.
	base := h.CurrentURL()
	data := make([]rowData, 0, len(rows))
	for i, row := range rows {
		if d, ok := readRecordRow(row, base, i); ok {
			data = append(data, d)
		}
	}
	slog.Info("judge record rows read", "judge", res.JudgeName, "rows", len(rows), "records", len(data))

	for i, d := range data {
		if err := ctx.Err(); err != nil {
			res.Err = models.NewScrapeError(models.ErrCodeTimeout, "extraction interrupted", err)
			break
		}
		rec := d.record(res.JudgeID, res.JudgeName)
		if s.cfg.Correlate && matchName != "" {
			if d.affURL != "" {
				rec.AffName, rec.AffPoints = s.CorrelateEntry(ctx, h, d.affURL, matchName, rec.Round, rec.NegCode)
			}
			if d.negURL != "" {
				rec.NegName, rec.NegPoints = s.CorrelateEntry(ctx, h, d.negURL, matchName, rec.Round, rec.AffCode)
			}
		}
		slog.Debug("record extracted", "judge", res.JudgeName, "row", i, "round", rec.Round)
		res.Records = append(res.Records, rec)
	}

	if len(res.Records) == 0 && res.Err == nil {
		res.Err = models.NewScrapeError(models.ErrCodeNoRecords, "judge record table has no data rows", nil)
	}
	return res
}

// readRecordRow reads one table row. Header rows and rows with fewer
// than recordColumns cells are skipped.
func readRecordRow(row engine.Element, base string, index int) (d rowData, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("record row skipped", "row", index, "panic", r)
			ok = false
		}
	}()

	tds, err := row.QueryAll("td")
	if err != nil || len(tds) < recordColumns {
		return d, false
	}
	for i := 0; i < recordColumns; i++ {
		field := cleaner.FieldText
		switch i {
		case 2:
			field = cleaner.FieldDate
		case 8:
			field = cleaner.FieldResult
		}
		d.cells[i] = cellOf(tds[i], field)
	}
	if strings.EqualFold(d.cells[0], "tournament") {
		return d, false
	}
	d.affURL = hrefOf(tds[5], base)
	d.negURL = hrefOf(tds[6], base)
	return d, true
}

func (d rowData) record(judgeID, judgeName string) models.JudgeRecord {
	return models.JudgeRecord{
		JudgeID:    judgeID,
		JudgeName:  judgeName,
		Tournament: d.cells[0],
		Level:      d.cells[1],
		Date:       d.cells[2],
		Event:      d.cells[3],
		Round:      d.cells[4],
		AffCode:    d.cells[5],
		NegCode:    d.cells[6],
		Vote:       d.cells[7],
		Result:     d.cells[8],
	}
}
