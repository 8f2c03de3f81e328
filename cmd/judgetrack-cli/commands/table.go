package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/use-agent/judgetrack/metrics"
	"github.com/use-agent/judgetrack/models"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func renderRecords(w io.Writer, records []models.JudgeRecord) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Date", "Tournament", "Ev", "Rd", "Aff", "Neg", "Vote", "Result", "Aff pts", "Neg pts"})
	for _, r := range records {
		t.AppendRow(table.Row{r.Date, r.Tournament, r.Event, r.Round, r.AffCode, r.NegCode, r.Vote, r.Result, r.AffPoints, r.NegPoints})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d rounds", len(records))})
	t.Render()
}

func renderOutcomes(w io.Writer, judges []models.JudgeOutcome) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Judge", "Records", "Status"})
	for _, j := range judges {
		status := "ok"
		switch {
		case j.Skipped:
			status = "skipped"
		case j.Err != nil:
			status = j.Err.Code
		}
		t.AppendRow(table.Row{j.JudgeID, j.JudgeName, j.Records, status})
	}
	t.Render()
}

func renderJudgeStats(w io.Writer, stats []metrics.JudgeStats) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Judge", "Rounds", "Aff win %", "Squirrel %", "Panels"})
	for _, s := range stats {
		t.AppendRow(table.Row{s.JudgeID, s.JudgeName, s.RoundsJudged,
			fmt.Sprintf("%.1f", s.AffWinRate), fmt.Sprintf("%.1f", s.SquirrelRate), s.PanelRounds})
	}
	t.Render()
}

func renderTeamStats(w io.Writer, stats []metrics.TeamStats) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Judge", "Team", "Rounds", "Aff win %", "Neg win %", "Squirrel %"})
	for _, s := range stats {
		t.AppendRow(table.Row{s.JudgeID, s.JudgeName, s.Team, s.RoundsJudged,
			fmt.Sprintf("%.1f", s.AffWinRate), fmt.Sprintf("%.1f", s.NegWinRate), fmt.Sprintf("%.1f", s.SquirrelRate)})
	}
	t.Render()
}
