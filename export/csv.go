// Package export writes judge records as CSV artifacts.
//
// Column order is fixed; downstream spreadsheets and the legacy metrics
// tooling address columns by header name and position.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/use-agent/judgetrack/models"
)

// Columns is the header of every record export.
var Columns = []string{
	"JudgeID", "JudgeName", "Tournament", "Lv", "Date", "Ev", "Rd",
	"AffCode", "NegCode", "Vote", "Result",
	"AffName", "AffPoints", "NegName", "NegPoints",
}

// TournamentColumns are appended for tournament run exports.
var TournamentColumns = []string{"TournamentName", "TournamentDate", "TournamentLocation"}

var reUnsafe = regexp.MustCompile(`[^\w\s-]`)

// SafeName reduces name to letters, digits, '_' and '-', with spaces
// turned into underscores.
func SafeName(name string) string {
	s := strings.TrimSpace(reUnsafe.ReplaceAllString(name, ""))
	s = strings.Join(strings.Fields(s), "_")
	if s == "" {
		return "unnamed"
	}
	return s
}

// Filename is "{prefix}_{safe name}_{YYYYMMDD_HHMMSS}.csv".
func Filename(prefix, name string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s.csv", prefix, SafeName(name), at.Format("20060102_150405"))
}

// JudgeBackupFilename is "judge_{id}_{safe name}.csv".
func JudgeBackupFilename(judgeID, name string) string {
	return fmt.Sprintf("judge_%s_%s.csv", judgeID, SafeName(name))
}

// WriteCSV writes records with a header row. withTournament appends the
// tournament columns.
func WriteCSV(w io.Writer, records []models.JudgeRecord, withTournament bool) error {
	cw := csv.NewWriter(w)

	header := Columns
	if withTournament {
		header = append(append([]string{}, Columns...), TournamentColumns...)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(row(r, withTournament)); err != nil {
			return fmt.Errorf("export: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(r models.JudgeRecord, withTournament bool) []string {
	out := []string{
		r.JudgeID, r.JudgeName, r.Tournament, r.Level, r.Date, r.Event, r.Round,
		r.AffCode, r.NegCode, r.Vote, r.Result,
		r.AffName, r.AffPoints, r.NegName, r.NegPoints,
	}
	if withTournament {
		out = append(out, r.TournamentName, r.TournamentYear, r.TournamentLocation)
	}
	return out
}

// SaveCSV writes records to dir/filename, creating dir as needed, and
// returns the file path.
func SaveCSV(dir, filename string, records []models.JudgeRecord, withTournament bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: create %s: %w", path, err)
	}
	if err := WriteCSV(f, records, withTournament); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("export: close %s: %w", path, err)
	}
	return path, nil
}
