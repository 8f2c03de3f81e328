// Package store persists judge records in sqlite.
//
// Records are keyed by (judge_id, tournament, date, round). The source
// site repeats that key occasionally; the last write wins.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/use-agent/judgetrack/models"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

const columns = `judge_id, judge_name, tournament, level, date, event, round,
	aff_code, neg_code, vote, result, aff_name, aff_points, neg_name, neg_points,
	tournament_name, tournament_year, tournament_location`

// Store is a sqlite-backed record store. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" gives
// a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// sqlite serialises writers anyway, and every :memory: connection
	// would be a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts records in one transaction and returns how many were
// written.
func (s *Store) Save(ctx context.Context, records []models.JudgeRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO judge_records (`+columns+`, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("store: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.JudgeID, r.JudgeName, r.Tournament, r.Level, r.Date, r.Event, r.Round,
			r.AffCode, r.NegCode, r.Vote, r.Result, r.AffName, r.AffPoints, r.NegName, r.NegPoints,
			r.TournamentName, r.TournamentYear, r.TournamentLocation, now,
		); err != nil {
			return 0, fmt.Errorf("store: insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return len(records), nil
}

// HasJudge reports whether any record of judgeID is stored.
func (s *Store) HasJudge(ctx context.Context, judgeID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM judge_records WHERE judge_id = ?`, judgeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: has judge: %w", err)
	}
	return n > 0, nil
}

// ByJudge returns a judge's records, oldest first.
func (s *Store) ByJudge(ctx context.Context, judgeID string) ([]models.JudgeRecord, error) {
	return s.query(ctx, `SELECT `+columns+` FROM judge_records
		WHERE judge_id = ? ORDER BY date, tournament, round`, judgeID)
}

// SearchByName returns records whose judge name contains name,
// case-insensitively.
func (s *Store) SearchByName(ctx context.Context, name string) ([]models.JudgeRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []models.JudgeRecord{}, nil
	}
	return s.query(ctx, `SELECT `+columns+` FROM judge_records
		WHERE judge_name LIKE ? ESCAPE '\' ORDER BY judge_name, date, tournament, round`,
		"%"+escapeLike(name)+"%")
}

// All returns every stored record.
func (s *Store) All(ctx context.Context) ([]models.JudgeRecord, error) {
	return s.query(ctx, `SELECT `+columns+` FROM judge_records
		ORDER BY judge_id, date, tournament, round`)
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM judge_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]models.JudgeRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	out := []models.JudgeRecord{}
	for rows.Next() {
		var r models.JudgeRecord
		if err := rows.Scan(
			&r.JudgeID, &r.JudgeName, &r.Tournament, &r.Level, &r.Date, &r.Event, &r.Round,
			&r.AffCode, &r.NegCode, &r.Vote, &r.Result, &r.AffName, &r.AffPoints, &r.NegName, &r.NegPoints,
			&r.TournamentName, &r.TournamentYear, &r.TournamentLocation,
		); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: rows: %w", err)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
