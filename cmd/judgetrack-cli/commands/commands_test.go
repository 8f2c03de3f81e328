package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/judgetrack/models"
	"github.com/use-agent/judgetrack/store"
)

var records = []models.JudgeRecord{
	{JudgeID: "1", JudgeName: "Jane Doe", Tournament: "Alpha", Date: "2024-03-15", Round: "1",
		AffCode: "Lincoln AB", NegCode: "Central CD", Vote: "Aff", Result: "AFF", AffPoints: "28.5"},
	{JudgeID: "1", JudgeName: "Jane Doe", Tournament: "Alpha", Date: "2024-03-15", Round: "2",
		AffCode: "Central CD", NegCode: "Lincoln XY", Vote: "Aff", Result: "NEG 2-1"},
	{JudgeID: "2", JudgeName: "Sam Roe", Tournament: "Alpha", Date: "2024-03-15", Round: "1",
		AffCode: "Westside EF", NegCode: "Central CD", Vote: "Neg", Result: "NEG"},
}

func seedStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	_, err = st.Save(context.Background(), records)
	require.NoError(t, err)
	require.NoError(t, st.Close())
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Flag values survive between Execute calls on the shared command tree.
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	statsCmd.Flags().VisitAll(reset)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.json5")))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStatsCommand(t *testing.T) {
	db := seedStore(t)

	out, err := run(t, "stats", "1", "--db", db, "--team", "lincoln")
	require.NoError(t, err)
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "100.0")
	assert.NotContains(t, out, "Sam Roe")
	assert.Contains(t, strings.ToLower(out), "lincoln")

	out, err = run(t, "stats", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Sam Roe")
}

func TestStatsCommand_Errors(t *testing.T) {
	db := seedStore(t)

	_, err := run(t, "stats", "9", "--db", db)
	assert.ErrorContains(t, err, "no decided rounds")

	_, err = run(t, "stats", "1")
	assert.ErrorContains(t, err, "no record store")
}

func TestRenderRecords(t *testing.T) {
	var buf bytes.Buffer
	renderRecords(&buf, records[:2])
	out := buf.String()
	assert.Contains(t, out, "Lincoln AB")
	assert.Contains(t, out, "28.5")
	assert.Contains(t, strings.ToLower(out), "2 rounds")
}

func TestRenderOutcomes(t *testing.T) {
	var buf bytes.Buffer
	renderOutcomes(&buf, []models.JudgeOutcome{
		{JudgeID: "1", JudgeName: "Jane Doe", Records: 3},
		{JudgeID: "2", JudgeName: "Sam Roe", Err: models.NewScrapeError(models.ErrCodeNavigation, "HTTP 500", nil)},
		{JudgeID: "3", JudgeName: "Al Poe", Skipped: true},
	})
	out := buf.String()
	assert.Contains(t, out, "NAVIGATION_FAILED")
	assert.Contains(t, out, "skipped")
}

func TestSearchCommand_NeedsCredentials(t *testing.T) {
	t.Setenv("TABROOM_EMAIL", "")
	t.Setenv("TABROOM_PASSWORD", "")
	t.Setenv("TABROOM_SESSION_COOKIE", "")

	_, err := run(t, "search", "Jane", "Doe")
	assert.ErrorContains(t, err, "no tabroom credentials")
}
