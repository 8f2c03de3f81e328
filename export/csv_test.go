package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/judgetrack/models"
)

var sample = models.JudgeRecord{
	JudgeID: "1", JudgeName: "Jane Doe", Tournament: "Alpha, Invitational", Level: "HS",
	Date: "2024-03-15", Event: "LD", Round: "1", AffCode: "Lincoln AB", NegCode: "Central CD",
	Vote: "Aff", Result: "AFF", AffName: "Ann Smith", AffPoints: "28.5",
	TournamentName: "Test Invitational", TournamentYear: "2025", TournamentLocation: "Atlanta, GA/US",
}

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		name           string
		withTournament bool
		wantCols       int
	}{
		{"plain", false, 15},
		{"tournament", true, 18},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteCSV(&buf, []models.JudgeRecord{sample}, tt.withTournament))

			rows, err := csv.NewReader(&buf).ReadAll()
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Len(t, rows[0], tt.wantCols)
			assert.Equal(t, "JudgeID", rows[0][0])
			assert.Equal(t, "NegPoints", rows[0][14])
			assert.Equal(t, "Alpha, Invitational", rows[1][2])
			assert.Equal(t, "28.5", rows[1][12])
			if tt.withTournament {
				assert.Equal(t, "TournamentDate", rows[0][16])
				assert.Equal(t, "Atlanta, GA/US", rows[1][17])
			}
		})
	}
}

func TestFilenames(t *testing.T) {
	at := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	assert.Equal(t, "judge_Jane_Doe_20250203_040506.csv", Filename("judge", "Jane  Doe!", at))
	assert.Equal(t, "judge_42_OBrien-Smith_Pat.csv", JudgeBackupFilename("42", "O'Brien-Smith Pat"))
	assert.Equal(t, "unnamed", SafeName("?!"))
}

func TestSaveCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := SaveCSV(dir, "x.csv", []models.JudgeRecord{sample}, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "x.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Jane Doe")
}
