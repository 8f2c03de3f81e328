package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTournamentJob_Finish(t *testing.T) {
	fail := NewScrapeError(ErrCodeNavigation, "HTTP 500", nil)
	empty := NewScrapeError(ErrCodeNoRecords, "no records", nil)

	tests := []struct {
		name   string
		res    *TournamentResult
		status string
	}{
		{"all ok", &TournamentResult{Judges: []JudgeOutcome{{}, {Err: empty}}}, JobCompleted},
		{"some failed", &TournamentResult{Judges: []JudgeOutcome{{}, {Err: fail}}}, JobPartial},
		{"all failed", &TournamentResult{Judges: []JudgeOutcome{{Err: fail}}}, JobFailed},
		{"run failed", &TournamentResult{Err: fail}, JobFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := NewTournamentJob("id", "u")
			assert.False(t, j.Done())
			j.Finish(tt.res)
			assert.True(t, j.Done())
			assert.Equal(t, tt.status, j.Snapshot().Status)
		})
	}
}

func TestTournamentJob_Progress(t *testing.T) {
	j := NewTournamentJob("id", "u")
	j.SetProgress(2, 5)
	j.SetProgress(1, 5)
	j.AddStored(7)

	snap := j.Snapshot()
	assert.Equal(t, 2, snap.Completed)
	assert.Equal(t, 5, snap.Total)
	assert.Equal(t, 7, snap.Stored)
	assert.Nil(t, j.Records())
	assert.Nil(t, snap.Error)
}

func TestTournamentJob_FinishedBefore(t *testing.T) {
	j := NewTournamentJob("id", "u")
	j.CreatedAt = time.Now().Add(-48 * time.Hour).Unix()
	future := time.Now().Add(time.Hour).Unix()
	assert.False(t, j.FinishedBefore(future), "processing jobs never count as finished")

	j.Finish(&TournamentResult{})
	assert.NotZero(t, j.Snapshot().FinishedAt)
	assert.True(t, j.FinishedBefore(future))
	assert.False(t, j.FinishedBefore(time.Now().Add(-24*time.Hour).Unix()),
		"a long run that just finished is not expired by its start time")
}
