package models

import (
	"sync"
	"time"
)

// Job statuses.
const (
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobPartial    = "partial"
	JobFailed     = "failed"
)

// TournamentJobResponse is the immediate response for
// POST /api/v1/tournaments/scrape.
type TournamentJobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	URL    string `json:"url"`
}

// TournamentStatusResponse is the response for GET /api/v1/tournaments/:id.
type TournamentStatusResponse struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	URL        string         `json:"url"`
	Info       TournamentInfo `json:"info"`
	Completed  int            `json:"completed"`
	Total      int            `json:"total"`
	Failed     int            `json:"failed"`
	Records    int            `json:"records"`
	Stored     int            `json:"stored"`
	Judges     []JudgeOutcome `json:"judges,omitempty"`
	CreatedAt  int64          `json:"created_at"`
	FinishedAt int64          `json:"finished_at,omitempty"`
	Error      *ErrorDetail   `json:"error,omitempty"`
}

// TournamentJob tracks a background tournament run. Fields are guarded
// by mu; use the methods once the job is shared.
type TournamentJob struct {
	mu sync.RWMutex

	ID        string
	URL       string
	Status    string
	Completed int
	Total     int
	Stored    int
	Result    *TournamentResult
	CreatedAt int64 // unix timestamp

	// FinishedAt is the unix timestamp of Finish; 0 while processing.
	FinishedAt int64
}

// NewTournamentJob returns a processing job for url.
func NewTournamentJob(id, url string) *TournamentJob {
	return &TournamentJob{ID: id, URL: url, Status: JobProcessing, CreatedAt: time.Now().Unix()}
}

// SetProgress records how many judges have finished.
func (j *TournamentJob) SetProgress(done, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if done > j.Completed {
		j.Completed = done
	}
	j.Total = total
}

// AddStored counts records written to the store.
func (j *TournamentJob) AddStored(n int) {
	j.mu.Lock()
	j.Stored += n
	j.mu.Unlock()
}

// Finish stores the run result and derives the final status: failed when
// the run itself errored or every judge failed, partial when some did.
func (j *TournamentJob) Finish(res *TournamentResult) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Result = res
	j.FinishedAt = time.Now().Unix()
	j.Total = len(res.Judges)
	j.Completed = len(res.Judges)
	failed := res.Failed()
	switch {
	case res.Err != nil:
		j.Status = JobFailed
	case failed > 0 && failed == len(res.Judges):
		j.Status = JobFailed
	case failed > 0:
		j.Status = JobPartial
	default:
		j.Status = JobCompleted
	}
}

// Done reports whether the job has finished.
func (j *TournamentJob) Done() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status != JobProcessing
}

// FinishedBefore reports whether the job finished before the unix time
// cutoff. A processing job never has.
func (j *TournamentJob) FinishedBefore(cutoff int64) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status != JobProcessing && j.FinishedAt < cutoff
}

// Records returns the finished run's records, or nil while processing.
func (j *TournamentJob) Records() []JudgeRecord {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.Result == nil {
		return nil
	}
	return j.Result.Records
}

// Snapshot renders the job for the status endpoint.
func (j *TournamentJob) Snapshot() TournamentStatusResponse {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := TournamentStatusResponse{
		ID:         j.ID,
		Status:     j.Status,
		URL:        j.URL,
		Completed:  j.Completed,
		Total:      j.Total,
		Stored:     j.Stored,
		CreatedAt:  j.CreatedAt,
		FinishedAt: j.FinishedAt,
	}
	if r := j.Result; r != nil {
		out.Info = r.Info
		out.Failed = r.Failed()
		out.Records = len(r.Records)
		out.Judges = r.Judges
		out.Error = r.Err.ToDetail()
	}
	return out
}
