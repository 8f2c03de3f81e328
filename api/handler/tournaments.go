package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/judgetrack/config"
	"github.com/use-agent/judgetrack/export"
	"github.com/use-agent/judgetrack/models"
	"github.com/use-agent/judgetrack/scraper"
	"github.com/use-agent/judgetrack/store"
	"github.com/use-agent/judgetrack/webhook"
)

// jobStore holds all in-flight and finished tournament jobs.
var jobStore sync.Map

// jobRetention is how long a job stays queryable after it finishes.
const jobRetention = 24 * time.Hour

func init() {
	// Expire finished jobs; running ones are kept however long they take.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			expireJobs(time.Now().Add(-jobRetention).Unix())
		}
	}()
}

func expireJobs(cutoff int64) {
	jobStore.Range(func(key, value any) bool {
		job := value.(*models.TournamentJob)
		if job.FinishedBefore(cutoff) {
			jobStore.Delete(key)
		}
		return true
	})
}

// PostTournament returns a handler for POST /api/v1/tournaments/scrape.
// It validates the request, registers a job and runs it in the background.
func PostTournament(sc TournamentScraper, st *store.Store, out config.OutputConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TournamentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.NewErrorResponse(models.ErrCodeInvalidInput, err.Error()))
			return
		}
		if req.SkipExisting && st == nil {
			c.JSON(http.StatusBadRequest, models.NewErrorResponse(models.ErrCodeInvalidInput,
				"skip_existing needs a record store"))
			return
		}

		job := models.NewTournamentJob(uuid.NewString(), req.URL)
		jobStore.Store(job.ID, job)

		// Launch scraping in background.
		go runTournament(sc, st, out, job, req)

		c.JSON(http.StatusAccepted, models.TournamentJobResponse{
			ID:     job.ID,
			Status: models.JobProcessing,
			URL:    req.URL,
		})
	}
}

// GetTournament returns a handler for GET /api/v1/tournaments/:id.
func GetTournament() gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := loadJob(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, job.Snapshot())
	}
}

// ExportTournament returns a handler for GET /api/v1/tournaments/:id/export.
// The job must have finished.
func ExportTournament() gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := loadJob(c)
		if !ok {
			return
		}
		if !job.Done() {
			c.JSON(http.StatusConflict, models.NewErrorResponse(models.ErrCodeInvalidInput,
				"tournament job is still processing"))
			return
		}
		snap := job.Snapshot()
		name := snap.Info.Name
		if name == "" {
			name = snap.ID
		}
		writeCSV(c, "tournament", name, job.Records(), true)
	}
}

func loadJob(c *gin.Context) (*models.TournamentJob, bool) {
	val, ok := jobStore.Load(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.NewErrorResponse(models.ErrCodeInvalidInput, "tournament job not found"))
		return nil, false
	}
	return val.(*models.TournamentJob), true
}

// runTournament executes one job: records are stored and backed up per
// judge as they arrive, the combined CSV is written at the end, and the
// webhook (if any) is notified last.
func runTournament(sc TournamentScraper, st *store.Store, out config.OutputConfig, job *models.TournamentJob, req models.TournamentRequest) {
	ctx := context.Background()

	opts := scraper.TournamentOptions{
		MaxJudges: req.MaxJudges,
		Workers:   req.Workers,
		Progress:  job.SetProgress,
		OnJudge: func(judge models.JudgeListEntry, records []models.JudgeRecord) {
			if st != nil {
				n, err := st.Save(ctx, records)
				if err != nil {
					slog.Warn("judge records not stored", "job", job.ID, "judge", judge.JudgeName, "error", err)
				}
				job.AddStored(n)
			}
			if out.BackupDir != "" {
				name := export.JudgeBackupFilename(judge.JudgeID, judge.JudgeName)
				if _, err := export.SaveCSV(out.BackupDir, name, records, true); err != nil {
					slog.Warn("judge backup not written", "job", job.ID, "judge", judge.JudgeName, "error", err)
				}
			}
		},
	}
	if req.SkipExisting && st != nil {
		opts.Skip = func(ctx context.Context, judgeID string) bool {
			has, err := st.HasJudge(ctx, judgeID)
			if err != nil {
				slog.Warn("skip check failed", "job", job.ID, "id", judgeID, "error", err)
				return false
			}
			return has
		}
	}

	res := sc.ScrapeTournament(ctx, req.URL, opts)
	job.Finish(res)
	snap := job.Snapshot()

	if out.Dir != "" && len(res.Records) > 0 {
		name := export.Filename("tournament", res.Info.Name, time.Now())
		if path, err := export.SaveCSV(out.Dir, name, res.Records, true); err != nil {
			slog.Error("tournament export failed", "job", job.ID, "error", err)
		} else {
			slog.Info("tournament export written", "job", job.ID, "path", path)
		}
	}

	slog.Info("tournament job finished",
		"id", job.ID,
		"status", snap.Status,
		"judges", snap.Total,
		"failed", snap.Failed,
		"records", snap.Records,
		"stored", snap.Stored,
	)

	if req.WebhookURL != "" {
		eventType := webhook.EventTournamentCompleted
		if snap.Status == models.JobFailed {
			eventType = webhook.EventTournamentFailed
		}
		webhook.DeliverAsync(req.WebhookURL, req.WebhookSecret, webhook.NewEvent(eventType, job.ID, snap))
	}
}
