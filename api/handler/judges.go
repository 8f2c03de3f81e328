package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/judgetrack/cache"
	"github.com/use-agent/judgetrack/metrics"
	"github.com/use-agent/judgetrack/models"
	"github.com/use-agent/judgetrack/store"
)

// SearchJudge returns a handler for POST /api/v1/judges/search.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Serve from cache when max_age allows.
//  3. Scraper.SearchJudge.
//  4. Persist records (store failures are logged, not returned).
//  5. Cache and respond.
//
// A judge whose record table is empty is a success with no records.
func SearchJudge(sc JudgeSearcher, cc *cache.Cache, st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.NewErrorResponse(models.ErrCodeInvalidInput, err.Error()))
			return
		}
		req.Defaults()
		if strings.TrimSpace(req.Name) == "" {
			c.JSON(http.StatusBadRequest, models.NewErrorResponse(models.ErrCodeInvalidInput, "name is required"))
			return
		}

		// ── 2. Cache lookup ─────────────────────────────────────────
		cacheKey := cache.Key(req.Name)
		maxAge := time.Duration(req.MaxAge) * time.Second
		if cc != nil && maxAge > 0 {
			if cached, hit := cc.Get(cacheKey, maxAge); hit {
				resp := searchResponse(cached)
				resp.CacheStatus = "hit"
				resp.Timing.TotalMs = time.Since(totalStart).Milliseconds()
				c.JSON(http.StatusOK, resp)
				return
			}
		}

		// ── 3. Search ───────────────────────────────────────────────
		res := sc.SearchJudge(c.Request.Context(), req.Name)
		resp := searchResponse(res)

		// ── 4. Persist ──────────────────────────────────────────────
		if st != nil && *req.Save && len(res.Records) > 0 {
			n, err := st.Save(c.Request.Context(), res.Records)
			if err != nil {
				slog.Warn("search records not stored", "judge", res.JudgeName, "error", err)
			}
			resp.Stored = n
		}

		// ── 5. Cache + respond ──────────────────────────────────────
		if cc != nil && maxAge > 0 {
			cc.Set(cacheKey, res)
			resp.CacheStatus = "miss"
		}
		resp.Timing.TotalMs = time.Since(totalStart).Milliseconds()

		status := http.StatusOK
		if res.Err != nil && res.Err.Code != models.ErrCodeNoRecords {
			status = mapErrorToStatus(res.Err)
		}
		c.JSON(status, resp)
	}
}

func searchResponse(res *models.JudgeResult) models.SearchResponse {
	resp := models.SearchResponse{
		Success:    res.Err == nil || res.Err.Code == models.ErrCodeNoRecords,
		Query:      res.Query,
		JudgeID:    res.JudgeID,
		JudgeName:  res.JudgeName,
		ProfileURL: res.ProfileURL,
		Records:    res.Records,
	}
	if resp.Records == nil {
		resp.Records = []models.JudgeRecord{}
	}
	if !resp.Success {
		resp.Error = res.Err.ToDetail()
	}
	return resp
}

// ExportJudges returns a handler for GET /api/v1/judges/export.
//
// Query: judge_id (exact) or name (substring). Neither exports the whole
// store.
func ExportJudges(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if st == nil {
			respondError(c, models.NewScrapeError(models.ErrCodeStoreUnavailable, "no record store configured", nil))
			return
		}

		ctx := c.Request.Context()
		var (
			records []models.JudgeRecord
			err     error
			label   string
		)
		switch id, name := c.Query("judge_id"), c.Query("name"); {
		case id != "":
			records, err = st.ByJudge(ctx, id)
			label = id
			if len(records) > 0 && records[0].JudgeName != "" {
				label = records[0].JudgeName
			}
		case name != "":
			records, err = st.SearchByName(ctx, name)
			label = name
		default:
			records, err = st.All(ctx)
			label = "all"
		}
		if err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeStoreUnavailable, "record lookup failed", err))
			return
		}

		writeCSV(c, "judge", label, records, false)
	}
}

// JudgeStatsResponse is the response for GET /api/v1/judges/:id/stats.
type JudgeStatsResponse struct {
	Success bool                `json:"success"`
	Judge   metrics.JudgeStats  `json:"judge"`
	Team    []metrics.TeamStats `json:"team,omitempty"`
}

// JudgeStats returns a handler for GET /api/v1/judges/:id/stats.
//
// The optional "team" query restricts a second breakdown to rounds where
// either entry code starts with it.
func JudgeStats(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if st == nil {
			respondError(c, models.NewScrapeError(models.ErrCodeStoreUnavailable, "no record store configured", nil))
			return
		}

		judgeID := c.Param("id")
		records, err := st.ByJudge(c.Request.Context(), judgeID)
		if err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeStoreUnavailable, "record lookup failed", err))
			return
		}

		stats := metrics.PerJudge(records)
		if len(stats) == 0 {
			respondError(c, models.NewScrapeError(models.ErrCodeJudgeNotFound,
				"no decided rounds stored for judge "+judgeID, nil))
			return
		}

		resp := JudgeStatsResponse{Success: true, Judge: stats[0]}
		if team := c.Query("team"); team != "" {
			resp.Team = metrics.ForTeam(records, team)
		}
		c.JSON(http.StatusOK, resp)
	}
}
