package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/judgetrack/engine"
	"github.com/use-agent/judgetrack/export"
	"github.com/use-agent/judgetrack/models"
	"github.com/use-agent/judgetrack/scraper"
)

// JudgeSearcher runs judge searches. *scraper.Scraper implements it.
type JudgeSearcher interface {
	SearchJudge(ctx context.Context, name string) *models.JudgeResult
	Stats() engine.Stats
}

// TournamentScraper runs tournament runs. *scraper.Scraper implements it.
type TournamentScraper interface {
	ScrapeTournament(ctx context.Context, listURL string, opts scraper.TournamentOptions) *models.TournamentResult
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	scrapeErr := models.AsScrapeError(err)
	c.JSON(mapErrorToStatus(scrapeErr), models.ErrorResponse{Error: scrapeErr.ToDetail()})
}

func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.NewErrorResponse(code, message))
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeSearchFormMissing:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeJudgeNotFound, models.ErrCodeNoRecords:
		return http.StatusNotFound // 404
	case models.ErrCodeSessionUnavailable, models.ErrCodeLoginFailed,
		models.ErrCodeBrowserCrash, models.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}

// writeCSV streams records as a CSV attachment named after prefix and name.
func writeCSV(c *gin.Context, prefix, name string, records []models.JudgeRecord, withTournament bool) {
	filename := export.Filename(prefix, name, time.Now())
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, records, withTournament); err != nil {
		// Headers are already out; all we can do is log.
		slog.Error("csv export failed", "file", filename, "error", err)
	}
}
