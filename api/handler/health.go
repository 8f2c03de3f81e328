package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/judgetrack/cache"
	"github.com/use-agent/judgetrack/models"
	"github.com/use-agent/judgetrack/store"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Reports pool utilisation and degrades status when > 80% of handles are
// active or the store cannot be read.
func Health(sc JudgeSearcher, st *store.Store, cc *cache.Cache, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := sc.Stats()

		status := "healthy"
		if stats.MaxHandles > 0 && stats.ActiveHandles > int(float64(stats.MaxHandles)*0.8) {
			status = "degraded"
		}

		stored := -1
		if st != nil {
			n, err := st.Count(c.Request.Context())
			if err != nil {
				status = "degraded"
			} else {
				stored = n
			}
		}

		cached := 0
		if cc != nil {
			cached = cc.Len()
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:        status,
			Uptime:        time.Since(startTime).Round(time.Second).String(),
			PoolStats:     stats,
			StoredRecords: stored,
			CachedResults: cached,
			Version:       Version,
		})
	}
}
