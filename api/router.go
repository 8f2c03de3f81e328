package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/judgetrack/api/handler"
	"github.com/use-agent/judgetrack/api/middleware"
	"github.com/use-agent/judgetrack/cache"
	"github.com/use-agent/judgetrack/config"
	"github.com/use-agent/judgetrack/scraper"
	"github.com/use-agent/judgetrack/store"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
// st and cc may be nil; store-backed routes then answer 503.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(sc *scraper.Scraper, st *store.Store, cc *cache.Cache, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(sc, st, cc, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Judges
	protected.POST("/judges/search", handler.SearchJudge(sc, cc, st))
	protected.GET("/judges/export", handler.ExportJudges(st))
	protected.GET("/judges/:id/stats", handler.JudgeStats(st))

	// Tournaments
	protected.POST("/tournaments/scrape", handler.PostTournament(sc, st, cfg.Output))
	protected.GET("/tournaments/:id", handler.GetTournament())
	protected.GET("/tournaments/:id/export", handler.ExportTournament())

	return r
}
