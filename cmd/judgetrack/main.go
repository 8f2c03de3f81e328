package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/judgetrack/api"
	"github.com/use-agent/judgetrack/cache"
	"github.com/use-agent/judgetrack/config"
	"github.com/use-agent/judgetrack/engine"
	"github.com/use-agent/judgetrack/scraper"
	"github.com/use-agent/judgetrack/store"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg, err := config.LoadFile(envOr("JUDGETRACK_CONFIG", "judgetrack.json5"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("judgetrack starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"engine", cfg.Browser.Engine,
		"maxPages", cfg.Browser.MaxPages,
	)
	if !cfg.Site.HasCredentials() {
		slog.Warn("no tabroom credentials configured; searches will fail at login")
	}

	// ── 3. Initialise session provider (launches browser) ───────────
	provider, err := engine.NewProvider(cfg.Browser, cfg.Site, cfg.Scraper)
	if err != nil {
		slog.Error("failed to initialise session provider", "error", err)
		os.Exit(1)
	}
	defer provider.Close()

	sc := scraper.New(provider, cfg.Site, cfg.Scraper)

	// ── 4. Initialise record store ──────────────────────────────────
	var st *store.Store
	if cfg.Store.Path != "" {
		st, err = store.Open(cfg.Store.Path)
		if err != nil {
			slog.Error("failed to open record store", "path", cfg.Store.Path, "error", err)
			os.Exit(1)
		}
		defer st.Close()
		slog.Info("record store opened", "path", cfg.Store.Path)
	}

	// ── 4b. Initialise cache ────────────────────────────────────────
	cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	defer cc.Close()

	// ── 5. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(sc, st, cc, cfg, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight searches 30 seconds; a search can sit in the settle wait.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// Deferred closes drain the handle pool, kill Chrome and close the store.
	slog.Info("judgetrack stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
