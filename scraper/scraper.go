// Package scraper extracts judge records from tabroom through an
// engine.Provider.
//
// Every exported entry point returns a structured result and never
// panics: failures are carried as *models.ScrapeError on the result, and
// partial success is normal.
package scraper

import (
	"context"
	"time"

	"github.com/use-agent/judgetrack/config"
	"github.com/use-agent/judgetrack/engine"
)

// Scraper runs judge searches and tournament runs against one provider.
// It is safe for concurrent use; each call acquires its own handles.
type Scraper struct {
	provider engine.Provider
	site     config.SiteConfig
	cfg      config.ScraperConfig
}

// New returns a Scraper using provider for every page it touches.
func New(provider engine.Provider, site config.SiteConfig, cfg config.ScraperConfig) *Scraper {
	return &Scraper{provider: provider, site: site, cfg: cfg}
}

// Stats reports the provider's utilisation.
func (s *Scraper) Stats() engine.Stats {
	return s.provider.Stats()
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// settle waits d for the page to finish rendering.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
