// Package engine supplies authenticated browsing sessions to the scraper.
//
// A Provider hands out Handles. A Handle is a single logical browser tab
// and must only be driven from one goroutine at a time. Every successful
// Acquire must be matched by exactly one Release; providers ignore (and
// log) a second Release of the same handle.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/use-agent/judgetrack/config"
	"github.com/use-agent/judgetrack/models"
)

// Provider supplies authenticated handles.
type Provider interface {
	// Acquire returns a logged-in handle, blocking until one is free or
	// ctx is done.
	Acquire(ctx context.Context) (Handle, error)

	// Release returns a handle to the provider.
	Release(h Handle)

	// Stats reports current utilisation.
	Stats() Stats

	// Close releases every resource held by the provider.
	Close() error
}

// Handle is one browsing session positioned on some page.
type Handle interface {
	// Navigate loads url and waits for the page to settle.
	Navigate(ctx context.Context, url string) error

	// WaitFor waits up to timeout for selector to match. A timeout is
	// reported as (nil, false), never as an error.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) (Element, bool)

	// CurrentURL is the URL of the loaded page.
	CurrentURL() string

	// QueryAll returns every element matching selector, in document order.
	QueryAll(ctx context.Context, selector string) ([]Element, error)

	// Click activates el and waits for any resulting navigation.
	Click(ctx context.Context, el Element) error

	// Fill replaces the value of an input element.
	Fill(ctx context.Context, el Element, value string) error

	// Submit submits the form owning el the way pressing Enter would.
	Submit(ctx context.Context, el Element) error
}

// Element is a node on the handle's current page.
type Element interface {
	// QueryAll returns descendants matching selector.
	QueryAll(selector string) ([]Element, error)

	// Closest returns the nearest ancestor matching selector.
	Closest(selector string) (Element, bool)

	Attribute(name string) (string, bool)
	InnerHTML() (string, error)
	Text() (string, error)
}

// Stats is a snapshot of provider utilisation.
type Stats = models.PoolStats

// NewProvider builds the provider selected by browserCfg.Engine.
func NewProvider(browserCfg config.BrowserConfig, site config.SiteConfig, scraperCfg config.ScraperConfig) (Provider, error) {
	switch browserCfg.Engine {
	case "", "rod":
		return NewRodProvider(browserCfg, site, scraperCfg)
	case "http":
		return NewHTTPProvider(browserCfg, site, scraperCfg)
	default:
		return nil, fmt.Errorf("engine: unknown engine %q", browserCfg.Engine)
	}
}
