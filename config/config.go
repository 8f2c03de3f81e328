package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Site      SiteConfig
	Scraper   ScraperConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Store     StoreConfig
	Output    OutputConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the session provider.
type BrowserConfig struct {
	// Engine selects the session provider: "rod" (headless Chrome) or
	// "http" (cookie-jar HTTP client, no JavaScript).
	Engine string // default: "rod"

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the number of handles that may be checked out at once.
	MaxPages int // default: 4

	// DefaultProxy is the proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth injects anti-automation-detection scripts into every page.
	Stealth bool // default: true

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// SiteConfig describes the target site and the account used on it.
type SiteConfig struct {
	// BaseURL is the site root.
	BaseURL string // default: "https://www.tabroom.com"

	// SearchPath is the judge paradigm search page.
	SearchPath string // default: "/index/paradigm.mhtml"

	// LoginPath is the login form page.
	LoginPath string // default: "/user/login/login.mhtml"

	Email    string
	Password string

	// SessionCookie is an optional "name=value" cookie reused instead of
	// logging in with Email and Password.
	SessionCookie string

	// LoginTimeout bounds the wait for the login form.
	LoginTimeout time.Duration // default: 10s

	// MaxRetries is the number of login attempts.
	MaxRetries int // default: 3

	// RetryDelay is the pause between login attempts.
	RetryDelay time.Duration // default: 2s

	// RequestsPerSecond throttles page loads per provider. 0 disables it.
	RequestsPerSecond float64 // default: 2

	// UserAgent overrides the browser user agent when set.
	UserAgent string
}

// ScraperConfig controls extraction timing and behaviour.
type ScraperConfig struct {
	// NavigationTimeout is the max time for one page load.
	NavigationTimeout time.Duration // default: 15s

	// SettleInterval is the pause after submitting a search.
	SettleInterval time.Duration // default: 8s

	// NameFieldTimeout bounds the probe for the split first/last fields.
	NameFieldTimeout time.Duration // default: 10s

	// SearchFieldTimeout bounds the wait for the free-text search field.
	SearchFieldTimeout time.Duration // default: 30s

	// ProfileTimeout bounds the wait for a profile heading after a click.
	ProfileTimeout time.Duration // default: 30s

	// RecordTableTimeout bounds the wait for judge record rows.
	RecordTableTimeout time.Duration // default: 45s

	// EntryTimeout bounds the wait for an entry page heading.
	EntryTimeout time.Duration // default: 10s

	// JudgeListTimeout bounds the wait for a tournament judge list.
	JudgeListTimeout time.Duration // default: 10s

	// Correlate enables entry-page lookups for names and points.
	Correlate bool // default: true

	// Workers is the number of handles a tournament run uses.
	Workers int // default: 1

	// SearchTimeout caps one judge search end to end.
	SearchTimeout time.Duration // default: 10m

	// TournamentTimeout caps one tournament run end to end.
	TournamentTimeout time.Duration // default: 6h
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the judge search cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached results.
	MaxEntries int // default: 500

	// TTL is how long entries survive the background sweep.
	TTL time.Duration // default: 6h
}

// StoreConfig controls sqlite persistence.
type StoreConfig struct {
	// Path is the sqlite database file. Empty disables the store.
	Path string
}

// OutputConfig controls CSV artifacts.
type OutputConfig struct {
	// Dir receives one CSV per search or tournament run.
	Dir string // default: "output"

	// BackupDir receives per-judge CSVs during tournament runs.
	// Empty disables them.
	BackupDir string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("JUDGETRACK_HOST", "0.0.0.0"),
			Port: envIntOr("JUDGETRACK_PORT", 8080),
			Mode: envOr("JUDGETRACK_MODE", "release"),
		},
		Browser: BrowserConfig{
			Engine:       envOr("JUDGETRACK_ENGINE", "rod"),
			Headless:     envBoolOr("JUDGETRACK_HEADLESS", true),
			MaxPages:     envIntOr("JUDGETRACK_MAX_PAGES", 4),
			DefaultProxy: os.Getenv("JUDGETRACK_PROXY"),
			NoSandbox:    envBoolOr("JUDGETRACK_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("JUDGETRACK_BROWSER_BIN"),
			Stealth:      envBoolOr("JUDGETRACK_STEALTH", true),
			BlockedResourceTypes: envSliceOr("JUDGETRACK_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Site: SiteConfig{
			BaseURL:           envOr("JUDGETRACK_BASE_URL", "https://www.tabroom.com"),
			SearchPath:        envOr("JUDGETRACK_SEARCH_PATH", "/index/paradigm.mhtml"),
			LoginPath:         envOr("JUDGETRACK_LOGIN_PATH", "/user/login/login.mhtml"),
			Email:             os.Getenv("TABROOM_EMAIL"),
			Password:          os.Getenv("TABROOM_PASSWORD"),
			SessionCookie:     os.Getenv("TABROOM_SESSION_COOKIE"),
			LoginTimeout:      envDurationOr("JUDGETRACK_LOGIN_TIMEOUT", 10*time.Second),
			MaxRetries:        envIntOr("JUDGETRACK_LOGIN_RETRIES", 3),
			RetryDelay:        envDurationOr("JUDGETRACK_LOGIN_RETRY_DELAY", 2*time.Second),
			RequestsPerSecond: envFloatOr("JUDGETRACK_SITE_RPS", 2.0),
			UserAgent:         os.Getenv("JUDGETRACK_USER_AGENT"),
		},
		Scraper: ScraperConfig{
			NavigationTimeout:  envDurationOr("JUDGETRACK_NAV_TIMEOUT", 15*time.Second),
			SettleInterval:     envDurationOr("JUDGETRACK_SETTLE", 8*time.Second),
			NameFieldTimeout:   envDurationOr("JUDGETRACK_NAME_FIELD_TIMEOUT", 10*time.Second),
			SearchFieldTimeout: envDurationOr("JUDGETRACK_SEARCH_FIELD_TIMEOUT", 30*time.Second),
			ProfileTimeout:     envDurationOr("JUDGETRACK_PROFILE_TIMEOUT", 30*time.Second),
			RecordTableTimeout: envDurationOr("JUDGETRACK_RECORD_TIMEOUT", 45*time.Second),
			EntryTimeout:       envDurationOr("JUDGETRACK_ENTRY_TIMEOUT", 10*time.Second),
			JudgeListTimeout:   envDurationOr("JUDGETRACK_JUDGE_LIST_TIMEOUT", 10*time.Second),
			Correlate:          envBoolOr("JUDGETRACK_CORRELATE", true),
			Workers:            envIntOr("JUDGETRACK_WORKERS", 1),
			SearchTimeout:      envDurationOr("JUDGETRACK_SEARCH_TIMEOUT", 10*time.Minute),
			TournamentTimeout:  envDurationOr("JUDGETRACK_TOURNAMENT_TIMEOUT", 6*time.Hour),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("JUDGETRACK_AUTH_ENABLED", true),
			APIKeys: envSliceOr("JUDGETRACK_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("JUDGETRACK_RATE_RPS", 1.0),
			Burst:             envIntOr("JUDGETRACK_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("JUDGETRACK_CACHE_MAX_ENTRIES", 500),
			TTL:        envDurationOr("JUDGETRACK_CACHE_TTL", 6*time.Hour),
		},
		Store: StoreConfig{
			Path: os.Getenv("JUDGETRACK_DB"),
		},
		Output: OutputConfig{
			Dir:       envOr("JUDGETRACK_OUTPUT_DIR", "output"),
			BackupDir: os.Getenv("JUDGETRACK_BACKUP_DIR"),
		},
		Log: LogConfig{
			Level:  envOr("JUDGETRACK_LOG_LEVEL", "info"),
			Format: envOr("JUDGETRACK_LOG_FORMAT", "json"),
		},
	}
}

// SearchURL is the absolute judge search page URL.
func (s SiteConfig) SearchURL() string {
	return s.Resolve(s.SearchPath)
}

// LoginURL is the absolute login page URL.
func (s SiteConfig) LoginURL() string {
	return s.Resolve(s.LoginPath)
}

// HasCredentials reports whether the provider should authenticate.
func (s SiteConfig) HasCredentials() bool {
	return (s.Email != "" && s.Password != "") || s.SessionCookie != ""
}

// Resolve turns a site-relative reference into an absolute URL.
// Absolute references are returned unchanged.
func (s SiteConfig) Resolve(ref string) string {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
