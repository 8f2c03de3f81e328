package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/use-agent/judgetrack/config"
	"github.com/use-agent/judgetrack/models"
)

var errReleased = errors.New("engine: handle already released")

// Login form and logged-in markers on the target site.
var (
	loginEmailSelectors    = []string{"#login_email", `input[name="username"]`, `input[type="email"]`}
	loginPasswordSelectors = []string{"#login_password", `input[name="password"]`, `input[type="password"]`}
	loggedInSelectors      = []string{
		`a[href*="logout.mhtml"]`,
		"#tabroom_logout",
		`a[href*="/user/home.mhtml"]`,
		`a[href*="/user/login/profile.mhtml"]`,
	}
	loggedInPaths = []string{"/user/home", "/user/chapter"}
)

// lease tracks one acquisition of a pooled session. A lease can be
// released once; afterwards every operation fails with errReleased.
type lease struct {
	released atomic.Bool
	failed   atomic.Bool
}

func (l *lease) check() error {
	if l.released.Load() {
		return errReleased
	}
	return nil
}

// markReleased reports whether this call performed the release.
func (l *lease) markReleased() bool {
	return l.released.CompareAndSwap(false, true)
}

func (l *lease) fail() { l.failed.Store(true) }

// sessionState is the login state shared by every handle of a provider.
// Handles of one provider share cookies, so logging in once suffices.
type sessionState struct {
	mu       sync.Mutex
	loggedIn bool
}

func (s *sessionState) isLoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// ensure logs h in unless a previous handle already did. Providers
// without credentials browse anonymously.
func (s *sessionState) ensure(ctx context.Context, h Handle, site config.SiteConfig) error {
	if !site.HasCredentials() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loggedIn {
		return nil
	}

	// A reused session cookie is installed by the provider; trust it when
	// the site agrees.
	if site.SessionCookie != "" {
		if err := h.Navigate(ctx, site.Resolve("/user/home.mhtml")); err == nil && LoggedIn(ctx, h) {
			s.loggedIn = true
			slog.Info("session cookie accepted")
			return nil
		}
		if site.Email == "" || site.Password == "" {
			return models.NewScrapeError(models.ErrCodeLoginFailed, "session cookie rejected and no credentials configured", nil)
		}
		slog.Warn("session cookie rejected, logging in with credentials")
	}

	attempts := max(site.MaxRetries, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = login(ctx, h, site)
		if lastErr == nil {
			s.loggedIn = true
			slog.Info("login succeeded", "attempt", attempt)
			return nil
		}
		slog.Warn("login attempt failed", "attempt", attempt, "error", lastErr)
		if attempt < attempts {
			if err := sleepCtx(ctx, site.RetryDelay); err != nil {
				return models.NewScrapeError(models.ErrCodeLoginFailed, "login interrupted", err)
			}
		}
	}
	return models.NewScrapeError(models.ErrCodeLoginFailed,
		fmt.Sprintf("login failed after %d attempts", attempts), lastErr)
}

// login submits the site login form once and verifies the result.
func login(ctx context.Context, h Handle, site config.SiteConfig) error {
	if err := h.Navigate(ctx, site.LoginURL()); err != nil {
		return err
	}

	email := firstPresent(ctx, h, loginEmailSelectors, site.LoginTimeout)
	if email == nil {
		return errors.New("login form not found")
	}
	password := firstPresent(ctx, h, loginPasswordSelectors, time.Second)
	if password == nil {
		return errors.New("password field not found")
	}

	if err := h.Fill(ctx, email, site.Email); err != nil {
		return fmt.Errorf("fill email: %w", err)
	}
	if err := h.Fill(ctx, password, site.Password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}
	if err := h.Submit(ctx, password); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}

	if !LoggedIn(ctx, h) {
		return errors.New("login not confirmed: no logged-in marker on landing page")
	}
	return nil
}

// LoggedIn reports whether the handle's current page shows a logged-in
// session.
func LoggedIn(ctx context.Context, h Handle) bool {
	current := h.CurrentURL()
	for _, p := range loggedInPaths {
		if strings.Contains(current, p) {
			return true
		}
	}
	for _, sel := range loggedInSelectors {
		if els, err := h.QueryAll(ctx, sel); err == nil && len(els) > 0 {
			return true
		}
	}
	return false
}

// firstPresent waits for the first selector of sels, giving the first
// one the full timeout and the rest a single look.
func firstPresent(ctx context.Context, h Handle, sels []string, timeout time.Duration) Element {
	for i, sel := range sels {
		wait := timeout
		if i > 0 {
			wait = 0
		}
		if el, ok := h.WaitFor(ctx, sel, wait); ok {
			return el
		}
	}
	return nil
}

// splitCookie parses a "name=value" session cookie.
func splitCookie(raw string) (name, value string, ok bool) {
	name, value, ok = strings.Cut(strings.TrimSpace(raw), "=")
	if !ok || name == "" {
		return "", "", false
	}
	return strings.TrimSpace(name), strings.TrimSpace(value), true
}

// categorizeError wraps raw errors into typed ScrapeErrors so callers
// can tell timeouts from navigation failures.
func categorizeError(err error, msg string) *models.ScrapeError {
	var se *models.ScrapeError
	switch {
	case errors.As(err, &se):
		return se
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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
