package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/judgetrack/config"
	"github.com/use-agent/judgetrack/models"
	"github.com/ysmood/gson"
	"golang.org/x/time/rate"
)

// RodProvider drives a headless Chrome. Each handle is a tab; tabs share
// the browser's cookie store, so one login serves all of them.
type RodProvider struct {
	browser    *rod.Browser
	browserCfg config.BrowserConfig
	site       config.SiteConfig
	scraper    config.ScraperConfig
	limiter    *rate.Limiter
	pool       *pool[*rodTab]
	session    sessionState
}

type rodTab struct {
	page   *rod.Page
	router *rod.HijackRouter
}

// NewRodProvider launches a headless browser.
func NewRodProvider(browserCfg config.BrowserConfig, site config.SiteConfig, scraperCfg config.ScraperConfig) (*RodProvider, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	p := &RodProvider{
		browser:    browser,
		browserCfg: browserCfg,
		site:       site,
		scraper:    scraperCfg,
		limiter:    newLimiter(site.RequestsPerSecond),
	}
	if err := p.installCookie(); err != nil {
		slog.Warn("session cookie not installed", "error", err)
	}
	p.pool = newPool(browserCfg.MaxPages, p.newTab, closeTab)
	slog.Info("tab pool created", "maxPages", p.pool.capacity())
	return p, nil
}

func (p *RodProvider) installCookie() error {
	name, value, ok := splitCookie(p.site.SessionCookie)
	if !ok {
		return nil
	}
	return p.browser.SetCookies([]*proto.NetworkCookieParam{{
		Name:  name,
		Value: value,
		URL:   p.site.BaseURL,
		Path:  "/",
	}})
}

func (p *RodProvider) newTab(ctx context.Context) (*rodTab, error) {
	page, err := p.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open tab", err)
	}

	if p.browserCfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed", "error", err)
		}
	}
	ua := p.site.UserAgent
	if ua == "" {
		ua = chromeUA
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua, AcceptLanguage: "en-US,en;q=0.9"}); err != nil {
		slog.Warn("user agent override failed", "error", err)
	}
	headers := map[string]string{"Accept-Language": "en-US,en;q=0.9"}
	if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}).Call(page); err != nil {
		slog.Warn("extra headers failed", "error", err)
	}

	return &rodTab{page: page, router: setupHijack(page, p.browserCfg.BlockedResourceTypes)}, nil
}

func closeTab(t *rodTab) {
	if t.router != nil {
		_ = t.router.Stop()
	}
	_ = t.page.Close()
}

// Acquire checks out a tab and logs in on first use.
func (p *RodProvider) Acquire(ctx context.Context) (Handle, error) {
	s, err := p.pool.get(ctx)
	if err != nil {
		var se *models.ScrapeError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, models.NewScrapeError(models.ErrCodeSessionUnavailable, "no session available", err)
	}
	h := &rodHandle{p: p, slot: s, page: s.value.page}
	if err := p.session.ensure(ctx, h, p.site); err != nil {
		h.fail()
		p.Release(h)
		return nil, err
	}
	return h, nil
}

// Release parks the tab on about:blank and returns it to the pool. A
// second release is logged and ignored.
func (p *RodProvider) Release(h Handle) {
	rh, ok := h.(*rodHandle)
	if !ok || rh.p != p {
		slog.Warn("release of a handle from another provider ignored")
		return
	}
	if !rh.markReleased() {
		slog.Warn("handle released twice", "id", rh.slot.id)
		return
	}
	if err := rh.page.Navigate("about:blank"); err != nil {
		rh.fail()
	}
	p.pool.put(rh.slot, !rh.failed.Load())
}

// Stats reports pool utilisation.
func (p *RodProvider) Stats() Stats {
	return Stats{
		Engine:        "rod",
		MaxHandles:    p.pool.capacity(),
		ActiveHandles: p.pool.activeCount(),
		LiveHandles:   p.pool.liveCount(),
		LoggedIn:      p.session.isLoggedIn(),
	}
}

// Close closes every tab and kills the browser process.
func (p *RodProvider) Close() error {
	slog.Info("provider shutting down: closing tabs")
	p.pool.close()
	slog.Info("provider shutting down: closing browser")
	return p.browser.Close()
}

// rodHandle is one lease of a browser tab.
type rodHandle struct {
	lease
	p    *RodProvider
	slot *slot[*rodTab]
	page *rod.Page
}

func (h *rodHandle) Navigate(ctx context.Context, target string) error {
	if err := h.check(); err != nil {
		return err
	}
	if err := h.p.limiter.Wait(ctx); err != nil {
		return categorizeError(err, "navigation throttled")
	}
	navCtx, cancel := context.WithTimeout(ctx, h.p.scraper.NavigationTimeout)
	defer cancel()

	page := h.page.Context(navCtx)
	if err := page.Navigate(target); err != nil {
		h.fail()
		return categorizeError(err, "navigation to "+target+" failed")
	}
	if err := page.WaitLoad(); err != nil {
		h.fail()
		return categorizeError(err, "page load failed for "+target)
	}
	// Result tables are sometimes patched in after load; a timeout here
	// leaves the page usable.
	_ = page.WaitDOMStable(300*time.Millisecond, 0.1)
	return nil
}

func (h *rodHandle) WaitFor(ctx context.Context, selector string, timeout time.Duration) (Element, bool) {
	if h.check() != nil {
		return nil, false
	}
	if timeout <= 0 {
		els, err := h.page.Context(ctx).Elements(selector)
		if err != nil || len(els) == 0 {
			return nil, false
		}
		return rodElement{el: els.First().Context(ctx)}, true
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	el, err := h.page.Context(waitCtx).Element(selector)
	if err != nil {
		return nil, false
	}
	return rodElement{el: el.Context(ctx)}, true
}

func (h *rodHandle) CurrentURL() string {
	info, err := h.page.Info()
	if err != nil {
		return evalStringOrEmpty(h.page, "() => location.href")
	}
	return info.URL
}

func (h *rodHandle) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	els, err := h.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, categorizeError(err, "query "+selector+" failed")
	}
	return wrapElements(ctx, els), nil
}

func (h *rodHandle) Click(ctx context.Context, el Element) error {
	if err := h.check(); err != nil {
		return err
	}
	re, ok := el.(rodElement)
	if !ok {
		return errForeignElement
	}
	navCtx, cancel := context.WithTimeout(ctx, h.p.scraper.NavigationTimeout)
	defer cancel()

	wait := h.page.Context(navCtx).WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := re.el.Context(navCtx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return categorizeError(err, "click failed")
	}
	wait()
	return nil
}

func (h *rodHandle) Fill(ctx context.Context, el Element, value string) error {
	if err := h.check(); err != nil {
		return err
	}
	re, ok := el.(rodElement)
	if !ok {
		return errForeignElement
	}
	target := re.el.Context(ctx)
	if err := target.SelectAllText(); err != nil {
		return categorizeError(err, "select field text failed")
	}
	if err := target.Input(value); err != nil {
		return categorizeError(err, "type into field failed")
	}
	return nil
}

func (h *rodHandle) Submit(ctx context.Context, el Element) error {
	if err := h.check(); err != nil {
		return err
	}
	re, ok := el.(rodElement)
	if !ok {
		return errForeignElement
	}
	navCtx, cancel := context.WithTimeout(ctx, h.p.scraper.NavigationTimeout)
	defer cancel()

	wait := h.page.Context(navCtx).WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := re.el.Context(navCtx).Type(input.Enter); err != nil {
		return categorizeError(err, "submit failed")
	}
	wait()
	return nil
}

// rodElement is a live node in a tab.
type rodElement struct {
	el *rod.Element
}

func wrapElements(ctx context.Context, els rod.Elements) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, rodElement{el: el.Context(ctx)})
	}
	return out
}

func (e rodElement) QueryAll(selector string) ([]Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapElements(e.el.GetContext(), els), nil
}

func (e rodElement) Closest(selector string) (Element, bool) {
	parents, err := e.el.Parents(selector)
	if err != nil || parents.Empty() {
		return nil, false
	}
	return rodElement{el: parents.First()}, true
}

func (e rodElement) Attribute(name string) (string, bool) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

func (e rodElement) InnerHTML() (string, error) {
	res, err := e.el.Eval("() => this.innerHTML")
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e rodElement) Text() (string, error) {
	return e.el.Text()
}

// evalStringOrEmpty evaluates js and returns its string result, or "".
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to CDP network headers.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
