package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/judgetrack/config"
	"github.com/use-agent/judgetrack/models"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const maxBody = 10 << 20

var errForeignElement = errors.New("engine: element belongs to another engine")

// HTTPProvider serves handles backed by a cookie-jar HTTP client and a
// parsed DOM. Pages are not rendered, so it only works for server-side
// markup, which covers the judge, entry and judge-list pages.
type HTTPProvider struct {
	client  *http.Client
	site    config.SiteConfig
	scraper config.ScraperConfig
	limiter *rate.Limiter
	pool    *pool[struct{}]
	session sessionState
}

// NewHTTPProvider builds an HTTP provider with a Chrome TLS fingerprint.
func NewHTTPProvider(browserCfg config.BrowserConfig, site config.SiteConfig, scraperCfg config.ScraperConfig) (*HTTPProvider, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("engine: cookie jar: %w", err)
	}

	client := &http.Client{
		Transport: newChromeTransport(browserCfg.DefaultProxy),
		Jar:       jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	if name, value, ok := splitCookie(site.SessionCookie); ok {
		if base, err := url.Parse(site.BaseURL); err == nil {
			jar.SetCookies(base, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
		}
	}

	p := &HTTPProvider{
		client:  client,
		site:    site,
		scraper: scraperCfg,
		limiter: newLimiter(site.RequestsPerSecond),
		pool: newPool(browserCfg.MaxPages,
			func(context.Context) (struct{}, error) { return struct{}{}, nil },
			func(struct{}) {}),
	}
	slog.Info("http provider ready", "baseURL", site.BaseURL, "maxHandles", p.pool.capacity())
	return p, nil
}

// Acquire checks out a handle and logs in on first use.
func (p *HTTPProvider) Acquire(ctx context.Context) (Handle, error) {
	s, err := p.pool.get(ctx)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeSessionUnavailable, "no session available", err)
	}
	h := &httpHandle{p: p, slot: s}
	if err := p.session.ensure(ctx, h, p.site); err != nil {
		h.fail()
		p.Release(h)
		return nil, err
	}
	return h, nil
}

// Release returns h to the pool. A second release is logged and ignored.
func (p *HTTPProvider) Release(h Handle) {
	hh, ok := h.(*httpHandle)
	if !ok || hh.p != p {
		slog.Warn("release of a handle from another provider ignored")
		return
	}
	if !hh.markReleased() {
		slog.Warn("handle released twice", "id", hh.slot.id)
		return
	}
	hh.doc = nil
	p.pool.put(hh.slot, !hh.failed.Load())
}

// Stats reports pool utilisation.
func (p *HTTPProvider) Stats() Stats {
	return Stats{
		Engine:        "http",
		MaxHandles:    p.pool.capacity(),
		ActiveHandles: p.pool.activeCount(),
		LiveHandles:   p.pool.liveCount(),
		LoggedIn:      p.session.isLoggedIn(),
	}
}

// Close drops idle connections.
func (p *HTTPProvider) Close() error {
	p.pool.close()
	p.client.CloseIdleConnections()
	return nil
}

// httpHandle is one lease of the HTTP provider.
type httpHandle struct {
	lease
	p    *HTTPProvider
	slot *slot[struct{}]

	doc *goquery.Document
	url string
}

func (h *httpHandle) Navigate(ctx context.Context, target string) error {
	if err := h.check(); err != nil {
		return err
	}
	return h.load(ctx, http.MethodGet, target, nil)
}

func (h *httpHandle) load(ctx context.Context, method, target string, form url.Values) error {
	if err := h.p.limiter.Wait(ctx); err != nil {
		return categorizeError(err, "navigation throttled")
	}
	ctx, cancel := context.WithTimeout(ctx, h.p.scraper.NavigationTimeout)
	defer cancel()

	var body io.Reader
	if method == http.MethodPost {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "bad url "+target, err)
	}
	setBrowserHeaders(req, h.p.site.UserAgent)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := h.p.client.Do(req)
	if err != nil {
		h.fail()
		return categorizeError(err, "navigation to "+target+" failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		h.fail()
		return models.NewScrapeError(models.ErrCodeNavigation,
			fmt.Sprintf("HTTP %d for %s", resp.StatusCode, target), nil)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		h.fail()
		return categorizeError(err, "failed to parse "+target)
	}
	h.doc = doc
	h.url = resp.Request.URL.String()
	return nil
}

// WaitFor looks once: a fetched document does not change while waiting.
func (h *httpHandle) WaitFor(ctx context.Context, selector string, _ time.Duration) (Element, bool) {
	els, err := h.QueryAll(ctx, selector)
	if err != nil || len(els) == 0 {
		return nil, false
	}
	return els[0], true
}

func (h *httpHandle) CurrentURL() string { return h.url }

func (h *httpHandle) QueryAll(_ context.Context, selector string) ([]Element, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	if h.doc == nil {
		return nil, nil
	}
	return docElement{sel: h.doc.Selection}.QueryAll(selector)
}

// Click follows links and submits forms through their submit buttons.
func (h *httpHandle) Click(ctx context.Context, el Element) error {
	if err := h.check(); err != nil {
		return err
	}
	de, ok := el.(docElement)
	if !ok {
		return errForeignElement
	}

	if href, ok := de.sel.Attr("href"); ok && isFollowable(href) {
		return h.load(ctx, http.MethodGet, h.resolve(href), nil)
	}
	switch goquery.NodeName(de.sel) {
	case "button", "input":
		if t, _ := de.sel.Attr("type"); t == "" || t == "submit" || t == "image" {
			return h.Submit(ctx, el)
		}
	}
	return fmt.Errorf("engine: <%s> is not clickable without javascript", goquery.NodeName(de.sel))
}

func (h *httpHandle) Fill(_ context.Context, el Element, value string) error {
	if err := h.check(); err != nil {
		return err
	}
	de, ok := el.(docElement)
	if !ok {
		return errForeignElement
	}
	if goquery.NodeName(de.sel) == "textarea" {
		de.sel.SetText(value)
	} else {
		de.sel.SetAttr("value", value)
	}
	return nil
}

// Submit serialises the owning form the way a browser's implicit
// submission does and loads the response.
func (h *httpHandle) Submit(ctx context.Context, el Element) error {
	if err := h.check(); err != nil {
		return err
	}
	de, ok := el.(docElement)
	if !ok {
		return errForeignElement
	}
	form := de.sel.Closest("form")
	if form.Length() == 0 {
		return errors.New("engine: element is not inside a form")
	}

	action := h.url
	if a, ok := form.Attr("action"); ok && strings.TrimSpace(a) != "" {
		action = h.resolve(a)
	}
	method := strings.ToUpper(strings.TrimSpace(form.AttrOr("method", http.MethodGet)))
	values := formValues(form)

	if method == http.MethodPost {
		return h.load(ctx, http.MethodPost, action, values)
	}
	u, err := url.Parse(action)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "bad form action "+action, err)
	}
	u.RawQuery = values.Encode()
	return h.load(ctx, http.MethodGet, u.String(), nil)
}

func (h *httpHandle) resolve(ref string) string {
	base, err := url.Parse(h.url)
	if err != nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

func isFollowable(href string) bool {
	href = strings.TrimSpace(href)
	return href != "" && !strings.HasPrefix(href, "#") &&
		!strings.HasPrefix(strings.ToLower(href), "javascript:")
}

// formValues collects successful controls of form, including the first
// named submit button as the implicit submitter.
func formValues(form *goquery.Selection) url.Values {
	values := url.Values{}
	submitterSeen := false

	form.Find("input[name], select[name], textarea[name], button[name]").Each(func(_ int, s *goquery.Selection) {
		if _, disabled := s.Attr("disabled"); disabled {
			return
		}
		name := s.AttrOr("name", "")
		switch goquery.NodeName(s) {
		case "select":
			opt := s.Find("option[selected]").First()
			if opt.Length() == 0 {
				opt = s.Find("option").First()
			}
			if opt.Length() > 0 {
				values.Add(name, opt.AttrOr("value", strings.TrimSpace(opt.Text())))
			}
		case "textarea":
			values.Add(name, s.Text())
		case "button":
			if t := s.AttrOr("type", "submit"); t == "submit" && !submitterSeen {
				submitterSeen = true
				values.Add(name, s.AttrOr("value", ""))
			}
		default:
			switch strings.ToLower(s.AttrOr("type", "text")) {
			case "checkbox", "radio":
				if _, checked := s.Attr("checked"); checked {
					values.Add(name, s.AttrOr("value", "on"))
				}
			case "submit", "image":
				if !submitterSeen {
					submitterSeen = true
					values.Add(name, s.AttrOr("value", ""))
				}
			case "button", "reset", "file":
			default:
				values.Add(name, s.AttrOr("value", ""))
			}
		}
	})
	return values
}

// docElement is an element of a fetched document.
type docElement struct {
	sel *goquery.Selection
}

func (e docElement) QueryAll(selector string) ([]Element, error) {
	m, err := compileSelector(selector)
	if err != nil {
		return nil, err
	}
	found := e.sel.FindMatcher(m)
	out := make([]Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		out = append(out, docElement{sel: s})
	})
	return out, nil
}

func (e docElement) Closest(selector string) (Element, bool) {
	m, err := compileSelector(selector)
	if err != nil {
		return nil, false
	}
	parent := e.sel.Parent().ClosestMatcher(m)
	if parent.Length() == 0 {
		return nil, false
	}
	return docElement{sel: parent.First()}, true
}

func (e docElement) Attribute(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e docElement) InnerHTML() (string, error) {
	return e.sel.Html()
}

func (e docElement) Text() (string, error) {
	return e.sel.Text(), nil
}

// selectorCache holds compiled selectors; the scraper reuses a small
// fixed set on every page.
var selectorCache sync.Map

func compileSelector(selector string) (cascadia.Selector, error) {
	if v, ok := selectorCache.Load(selector); ok {
		return v.(cascadia.Selector), nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("engine: bad selector %q: %w", selector, err)
	}
	selectorCache.Store(selector, sel)
	return sel, nil
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}
