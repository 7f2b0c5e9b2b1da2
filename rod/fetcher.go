// Package rod provides a browser-automation dossier.Fetcher used as a
// fallback for documents the provider refuses to serve to plain HTTP
// clients.
package rod

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fwojciec/dossier"
	dochttp "github.com/fwojciec/dossier/http"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds a single page load.
const DefaultFetchTimeout = 30 * time.Second

// DefaultMaxPages is the number of pages served before the browser is
// relaunched. Chrome memory grows with every page and never returns to its
// baseline.
const DefaultMaxPages = 75

// Ensure Fetcher implements dossier.Fetcher at compile time.
var _ dossier.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered documents with a headless Chrome browser.
// Fetcher is safe for concurrent use.
type Fetcher struct {
	mu        sync.Mutex
	browser   *rod.Browser
	launcher  *launcher.Launcher
	userAgent string
	timeout   time.Duration
	maxPages  int
	pages     int
	closed    bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the timeout for a single page load.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxPages sets how many pages are served before relaunching the browser.
func WithMaxPages(n int) Option {
	return func(f *Fetcher) {
		f.maxPages = n
	}
}

// WithUserAgent overrides the browser's user agent so the contact header
// is presented on browser requests too.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher launches a headless browser. Close must be called when the
// Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:  DefaultFetchTimeout,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.launch(); err != nil {
		return nil, err
	}
	return f, nil
}

// Fetch navigates to url and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := f.acquire()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if f.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
			return nil, fmt.Errorf("setting user agent: %w", err)
		}
	}

	// Chrome renders an error page for 4xx/5xx responses, so the main
	// document's status is checked before the page is read.
	var status int
	waitResponse := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		status = e.Response.Status
		return true
	})
	if err := page.Navigate(url); err != nil {
		return nil, err
	}
	waitResponse()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", url, err)
	}
	if status < 200 || status >= 300 {
		return nil, dochttp.StatusError(status, url)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, err
	}

	html, err := page.HTML()
	if err != nil {
		return nil, err
	}
	return []byte(html), nil
}

// Stream renders url and returns the HTML as a reader.
func (f *Fetcher) Stream(ctx context.Context, url string) (io.ReadCloser, error) {
	data, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	return f.shutdown()
}

// acquire returns the live browser, relaunching it once it has served
// maxPages pages.
func (f *Fetcher) acquire() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, dossier.Errorf(dossier.EINVALID, "fetcher is closed")
	}
	if f.pages >= f.maxPages {
		old, oldLauncher := f.browser, f.launcher
		if err := f.launch(); err == nil {
			_ = old.Close()
			oldLauncher.Kill()
			f.pages = 0
		}
	}
	f.pages++
	return f.browser, nil
}

func (f *Fetcher) launch() error {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("connecting to browser: %w", err)
	}

	f.browser = browser
	f.launcher = l
	return nil
}

func (f *Fetcher) shutdown() error {
	var err error
	if f.browser != nil {
		err = f.browser.Close()
		f.browser = nil
	}
	if f.launcher != nil {
		f.launcher.Kill()
		f.launcher = nil
	}
	return err
}
