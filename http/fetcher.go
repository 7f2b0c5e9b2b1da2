// Package http provides the net/http implementation of dossier.Fetcher:
// every request carries the contact header, waits on the shared rate
// limiter, and transient failures are retried with exponential backoff.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/dossier"
	"github.com/fwojciec/dossier/ratelimit"
)

// DefaultFetchTimeout is the default timeout for a single request attempt.
const DefaultFetchTimeout = 30 * time.Second

// Ensure Fetcher implements dossier.Fetcher at compile time.
var _ dossier.Fetcher = (*Fetcher)(nil)

// RetryFunc is called before each retry with the attempt about to be made
// (starting at 2), the backoff wait, and the failure being retried.
type RetryFunc func(url string, attempt int, wait time.Duration, err error)

// Fetcher retrieves documents over HTTP.
type Fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	limiter   dossier.RateLimiter
	delays    []time.Duration
	fallback  dossier.Fetcher
	onRetry   RetryFunc
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for each request attempt.
// Defaults to DefaultFetchTimeout (30s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithLimiter sets the limiter every attempt waits on. Fetchers talking to
// the same provider should share one limiter. Defaults to a window at the
// provider ceiling.
func WithLimiter(l dossier.RateLimiter) Option {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// WithRetryDelays sets the backoff waits between attempts. The number of
// delays is the number of retries.
func WithRetryDelays(delays []time.Duration) Option {
	return func(f *Fetcher) {
		f.delays = delays
	}
}

// WithFallback sets a fetcher used when the provider rejects a plain HTTP
// request with 403, e.g. a browser automation fetcher.
func WithFallback(fallback dossier.Fetcher) Option {
	return func(f *Fetcher) {
		f.fallback = fallback
	}
}

// WithRetryHook registers a callback invoked before each retry.
func WithRetryHook(fn RetryFunc) Option {
	return func(f *Fetcher) {
		f.onRetry = fn
	}
}

// DefaultRetryDelays returns the backoff delays for retries: 1s, 2s, 4s, 8s.
func DefaultRetryDelays() []time.Duration {
	return BackoffDelays(time.Second, 4)
}

// BackoffDelays returns n delays starting at base and doubling each time.
func BackoffDelays(base time.Duration, n int) []time.Duration {
	delays := make([]time.Duration, n)
	for i := range delays {
		delays[i] = base << i
	}
	return delays
}

// NewFetcher creates a Fetcher that identifies itself with userAgent.
// Returns EINVALID if userAgent lacks a contact marker, before any request
// can be made.
func NewFetcher(userAgent string, opts ...Option) (*Fetcher, error) {
	if err := dossier.ValidateUserAgent(userAgent); err != nil {
		return nil, err
	}

	f := &Fetcher{
		userAgent: userAgent,
		timeout:   DefaultFetchTimeout,
		delays:    DefaultRetryDelays(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.limiter == nil {
		f.limiter = ratelimit.NewWindow(dossier.MaxRequestsPerSecond)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f, nil
}

// Fetch retrieves the full body of url. A body that fails mid-transfer
// is retried like any other transient failure.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := f.retry(ctx, url, func() error {
		body, err := f.open(ctx, url)
		if err != nil {
			return err
		}
		defer body.Close()

		data, err = io.ReadAll(body)
		if err != nil {
			return dossier.Errorf(dossier.EUNREACHABLE, "reading %s: %v", url, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Stream opens url, retrying throttled and transient failures. The
// returned body must be closed by the caller. Failures while reading the
// body surface from Read and are not retried here.
func (f *Fetcher) Stream(ctx context.Context, url string) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := f.retry(ctx, url, func() error {
		var err error
		body, err = f.open(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// RetryDelays returns the backoff waits between attempts.
func (f *Fetcher) RetryDelays() []time.Duration {
	return f.delays
}

// retry runs attempt until it succeeds, fails permanently, or the delays
// are exhausted.
func (f *Fetcher) retry(ctx context.Context, url string, attempt func() error) error {
	var lastErr error
	for i := 0; i <= len(f.delays); i++ {
		if i > 0 {
			wait := f.delays[i-1]
			if f.onRetry != nil {
				f.onRetry(url, i+1, wait, lastErr)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		err := attempt()
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !dossier.IsRetryable(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// open performs one attempt, handing a 403 to the fallback fetcher.
func (f *Fetcher) open(ctx context.Context, url string) (io.ReadCloser, error) {
	body, status, err := f.do(ctx, url)
	if err != nil && status == http.StatusForbidden && f.fallback != nil {
		return f.fromFallback(ctx, url, err)
	}
	return body, err
}

// do performs a single rate-limited attempt and classifies the outcome.
// The status is zero when no response was received.
func (f *Fetcher) do(ctx context.Context, url string) (io.ReadCloser, int, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, dossier.Errorf(dossier.EINVALID, "invalid URL %q: %v", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, dossier.Errorf(dossier.EUNREACHABLE, "GET %s: %v", url, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.Body, resp.StatusCode, nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
	return nil, resp.StatusCode, StatusError(resp.StatusCode, url)
}

// StatusError classifies a non-2xx response status.
func StatusError(status int, url string) error {
	switch status {
	case http.StatusTooManyRequests:
		return dossier.Errorf(dossier.ERATELIMITED, "HTTP %d for %s", status, url)
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return dossier.Errorf(dossier.EUNREACHABLE, "HTTP %d for %s", status, url)
	default:
		return dossier.Errorf(dossier.EREJECTED, "HTTP %d for %s", status, url)
	}
}

func (f *Fetcher) fromFallback(ctx context.Context, url string, cause error) (io.ReadCloser, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	body, err := f.fallback.Stream(ctx, url)
	if err != nil {
		if dossier.IsRetryable(err) {
			return nil, err
		}
		return nil, dossier.Errorf(dossier.EREJECTED, "%s; fallback failed: %v", dossier.ErrorMessage(cause), err)
	}
	return body, nil
}

// Close releases idle connections and the fallback fetcher, if any.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	if f.fallback != nil {
		if err := f.fallback.Close(); err != nil {
			return fmt.Errorf("closing fallback fetcher: %w", err)
		}
	}
	return nil
}
