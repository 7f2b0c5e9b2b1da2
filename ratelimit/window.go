// Package ratelimit provides the request limiter shared by every fetcher
// that talks to the same provider.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/dossier"
	"golang.org/x/time/rate"
)

var _ dossier.RateLimiter = (*Window)(nil)

// DefaultWindow is the span over which the request limit is counted.
const DefaultWindow = time.Second

// Window is a sliding-window limiter: at most limit requests are admitted
// in any window-long span. The limit is clamped to
// dossier.MaxRequestsPerSecond so a misconfiguration can never exceed the
// provider's ceiling.
//
// Window is safe for concurrent use.
type Window struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	times  []time.Time
	paced  bool
	pacer  *rate.Limiter
}

// Option configures a Window.
type Option func(*Window)

// WithWindow overrides the window span. Useful for tests.
func WithWindow(d time.Duration) Option {
	return func(w *Window) {
		w.window = d
	}
}

// WithPacing spreads requests evenly across the window with a token bucket
// of burst 1 in front of the sliding window.
func WithPacing() Option {
	return func(w *Window) {
		w.paced = true
	}
}

// NewWindow creates a Window admitting rps requests per window.
// Values outside [1, dossier.MaxRequestsPerSecond] are clamped.
func NewWindow(rps int, opts ...Option) *Window {
	w := &Window{
		limit:  min(max(rps, 1), dossier.MaxRequestsPerSecond),
		window: DefaultWindow,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.times = make([]time.Time, 0, w.limit)
	if w.paced {
		w.pacer = rate.NewLimiter(rate.Every(w.window/time.Duration(w.limit)), 1)
	}
	return w
}

// Limit returns the effective number of requests per window.
func (w *Window) Limit() int {
	return w.limit
}

// Wait blocks until the window has room for another request, then records
// it. Returns the context error if ctx is done first.
func (w *Window) Wait(ctx context.Context) error {
	if w.pacer != nil {
		if err := w.pacer.Wait(ctx); err != nil {
			return err
		}
	}

	for {
		delay := w.reserve(time.Now())
		if delay <= 0 {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve records a request at now if the window has room, otherwise it
// returns how long until the oldest request ages out.
func (w *Window) reserve(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-w.window)
	expired := 0
	for expired < len(w.times) && !w.times[expired].After(cutoff) {
		expired++
	}
	w.times = append(w.times[:0], w.times[expired:]...)

	if len(w.times) < w.limit {
		w.times = append(w.times, now)
		return 0
	}
	return w.times[0].Add(w.window).Sub(now)
}
