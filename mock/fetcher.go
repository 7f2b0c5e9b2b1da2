package mock

import (
	"context"
	"io"

	"github.com/fwojciec/dossier"
)

var _ dossier.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of dossier.Fetcher.
type Fetcher struct {
	FetchFn  func(ctx context.Context, url string) ([]byte, error)
	StreamFn func(ctx context.Context, url string) (io.ReadCloser, error)
	CloseFn  func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Stream(ctx context.Context, url string) (io.ReadCloser, error) {
	return f.StreamFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ dossier.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is a mock implementation of dossier.RateLimiter.
type RateLimiter struct {
	WaitFn func(ctx context.Context) error
}

func (l *RateLimiter) Wait(ctx context.Context) error {
	return l.WaitFn(ctx)
}
