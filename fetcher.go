package dossier

import (
	"context"
	"io"
)

// Fetcher retrieves documents from the remote source.
// Implementations must present the configured contact header on every
// request and route every attempt through a RateLimiter.
type Fetcher interface {
	// Fetch returns the full response body for url.
	Fetch(ctx context.Context, url string) ([]byte, error)

	// Stream returns the response body for url without buffering it.
	// The caller must close the returned reader.
	Stream(ctx context.Context, url string) (io.ReadCloser, error)

	// Close releases transport resources.
	Close() error
}

// RateLimiter blocks until another request may be issued.
type RateLimiter interface {
	// Wait returns once a request slot is available or ctx is done.
	Wait(ctx context.Context) error
}
