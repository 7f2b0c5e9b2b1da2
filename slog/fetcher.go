// Package slog decorates dossier services with structured logging.
package slog

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/dossier"
)

// Ensure LoggingFetcher implements dossier.Fetcher.
var _ dossier.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with request logging.
type LoggingFetcher struct {
	next   dossier.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next dossier.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the request.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (data []byte, err error) {
	defer func(begin time.Time) {
		f.logger.Debug("fetch",
			"url", url,
			"bytes", len(data),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Stream delegates to the wrapped fetcher. The transfer is logged when the
// returned body is closed, once its size is known.
func (f *LoggingFetcher) Stream(ctx context.Context, url string) (io.ReadCloser, error) {
	begin := time.Now()
	body, err := f.next.Stream(ctx, url)
	if err != nil {
		f.logger.Debug("download",
			"url", url,
			"duration", time.Since(begin),
			"err", err,
		)
		return nil, err
	}
	return &loggedBody{ReadCloser: body, logger: f.logger, url: url, begin: begin}, nil
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}

type loggedBody struct {
	io.ReadCloser
	logger *slog.Logger
	url    string
	begin  time.Time
	n      int64
	err    error
}

func (b *loggedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	b.n += int64(n)
	if err != nil && err != io.EOF {
		b.err = err
	}
	return n, err
}

func (b *loggedBody) Close() error {
	err := b.ReadCloser.Close()
	b.logger.Debug("download",
		"url", b.url,
		"bytes", b.n,
		"duration", time.Since(b.begin),
		"err", b.err,
	)
	return err
}
