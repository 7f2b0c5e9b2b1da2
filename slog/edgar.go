package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/dossier"
)

// Ensure LoggingResolver implements dossier.EntityResolver.
var _ dossier.EntityResolver = (*LoggingResolver)(nil)

// LoggingResolver wraps an EntityResolver with logging.
type LoggingResolver struct {
	next   dossier.EntityResolver
	logger *slog.Logger
}

// NewLoggingResolver creates a new LoggingResolver.
func NewLoggingResolver(next dossier.EntityResolver, logger *slog.Logger) *LoggingResolver {
	return &LoggingResolver{next: next, logger: logger}
}

// ResolveEntity delegates to the wrapped resolver and logs the lookup.
func (r *LoggingResolver) ResolveEntity(ctx context.Context, identifier string) (entity *dossier.Entity, err error) {
	defer func(begin time.Time) {
		var cik string
		if entity != nil {
			cik = entity.CIK
		}
		r.logger.Info("entity resolution",
			"identifier", identifier,
			"cik", cik,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.ResolveEntity(ctx, identifier)
}

// Ensure LoggingLister implements dossier.CandidateLister.
var _ dossier.CandidateLister = (*LoggingLister)(nil)

// LoggingLister wraps a CandidateLister with logging.
type LoggingLister struct {
	next   dossier.CandidateLister
	logger *slog.Logger
}

// NewLoggingLister creates a new LoggingLister.
func NewLoggingLister(next dossier.CandidateLister, logger *slog.Logger) *LoggingLister {
	return &LoggingLister{next: next, logger: logger}
}

// ListCandidates delegates to the wrapped lister and logs the listing.
func (l *LoggingLister) ListCandidates(ctx context.Context, entity *dossier.Entity, filter dossier.CandidateFilter) (listing *dossier.Listing, err error) {
	defer func(begin time.Time) {
		var count int
		if listing != nil {
			count = len(listing.Candidates)
		}
		l.logger.Info("candidate listing",
			"cik", entity.CIK,
			"forms", dossier.FormStrings(filter.Forms),
			"count", count,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.ListCandidates(ctx, entity, filter)
}
