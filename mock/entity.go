package mock

import (
	"context"

	"github.com/fwojciec/dossier"
)

var _ dossier.EntityResolver = (*EntityResolver)(nil)

// EntityResolver is a mock implementation of dossier.EntityResolver.
type EntityResolver struct {
	ResolveEntityFn func(ctx context.Context, identifier string) (*dossier.Entity, error)
}

func (r *EntityResolver) ResolveEntity(ctx context.Context, identifier string) (*dossier.Entity, error) {
	return r.ResolveEntityFn(ctx, identifier)
}

var _ dossier.EntityCache = (*EntityCache)(nil)

// EntityCache is a mock implementation of dossier.EntityCache.
type EntityCache struct {
	FindEntityFn func(ctx context.Context, identifier string) (*dossier.Entity, error)
	SaveEntityFn func(ctx context.Context, identifier string, entity *dossier.Entity) error
}

func (c *EntityCache) FindEntity(ctx context.Context, identifier string) (*dossier.Entity, error) {
	return c.FindEntityFn(ctx, identifier)
}

func (c *EntityCache) SaveEntity(ctx context.Context, identifier string, entity *dossier.Entity) error {
	return c.SaveEntityFn(ctx, identifier, entity)
}

var _ dossier.CandidateLister = (*CandidateLister)(nil)

// CandidateLister is a mock implementation of dossier.CandidateLister.
type CandidateLister struct {
	ListCandidatesFn func(ctx context.Context, entity *dossier.Entity, filter dossier.CandidateFilter) (*dossier.Listing, error)
}

func (l *CandidateLister) ListCandidates(ctx context.Context, entity *dossier.Entity, filter dossier.CandidateFilter) (*dossier.Listing, error) {
	return l.ListCandidatesFn(ctx, entity, filter)
}
