package ledger

import (
	"context"
	"fmt"

	"github.com/fwojciec/dossier"
)

// Ensure CachingResolver implements dossier.EntityResolver at compile time.
var _ dossier.EntityResolver = (*CachingResolver)(nil)

// CachingResolver resolves identifiers cache-first. Cached mappings never
// expire; RefreshEntity replaces one.
type CachingResolver struct {
	Remote dossier.EntityResolver
	Cache  dossier.EntityCache
}

// ResolveEntity returns the cached entity, resolving and caching it on a
// miss.
func (r *CachingResolver) ResolveEntity(ctx context.Context, identifier string) (*dossier.Entity, error) {
	e, err := r.Cache.FindEntity(ctx, identifier)
	if err == nil {
		return e, nil
	}
	if dossier.ErrorCode(err) != dossier.ENOTFOUND {
		return nil, fmt.Errorf("entity cache: %w", err)
	}
	return r.RefreshEntity(ctx, identifier)
}

// RefreshEntity bypasses the cache and overwrites it with the remote
// answer.
func (r *CachingResolver) RefreshEntity(ctx context.Context, identifier string) (*dossier.Entity, error) {
	e, err := r.Remote.ResolveEntity(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if err := r.Cache.SaveEntity(ctx, identifier, e); err != nil {
		return nil, fmt.Errorf("entity cache: %w", err)
	}
	return e, nil
}
