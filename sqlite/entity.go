package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fwojciec/dossier"
)

// Compile-time interface verification.
var _ dossier.EntityCache = (*EntityCache)(nil)

// EntityCache implements dossier.EntityCache using SQLite. Entries never
// expire; callers bypass the cache to refresh a mapping.
type EntityCache struct {
	db *DB
}

// NewEntityCache creates a new EntityCache.
func NewEntityCache(db *DB) *EntityCache {
	return &EntityCache{db: db}
}

// FindEntity returns the cached entity for identifier.
func (c *EntityCache) FindEntity(ctx context.Context, identifier string) (*dossier.Entity, error) {
	var e dossier.Entity
	err := c.db.QueryRowContext(ctx, `
		SELECT ticker, name, cik, exchange
		FROM entities
		WHERE identifier = ?
	`, dossier.NormalizeIdentifier(identifier)).Scan(&e.Ticker, &e.Name, &e.CIK, &e.Exchange)

	if err == sql.ErrNoRows {
		return nil, dossier.Errorf(dossier.ENOTFOUND, "entity %q not cached", identifier)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// SaveEntity inserts or replaces the mapping for identifier.
func (c *EntityCache) SaveEntity(ctx context.Context, identifier string, entity *dossier.Entity) error {
	if err := entity.Validate(); err != nil {
		return err
	}

	now := time.Now()
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO entities (identifier, ticker, name, cik, exchange, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET
			ticker = excluded.ticker,
			name = excluded.name,
			cik = excluded.cik,
			exchange = excluded.exchange,
			resolved_at = excluded.resolved_at
	`, dossier.NormalizeIdentifier(identifier), entity.Ticker, entity.Name, entity.CIK, entity.Exchange,
		formatTime(&now))

	return err
}
