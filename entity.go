package dossier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Entity is a filer resolved from a human identifier such as a ticker.
type Entity struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"company_name"`
	CIK      string `json:"cik"`
	Exchange string `json:"exchange,omitempty"`
}

// Validate returns an error if the entity is missing its stable identifier.
func (e *Entity) Validate() error {
	if e.Ticker == "" {
		return Errorf(EINVALID, "entity ticker required")
	}
	if len(e.CIK) != 10 {
		return Errorf(EINVALID, "entity CIK must be 10 digits, got %q", e.CIK)
	}
	return nil
}

// CIKNumber returns the CIK without zero padding, as used in archive paths.
func (e *Entity) CIKNumber() string {
	return strings.TrimLeft(e.CIK, "0")
}

// PadCIK zero-pads a numeric registry key to 10 digits.
func PadCIK(cik string) (string, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(cik), 10, 64)
	if err != nil {
		return "", Errorf(EINVALID, "invalid CIK %q", cik)
	}
	return fmt.Sprintf("%010d", n), nil
}

// NormalizeIdentifier canonicalizes a human identifier for lookup and
// storage keys.
func NormalizeIdentifier(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// EntityResolver maps a human identifier to an Entity.
type EntityResolver interface {
	// ResolveEntity returns the entity for identifier.
	// Returns ENOTFOUND if the identifier is unknown.
	ResolveEntity(ctx context.Context, identifier string) (*Entity, error)
}

// EntityCache persists identifier mappings across runs.
// Entries never expire.
type EntityCache interface {
	// FindEntity returns the cached entity. Returns ENOTFOUND on a miss.
	FindEntity(ctx context.Context, identifier string) (*Entity, error)

	// SaveEntity inserts or replaces the mapping for identifier.
	SaveEntity(ctx context.Context, identifier string, entity *Entity) error
}
