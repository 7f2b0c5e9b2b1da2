// Package dossier builds per-entity filing dossiers: a reproducible,
// incrementally-updatable local ledger of documents retrieved from a
// rate-limited public filings API, optionally downloaded, content-hashed,
// normalized to text and chunked for retrieval.
//
// This package contains domain types, interfaces and the pure algorithms
// (candidate selection, chunking, quality metrics) following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, http/, htmltomarkdown/).
package dossier

// Version is recorded on every run so manifests can be traced to the
// build that produced them.
const Version = "1.0.0"

// Mode selects how candidates are materialized.
type Mode string

// Materialization modes.
const (
	// ModeLinksOnly records reference URLs without transferring content.
	ModeLinksOnly Mode = "links_only"
	// ModeFull downloads, hashes, normalizes and chunks content.
	ModeFull Mode = "full"
)

// NormalizeLevel selects how much markup cleanup runs before conversion.
type NormalizeLevel string

// Normalization levels.
const (
	NormalizeNone  NormalizeLevel = "none"
	NormalizeLight NormalizeLevel = "light"
	NormalizeDeep  NormalizeLevel = "deep"
)

// FetchMode selects the transport used for content downloads.
type FetchMode string

// Fetch modes.
const (
	FetchHTTP            FetchMode = "http"
	FetchBrowserFallback FetchMode = "browser_fallback"
)
