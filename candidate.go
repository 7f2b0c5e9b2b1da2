package dossier

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

// DateLayout is the layout of filing and period dates.
const DateLayout = "2006-01-02"

// SourceSEC identifies documents retrieved from the SEC EDGAR system.
const SourceSEC = "sec"

// Kind distinguishes filing documents from structured data sets.
type Kind string

// Candidate kinds.
const (
	KindFiling Kind = "filing"
	KindXBRL   Kind = "xbrl"
)

// Candidate is a document discovered by listing that has not yet been
// reconciled against the ledger.
type Candidate struct {
	Source          string `json:"source"`
	Kind            Kind   `json:"type"`
	CIK             string `json:"cik"`
	Form            Form   `json:"form"`
	Period          string `json:"period,omitempty"`
	FiledAt         string `json:"filed_at,omitempty"`
	AccessionNumber string `json:"accession_number,omitempty"`
	PrimaryDocument string `json:"primary_document,omitempty"`
	Description     string `json:"description,omitempty"`
	URL             string `json:"url"`
	ViewerURL       string `json:"viewer_url,omitempty"`
}

// ID returns the stable artifact identifier for the candidate. The same
// remote document always yields the same ID.
func (c *Candidate) ID() string {
	if c.Kind == KindXBRL {
		return fmt.Sprintf("%s_xbrl_%s_companyfacts", c.Source, c.CIK)
	}
	return fmt.Sprintf("%s_filing_%s_%s", c.Source, c.AccessionNumber, c.Form.Slug())
}

// Directory returns the category path segment under the raw and
// normalized trees.
func (c *Candidate) Directory() string {
	if c.Kind == KindXBRL {
		return "structured_data/xbrl"
	}
	return c.Form.Directory()
}

// RawPath returns the deterministic slash-separated path, relative to the
// entity's dossier directory, where the candidate's content is stored.
func (c *Candidate) RawPath() string {
	if c.Kind == KindXBRL {
		return path.Join("raw", c.Source, c.Directory(), c.CIK+"_companyfacts.json")
	}
	ext := strings.ToLower(path.Ext(c.PrimaryDocument))
	if ext == "" {
		ext = ".html"
	}
	name := fmt.Sprintf("%s_%s_%s%s", c.FiledAt, c.Form.Slug(), strings.ReplaceAll(c.AccessionNumber, "-", ""), ext)
	return path.Join("raw", c.Source, c.Directory(), name)
}

// ContentType returns the media type implied by the stored file name.
func (c *Candidate) ContentType() string {
	return ContentTypeFor(c.RawPath())
}

// ContentTypeFor maps a file name extension to a media type.
func ContentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".htm", ".html":
		return "text/html"
	case ".xhtml":
		return "application/xhtml+xml"
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".xml":
		return "application/xml"
	case ".json":
		return "application/json"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// CandidateFilter gates which listed documents become candidates.
type CandidateFilter struct {
	// Forms restricts candidates to these categories. Empty means all.
	Forms []Form

	// Since excludes documents filed before this date.
	Since time.Time

	// MaxPerForm caps candidates per form. Zero means unlimited.
	MaxPerForm int

	// IncludeXBRL appends the entity's structured company facts.
	IncludeXBRL bool
}

// Listing is the result of querying the remote directory for an entity.
type Listing struct {
	Name       string
	Exchanges  []string
	Candidates []*Candidate
}

// CandidateLister queries the remote source for an entity's documents.
type CandidateLister interface {
	// ListCandidates returns candidates in the remote source's
	// chronological order, filtered and capped per form.
	ListCandidates(ctx context.Context, entity *Entity, filter CandidateFilter) (*Listing, error)
}

// SelectCandidates applies filter to items in a single pass. Each form has
// its own counter, so one form reaching the cap never stops the scan for
// the others. Duplicate identities are dropped and input order is kept.
func SelectCandidates(items []*Candidate, filter CandidateFilter) []*Candidate {
	wanted := make(map[Form]bool, len(filter.Forms))
	for _, f := range filter.Forms {
		wanted[f] = true
	}

	var since string
	if !filter.Since.IsZero() {
		since = filter.Since.Format(DateLayout)
	}

	counts := make(map[Form]int)
	seen := make(map[string]bool)
	var selected []*Candidate
	for _, c := range items {
		if len(wanted) > 0 && !wanted[c.Form] {
			continue
		}
		if since != "" && c.FiledAt < since {
			continue
		}
		if filter.MaxPerForm > 0 && counts[c.Form] >= filter.MaxPerForm {
			continue
		}
		id := c.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		counts[c.Form]++
		selected = append(selected, c)
	}
	return selected
}

// SinceYears returns the start of a window covering the given number of
// years before now, counted as 365-day years.
func SinceYears(now time.Time, years int) time.Time {
	return now.AddDate(0, 0, -365*years)
}
