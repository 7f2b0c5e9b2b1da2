package dossier

import (
	"path"
	"time"
)

// State is an artifact's materialization state.
type State string

// Materialization states.
const (
	StateUnmaterialized State = "unmaterialized"
	StateLinkOnly       State = "link_only"
	StateCached         State = "cached"
	StateDownloading    State = "downloading"
	StateDownloaded     State = "downloaded"
)

// ParseStatus is an artifact's processing state.
type ParseStatus string

// Processing states.
const (
	ParsePending   ParseStatus = "pending"
	ParseSuccess   ParseStatus = "success"
	ParseFailed    ParseStatus = "failed"
	ParseSkipped   ParseStatus = "skipped"
	ParseLinksOnly ParseStatus = "links_only"
)

// Versioning tracks an artifact's place in the history of one logical
// document. A changed content hash produces a new version; the earlier
// record is marked superseded and keeps its original hash.
type Versioning struct {
	Version      int  `json:"version"`
	FirstSeen    bool `json:"first_seen"`
	Supersedes   int  `json:"supersedes,omitempty"`
	SupersededBy int  `json:"superseded_by,omitempty"`
	Superseded   bool `json:"superseded"`
}

// Artifact is one tracked remote document and its local materialization.
type Artifact struct {
	ID              string `json:"id"`
	Source          string `json:"source"`
	Type            Kind   `json:"type"`
	Form            Form   `json:"form"`
	Period          string `json:"period,omitempty"`
	FiledAt         string `json:"filed_at,omitempty"`
	AccessionNumber string `json:"accession_number,omitempty"`
	PrimaryDocument string `json:"primary_document,omitempty"`
	Description     string `json:"description,omitempty"`
	Title           string `json:"title,omitempty"`

	URL       string `json:"url"`
	ViewerURL string `json:"viewer_url,omitempty"`

	// LocalPath is slash-separated and relative to the entity's dossier
	// directory. Empty for link-only artifacts.
	LocalPath    string     `json:"local_path"`
	ContentType  string     `json:"content_type,omitempty"`
	SizeBytes    int64      `json:"size_bytes"`
	SHA256       string     `json:"sha256,omitempty"`
	DownloadedAt *time.Time `json:"downloaded_at,omitempty"`

	State       State       `json:"state"`
	ParseStatus ParseStatus `json:"parse_status"`
	ParseError  string      `json:"parse_error,omitempty"`
	Error       string      `json:"error,omitempty"`
	ErrorCode   string      `json:"error_code,omitempty"`

	NormalizedPath string `json:"normalized_path,omitempty"`
	ChunkCount     int    `json:"chunk_count,omitempty"`

	Versioning Versioning `json:"versioning"`
}

// NewArtifact returns an unmaterialized first-version artifact carrying the
// candidate's provenance.
func NewArtifact(c *Candidate) *Artifact {
	return &Artifact{
		ID:              c.ID(),
		Source:          c.Source,
		Type:            c.Kind,
		Form:            c.Form,
		Period:          c.Period,
		FiledAt:         c.FiledAt,
		AccessionNumber: c.AccessionNumber,
		PrimaryDocument: c.PrimaryDocument,
		Description:     c.Description,
		URL:             c.URL,
		ViewerURL:       c.ViewerURL,
		State:           StateUnmaterialized,
		ParseStatus:     ParsePending,
		Versioning:      Versioning{Version: 1, FirstSeen: true},
	}
}

// HasContent reports whether bytes for this artifact were stored and hashed.
func (a *Artifact) HasContent() bool {
	return a.SHA256 != "" && a.LocalPath != ""
}

// IsCurrent reports whether the artifact is the live version of its document.
func (a *Artifact) IsCurrent() bool {
	return !a.Versioning.Superseded
}

// Failed reports whether materialization or normalization failed.
func (a *Artifact) Failed() bool {
	return a.ParseStatus == ParseFailed
}

// Clone returns a copy that can be mutated without affecting a.
func (a *Artifact) Clone() *Artifact {
	c := *a
	if a.DownloadedAt != nil {
		t := *a.DownloadedAt
		c.DownloadedAt = &t
	}
	return &c
}

// TextPath returns where the artifact's normalized text is stored,
// relative to the entity's dossier directory.
func (a *Artifact) TextPath() string {
	c := Candidate{Kind: a.Type, Form: a.Form}
	return path.Join("normalized", c.Directory(), a.ID+".md")
}
