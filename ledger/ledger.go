// Package ledger orchestrates dossier builds: it reconciles listed
// candidates against the manifest, materializes content, normalizes and
// chunks it, and records the run.
package ledger

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/dossier"
)

// Decision is the single place where materialization mode is consumed.
type Decision int

// Reconciler decisions.
const (
	LinkOnly Decision = iota
	Download
	ReuseCached
	Skip
)

func (d Decision) String() string {
	switch d {
	case LinkOnly:
		return "link_only"
	case Download:
		return "download"
	case ReuseCached:
		return "reuse_cached"
	case Skip:
		return "skip"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Reconciliation pairs a candidate with its decision.
type Reconciliation struct {
	Candidate *dossier.Candidate
	Decision  Decision

	// Existing is the current ledger record for the candidate, if any.
	Existing *dossier.Artifact

	// Adopted is set when a file already at the candidate's path is
	// reused without a ledger record holding its hash.
	Adopted bool
}

// ProgressEvent reports progress during a build.
type ProgressEvent struct {
	Type       ProgressType
	Completed  int
	Total      int
	ArtifactID string
	URL        string
	Decision   Decision
	Error      error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressMaterialized
	ProgressFailed
	ProgressNormalized
	ProgressFinished
)

// ProgressFunc is a callback for reporting build progress.
type ProgressFunc func(event ProgressEvent)

// RunError is a per-artifact failure reported in a Result.
type RunError struct {
	ArtifactID string `json:"artifact_id,omitempty"`
	URL        string `json:"url,omitempty"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func newRunError(a *dossier.Artifact, err error) RunError {
	e := RunError{Code: dossier.ErrorCode(err), Message: dossier.ErrorMessage(err)}
	if a != nil {
		e.ArtifactID = a.ID
		e.URL = a.URL
	}
	return e
}

// Summary counts what a run did.
type Summary struct {
	Ticker        string `json:"ticker"`
	CIK           string `json:"cik"`
	CompanyName   string `json:"company_name"`
	Total         int    `json:"total"`
	Downloaded    int    `json:"downloaded"`
	Reused        int    `json:"reused"`
	LinkOnly      int    `json:"link_only"`
	Skipped       int    `json:"skipped"`
	Failed        int    `json:"failed"`
	ParsedSuccess int    `json:"parsed_success"`
	ParsedFailed  int    `json:"parsed_failed"`
	Chunks        int    `json:"chunks"`
	Tokens        int    `json:"tokens,omitempty"`
	LatestFiledAt string `json:"latest_filed_at,omitempty"`
}

// Result is the outcome of a build or update.
type Result struct {
	Status       dossier.RunStatus       `json:"status"`
	RunID        string                  `json:"run_id"`
	DossierPath  string                  `json:"dossier_path,omitempty"`
	ManifestPath string                  `json:"manifest_path,omitempty"`
	Summary      Summary                 `json:"summary"`
	Errors       []RunError              `json:"errors"`
	Quality      *dossier.QualityMetrics `json:"quality_metrics,omitempty"`
}

// chunkID derives a stable chunk identifier from its provenance and text.
func chunkID(c *dossier.Chunk) string {
	h := xxhash.New()
	fmt.Fprintf(h, "%s\x00%d\x00", c.ArtifactID, c.Index)
	h.WriteString(c.Text)
	return fmt.Sprintf("%016x", h.Sum64())
}
