package dossier

import (
	"context"
	"encoding/json"
	"time"
)

// RunStatus is the terminal status of a build or update invocation.
type RunStatus string

// Run statuses.
const (
	RunRunning        RunStatus = "running"
	RunSuccess        RunStatus = "success"
	RunPartialSuccess RunStatus = "partial_success"
	RunFailed         RunStatus = "failed"
)

// RunRecord describes one build or update invocation.
type RunRecord struct {
	ID        string     `json:"run_id"`
	Ticker    string     `json:"-"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Status    RunStatus  `json:"status"`
	Mode      Mode       `json:"mode"`
	Version   string     `json:"version"`

	// History-only fields, not part of the manifest.
	Config        *ConfigSnapshot `json:"-"`
	ArtifactCount int             `json:"-"`
	ErrorCount    int             `json:"-"`
}

// UnmarshalJSON accepts timestamps with or without a zone offset, as
// written by earlier manifest versions. Zone-less values are read as UTC.
func (r *RunRecord) UnmarshalJSON(data []byte) error {
	type runRecord RunRecord
	var raw struct {
		runRecord
		StartedAt string `json:"started_at"`
		EndedAt   string `json:"ended_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = RunRecord(raw.runRecord)

	var err error
	if r.StartedAt, err = parseTimestamp(raw.StartedAt); err != nil {
		return err
	}
	if raw.EndedAt != "" {
		t, err := parseTimestamp(raw.EndedAt)
		if err != nil {
			return err
		}
		r.EndedAt = &t
	}
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	if t, err2 := time.Parse("2006-01-02T15:04:05.999999999", s); err2 == nil {
		return t, nil
	}
	return time.Time{}, Errorf(EINVALID, "invalid timestamp %q", s)
}

// ConfigSnapshot is the exact configuration a run used.
type ConfigSnapshot struct {
	Years             int            `json:"years"`
	Forms             []string       `json:"forms"`
	MaxFilingsPerForm int            `json:"max_filings_per_form"`
	Mode              Mode           `json:"mode"`
	ForceRebuild      bool           `json:"force_rebuild"`
	NormalizeLevel    NormalizeLevel `json:"normalize_level,omitempty"`
	IncludeXBRL       bool           `json:"include_xbrl"`
	UserAgent         string         `json:"sec_user_agent,omitempty"`
	RPSLimit          int            `json:"sec_rps_limit,omitempty"`
}

// RunService stores the append-only history of runs.
type RunService interface {
	// CreateRun appends a run record. Records are never updated.
	CreateRun(ctx context.Context, run *RunRecord) error

	// FindRuns returns runs matching filter, newest first.
	FindRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error)
}

// RunFilter represents a filter for FindRuns.
type RunFilter struct {
	Ticker *string
	Status *RunStatus

	Offset int
	Limit  int
}
