package sqlite

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/fwojciec/dossier"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ dossier.RunService = (*RunService)(nil)

// RunService implements dossier.RunService using SQLite.
type RunService struct {
	db *DB
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db}
}

// CreateRun appends a run to the history, assigning an ID when empty.
func (s *RunService) CreateRun(ctx context.Context, run *dossier.RunRecord) error {
	if run.Ticker == "" {
		return dossier.Errorf(dossier.EINVALID, "run ticker required")
	}
	if run.StartedAt.IsZero() {
		return dossier.Errorf(dossier.EINVALID, "run start time required")
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	var config string
	if run.Config != nil {
		data, err := json.Marshal(run.Config)
		if err != nil {
			return err
		}
		config = string(data)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, ticker, started_at, ended_at, status, mode, version, config, artifact_count, error_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Ticker, formatTime(&run.StartedAt), formatTime(run.EndedAt), string(run.Status),
		string(run.Mode), run.Version, config, run.ArtifactCount, run.ErrorCount)

	return err
}

// FindRuns retrieves runs matching the filter, newest first.
func (s *RunService) FindRuns(ctx context.Context, filter dossier.RunFilter) ([]*dossier.RunRecord, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT id, ticker, started_at, ended_at, status, mode, version, config, artifact_count, error_count
		FROM runs WHERE 1=1`)

	if filter.Ticker != nil {
		query.WriteString(" AND ticker = ?")
		args = append(args, dossier.NormalizeIdentifier(*filter.Ticker))
	}
	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, string(*filter.Status))
	}

	query.WriteString(" ORDER BY started_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*dossier.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func scanRun(row rowScanner) (*dossier.RunRecord, error) {
	var run dossier.RunRecord
	var startedAt, endedAt, status, mode, config string

	if err := row.Scan(&run.ID, &run.Ticker, &startedAt, &endedAt, &status, &mode, &run.Version,
		&config, &run.ArtifactCount, &run.ErrorCount); err != nil {
		return nil, err
	}

	var err error
	run.StartedAt, err = parseTime(startedAt, "started_at")
	if err != nil {
		return nil, err
	}
	if endedAt != "" {
		var t time.Time
		if t, err = parseTime(endedAt, "ended_at"); err != nil {
			return nil, err
		}
		run.EndedAt = &t
	}
	run.Status = dossier.RunStatus(status)
	run.Mode = dossier.Mode(mode)

	if config != "" {
		run.Config = &dossier.ConfigSnapshot{}
		if err := json.Unmarshal([]byte(config), run.Config); err != nil {
			return nil, dossier.Errorf(dossier.EINTERNAL, "decoding config of run %s: %v", run.ID, err)
		}
	}
	return &run, nil
}
