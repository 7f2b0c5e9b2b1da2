package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/dossier"
	"github.com/fwojciec/dossier/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRun(t *testing.T, svc *sqlite.RunService, ticker string, started time.Time, status dossier.RunStatus) *dossier.RunRecord {
	t.Helper()

	ended := started.Add(time.Minute)
	run := &dossier.RunRecord{
		Ticker:        ticker,
		StartedAt:     started,
		EndedAt:       &ended,
		Status:        status,
		Mode:          dossier.ModeFull,
		Version:       dossier.Version,
		ArtifactCount: 5,
		ErrorCount:    1,
		Config: &dossier.ConfigSnapshot{
			Years:             3,
			Forms:             []string{"10-K", "10-Q"},
			MaxFilingsPerForm: 50,
			Mode:              dossier.ModeFull,
			NormalizeLevel:    dossier.NormalizeLight,
		},
	}
	require.NoError(t, svc.CreateRun(context.Background(), run))
	return run
}

func TestRunService_CreateRun(t *testing.T) {
	t.Parallel()

	t.Run("assigns an ID and round-trips fields", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewRunService(setupTestDB(t))
		started := time.Date(2024, 11, 5, 14, 30, 0, 123000000, time.UTC)

		run := createRun(t, svc, "AAPL", started, dossier.RunPartialSuccess)
		require.NotEmpty(t, run.ID)

		runs, err := svc.FindRuns(context.Background(), dossier.RunFilter{})
		require.NoError(t, err)
		require.Len(t, runs, 1)

		got := runs[0]
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, "AAPL", got.Ticker)
		assert.True(t, started.Equal(got.StartedAt))
		require.NotNil(t, got.EndedAt)
		assert.True(t, run.EndedAt.Equal(*got.EndedAt))
		assert.Equal(t, dossier.RunPartialSuccess, got.Status)
		assert.Equal(t, 5, got.ArtifactCount)
		assert.Equal(t, 1, got.ErrorCount)
		assert.Equal(t, run.Config, got.Config)
	})

	t.Run("keeps a provided ID", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewRunService(setupTestDB(t))
		run := &dossier.RunRecord{ID: "run-1", Ticker: "AAPL", StartedAt: time.Now(), Status: dossier.RunSuccess}

		require.NoError(t, svc.CreateRun(context.Background(), run))

		assert.Equal(t, "run-1", run.ID)
	})

	t.Run("requires a ticker", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewRunService(setupTestDB(t))

		err := svc.CreateRun(context.Background(), &dossier.RunRecord{StartedAt: time.Now()})

		assert.Equal(t, dossier.EINVALID, dossier.ErrorCode(err))
	})

	t.Run("runs are append-only", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewRunService(setupTestDB(t))
		run := createRun(t, svc, "AAPL", time.Now(), dossier.RunSuccess)

		err := svc.CreateRun(context.Background(), run)

		require.Error(t, err)
	})
}

func TestRunService_FindRuns(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) *sqlite.RunService {
		t.Helper()
		svc := sqlite.NewRunService(setupTestDB(t))
		createRun(t, svc, "AAPL", base, dossier.RunSuccess)
		createRun(t, svc, "MSFT", base.Add(time.Hour), dossier.RunFailed)
		createRun(t, svc, "AAPL", base.Add(2*time.Hour), dossier.RunPartialSuccess)
		return svc
	}

	t.Run("returns newest first", func(t *testing.T) {
		t.Parallel()

		runs, err := setup(t).FindRuns(context.Background(), dossier.RunFilter{})

		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, dossier.RunPartialSuccess, runs[0].Status)
		assert.Equal(t, dossier.RunSuccess, runs[2].Status)
	})

	t.Run("filters by ticker", func(t *testing.T) {
		t.Parallel()

		ticker := "aapl"
		runs, err := setup(t).FindRuns(context.Background(), dossier.RunFilter{Ticker: &ticker})

		require.NoError(t, err)
		assert.Len(t, runs, 2)
	})

	t.Run("filters by status", func(t *testing.T) {
		t.Parallel()

		status := dossier.RunFailed
		runs, err := setup(t).FindRuns(context.Background(), dossier.RunFilter{Status: &status})

		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "MSFT", runs[0].Ticker)
	})

	t.Run("paginates", func(t *testing.T) {
		t.Parallel()

		svc := setup(t)

		page, err := svc.FindRuns(context.Background(), dossier.RunFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "MSFT", page[0].Ticker)

		rest, err := svc.FindRuns(context.Background(), dossier.RunFilter{Offset: 2})
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, dossier.RunSuccess, rest[0].Status)
	})
}
