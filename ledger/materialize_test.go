package ledger_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/dossier"
	"github.com/fwojciec/dossier/fs"
	"github.com/fwojciec/dossier/ledger"
	"github.com/fwojciec/dossier/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticFetcher(body string) *mock.Fetcher {
	return &mock.Fetcher{
		StreamFn: func(context.Context, string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

// failingReader returns some bytes and then a transfer error.
type failingReader struct{ sent bool }

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, "partial"), nil
	}
	return 0, errors.New("connection reset by peer")
}

func TestMaterializer_Materialize(t *testing.T) {
	t.Parallel()

	k := filing("0000320193-24-000123", dossier.Form10K, "2024-11-01", "aapl-20240928.htm")
	now := func() time.Time { return buildTime }

	t.Run("link only clears the local path and keeps the recorded hash", func(t *testing.T) {
		t.Parallel()

		prev := dossier.NewArtifact(k)
		prev.LocalPath = k.RawPath()
		prev.SHA256 = "abc"
		prev.Versioning = dossier.Versioning{Version: 2, Supersedes: 1}

		m := &ledger.Materializer{Now: now}
		got, err := m.Materialize(context.Background(), "AAPL", ledger.Reconciliation{Candidate: k, Decision: ledger.LinkOnly}, []*dossier.Artifact{prev}, nil)
		require.NoError(t, err)

		require.Len(t, got, 1)
		assert.Empty(t, got[0].LocalPath)
		assert.Equal(t, "abc", got[0].SHA256)
		assert.False(t, got[0].HasContent())
		assert.Equal(t, dossier.StateLinkOnly, got[0].State)
		assert.Equal(t, 2, got[0].Versioning.Version)
		assert.Equal(t, "abc", prev.SHA256)
	})

	t.Run("download checkpoints before transfer", func(t *testing.T) {
		t.Parallel()

		store := fs.NewStore(fs.NewRoot(t.TempDir()))
		m := &ledger.Materializer{Fetcher: staticFetcher(tenKBody), Store: store, Now: now}

		var checkpoints [][]*dossier.Artifact
		got, err := m.Materialize(context.Background(), "AAPL", ledger.Reconciliation{Candidate: k, Decision: ledger.Download}, nil, func(v []*dossier.Artifact) error {
			checkpoints = append(checkpoints, v)
			return nil
		})
		require.NoError(t, err)

		require.Len(t, checkpoints, 1)
		assert.Equal(t, dossier.StateDownloading, checkpoints[0][0].State)

		require.Len(t, got, 1)
		assert.Equal(t, dossier.StateDownloaded, got[0].State)
		assert.Equal(t, buildTime, *got[0].DownloadedAt)
		assert.Equal(t, "text/html", got[0].ContentType)
	})

	t.Run("transfer failure is unreachable", func(t *testing.T) {
		t.Parallel()

		store := fs.NewStore(fs.NewRoot(t.TempDir()))
		fetcher := &mock.Fetcher{
			StreamFn: func(context.Context, string) (io.ReadCloser, error) {
				return io.NopCloser(&failingReader{}), nil
			},
		}
		m := &ledger.Materializer{Fetcher: fetcher, Store: store, Now: now}

		got, err := m.Materialize(context.Background(), "AAPL", ledger.Reconciliation{Candidate: k, Decision: ledger.Download}, nil, nil)

		assert.Equal(t, dossier.EUNREACHABLE, dossier.ErrorCode(err))
		require.Len(t, got, 1)
		assert.Equal(t, dossier.ParseFailed, got[0].ParseStatus)
		assert.Equal(t, dossier.EUNREACHABLE, got[0].ErrorCode)

		_, err = store.Stat(context.Background(), "AAPL", k.RawPath())
		assert.Equal(t, dossier.ENOTFOUND, dossier.ErrorCode(err))
	})

	t.Run("broken transfer is restarted", func(t *testing.T) {
		t.Parallel()

		store := fs.NewStore(fs.NewRoot(t.TempDir()))
		var calls int
		fetcher := &mock.Fetcher{
			StreamFn: func(context.Context, string) (io.ReadCloser, error) {
				calls++
				if calls == 1 {
					return io.NopCloser(&failingReader{}), nil
				}
				return io.NopCloser(strings.NewReader(tenKBody)), nil
			},
		}
		m := &ledger.Materializer{Fetcher: fetcher, Store: store, Now: now, RetryDelays: []time.Duration{time.Millisecond}}

		got, err := m.Materialize(context.Background(), "AAPL", ledger.Reconciliation{Candidate: k, Decision: ledger.Download}, nil, nil)
		require.NoError(t, err)

		assert.Equal(t, 2, calls)
		require.Len(t, got, 1)
		assert.Equal(t, dossier.StateDownloaded, got[0].State)
		assert.Equal(t, int64(len(tenKBody)), got[0].SizeBytes)

		data, err := store.Read(context.Background(), "AAPL", k.RawPath())
		require.NoError(t, err)
		assert.Equal(t, tenKBody, string(data))
	})

	t.Run("adopting a file that differs from the recorded hash fails integrity", func(t *testing.T) {
		t.Parallel()

		store := fs.NewStore(fs.NewRoot(t.TempDir()))
		_, err := store.Write(context.Background(), "AAPL", k.RawPath(), strings.NewReader("tampered"))
		require.NoError(t, err)
		prev := dossier.NewArtifact(k)
		prev.SHA256 = "0000"
		prev.State = dossier.StateLinkOnly

		m := &ledger.Materializer{Store: store, Now: now}
		versions := []*dossier.Artifact{prev}
		got, err := m.Materialize(context.Background(), "AAPL", ledger.Reconciliation{Candidate: k, Decision: ledger.ReuseCached, Existing: prev, Adopted: true}, versions, nil)

		assert.Equal(t, dossier.EINTEGRITY, dossier.ErrorCode(err))
		assert.Equal(t, versions, got)
	})

	t.Run("changed content after a link-only pass supersedes", func(t *testing.T) {
		t.Parallel()

		store := fs.NewStore(fs.NewRoot(t.TempDir()))
		prev := dossier.NewArtifact(k)
		prev.SHA256 = "0000"
		prev.SizeBytes = 4
		prev.State = dossier.StateLinkOnly

		m := &ledger.Materializer{Fetcher: staticFetcher(tenKBody), Store: store, Now: now}
		got, err := m.Materialize(context.Background(), "AAPL", ledger.Reconciliation{Candidate: k, Decision: ledger.Download, Existing: prev}, []*dossier.Artifact{prev}, nil)
		require.NoError(t, err)

		require.Len(t, got, 2)
		old, cur := got[0], got[1]
		assert.True(t, old.Versioning.Superseded)
		assert.Equal(t, "0000", old.SHA256)
		assert.Empty(t, old.LocalPath)
		assert.Equal(t, 2, cur.Versioning.Version)
		assert.NotEqual(t, "0000", cur.SHA256)
		assert.Equal(t, k.RawPath(), cur.LocalPath)
	})

	t.Run("failed promotion restores the current file", func(t *testing.T) {
		t.Parallel()

		prev := dossier.NewArtifact(k)
		prev.LocalPath = k.RawPath()
		prev.SHA256 = "0000"
		prev.State = dossier.StateDownloaded

		var moves [][2]string
		var removed []string
		store := &mock.ContentStore{
			WriteFn: func(_ context.Context, _, path string, r io.Reader) (*dossier.Blob, error) {
				_, _ = io.Copy(io.Discard, r)
				return &dossier.Blob{Path: path, Size: 5, SHA256: "1111"}, nil
			},
			MoveFn: func(_ context.Context, _, from, to string) error {
				moves = append(moves, [2]string{from, to})
				if from == k.RawPath()+".download" {
					return errors.New("disk full")
				}
				return nil
			},
			RemoveFn: func(_ context.Context, _, path string) error {
				removed = append(removed, path)
				return nil
			},
		}
		m := &ledger.Materializer{Fetcher: staticFetcher("other"), Store: store, Now: now}

		got, err := m.Materialize(context.Background(), "AAPL", ledger.Reconciliation{Candidate: k, Decision: ledger.Download, Existing: prev}, []*dossier.Artifact{prev}, nil)

		require.Error(t, err)
		archived := ledger.VersionedPath(k.RawPath(), 1)
		assert.Equal(t, [][2]string{
			{k.RawPath(), archived},
			{k.RawPath() + ".download", k.RawPath()},
			{archived, k.RawPath()},
		}, moves)
		assert.Equal(t, []string{k.RawPath() + ".download"}, removed)

		require.Len(t, got, 1)
		assert.Equal(t, k.RawPath(), got[0].LocalPath)
		assert.Equal(t, "0000", got[0].SHA256)
		assert.NotEmpty(t, got[0].ErrorCode)
	})

	t.Run("failed refresh keeps stored content", func(t *testing.T) {
		t.Parallel()

		store := fs.NewStore(fs.NewRoot(t.TempDir()))
		blob, err := store.Write(context.Background(), "AAPL", k.RawPath(), strings.NewReader(tenKBody))
		require.NoError(t, err)
		prev := dossier.NewArtifact(k)
		prev.LocalPath = blob.Path
		prev.SHA256 = blob.SHA256
		prev.State = dossier.StateDownloaded

		fetcher := &mock.Fetcher{
			StreamFn: func(context.Context, string) (io.ReadCloser, error) {
				return nil, dossier.Errorf(dossier.ERATELIMITED, "too many requests")
			},
		}
		m := &ledger.Materializer{Fetcher: fetcher, Store: store, Now: now}

		got, err := m.Materialize(context.Background(), "AAPL", ledger.Reconciliation{Candidate: k, Decision: ledger.Download}, []*dossier.Artifact{prev}, nil)

		assert.Equal(t, dossier.ERATELIMITED, dossier.ErrorCode(err))
		require.Len(t, got, 1)
		assert.Equal(t, prev.SHA256, got[0].SHA256)
		assert.Equal(t, prev.LocalPath, got[0].LocalPath)
		assert.Equal(t, dossier.ERATELIMITED, got[0].ErrorCode)
		assert.Empty(t, prev.ErrorCode)
	})

	t.Run("reuse detects a hash mismatch", func(t *testing.T) {
		t.Parallel()

		store := fs.NewStore(fs.NewRoot(t.TempDir()))
		_, err := store.Write(context.Background(), "AAPL", k.RawPath(), strings.NewReader(tenKBody))
		require.NoError(t, err)
		prev := dossier.NewArtifact(k)
		prev.LocalPath = k.RawPath()
		prev.SHA256 = "0000"

		m := &ledger.Materializer{Store: store, Now: now}
		versions := []*dossier.Artifact{prev}
		got, err := m.Materialize(context.Background(), "AAPL", ledger.Reconciliation{Candidate: k, Decision: ledger.ReuseCached, Existing: prev}, versions, nil)

		assert.Equal(t, dossier.EINTEGRITY, dossier.ErrorCode(err))
		assert.Equal(t, versions, got)
	})
}

func TestVersionedPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "raw/sec/10-K/2024-11-01_10k_000032019324000123.v1.htm", ledger.VersionedPath("raw/sec/10-K/2024-11-01_10k_000032019324000123.htm", 1))
	assert.Equal(t, "raw/sec/structured_data/xbrl/0000320193_companyfacts.v3.json", ledger.VersionedPath("raw/sec/structured_data/xbrl/0000320193_companyfacts.json", 3))
	assert.Equal(t, "notes.v2", ledger.VersionedPath("notes", 2))
}
