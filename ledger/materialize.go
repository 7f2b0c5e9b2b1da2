package ledger

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/fwojciec/dossier"
)

// Materializer turns reconciliation decisions into ledger records. It works
// on the version history of one document at a time and returns the updated
// history; it never mutates records it did not create, except to mark them
// superseded.
type Materializer struct {
	Fetcher dossier.Fetcher
	Store   dossier.ContentStore
	Now     func() time.Time

	// RetryDelays are the waits before re-downloading a body whose
	// transfer broke off. The number of delays is the number of retries.
	RetryDelays []time.Duration
}

// CheckpointFunc persists an intermediate version history, so an
// interrupted download is visible in the manifest.
type CheckpointFunc func(versions []*dossier.Artifact) error

// Materialize applies r to versions. The returned error is the
// per-artifact failure, if any; the returned history is always usable and
// records that failure. A hash mismatch on reuse returns EINTEGRITY with
// versions unchanged, and the caller downloads instead.
func (m *Materializer) Materialize(ctx context.Context, ticker string, r Reconciliation, versions []*dossier.Artifact, checkpoint CheckpointFunc) ([]*dossier.Artifact, error) {
	switch r.Decision {
	case LinkOnly:
		return m.linkOnly(r.Candidate, versions), nil
	case Skip:
		return m.skip(r.Candidate, versions), nil
	case ReuseCached:
		return m.reuse(ctx, ticker, r.Candidate, versions)
	default:
		return m.download(ctx, ticker, r.Candidate, versions, checkpoint)
	}
}

func (m *Materializer) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

// successor returns a fresh record for c that takes over the version slot
// of cur, if any. The slot's last recorded hash and size are carried over:
// content later stored in the same slot must match them.
func successor(c *dossier.Candidate, cur *dossier.Artifact) *dossier.Artifact {
	a := dossier.NewArtifact(c)
	if cur != nil {
		a.Versioning = cur.Versioning
		a.SHA256 = cur.SHA256
		a.SizeBytes = cur.SizeBytes
	}
	return a
}

func (m *Materializer) linkOnly(c *dossier.Candidate, versions []*dossier.Artifact) []*dossier.Artifact {
	a := successor(c, current(versions))
	a.State = dossier.StateLinkOnly
	a.ParseStatus = dossier.ParseLinksOnly
	return replaceCurrent(versions, a)
}

func (m *Materializer) skip(c *dossier.Candidate, versions []*dossier.Artifact) []*dossier.Artifact {
	cur := current(versions)
	if cur != nil && cur.HasContent() {
		return versions
	}
	a := successor(c, cur)
	a.ParseStatus = dossier.ParseSkipped
	a.ParseError = "no primary document"
	return replaceCurrent(versions, a)
}

func (m *Materializer) reuse(ctx context.Context, ticker string, c *dossier.Candidate, versions []*dossier.Artifact) ([]*dossier.Artifact, error) {
	cur := current(versions)
	if cur != nil && cur.HasContent() {
		blob, err := m.Store.Hash(ctx, ticker, cur.LocalPath)
		if err != nil {
			return versions, dossier.Errorf(dossier.EINTEGRITY, "cannot verify %s: %s", cur.LocalPath, dossier.ErrorMessage(err))
		}
		if blob.SHA256 != cur.SHA256 {
			return versions, dossier.Errorf(dossier.EINTEGRITY, "hash mismatch for %s", cur.LocalPath)
		}
		return versions, nil
	}

	blob, err := m.Store.Hash(ctx, ticker, c.RawPath())
	if err != nil {
		return versions, dossier.Errorf(dossier.EINTEGRITY, "cannot adopt %s: %s", c.RawPath(), dossier.ErrorMessage(err))
	}
	if cur != nil && cur.SHA256 != "" && blob.SHA256 != cur.SHA256 {
		return versions, dossier.Errorf(dossier.EINTEGRITY, "hash mismatch for %s: version %d was recorded with a different hash", c.RawPath(), cur.Versioning.Version)
	}
	a := successor(c, cur)
	a.LocalPath = c.RawPath()
	a.ContentType = c.ContentType()
	a.SizeBytes = blob.Size
	a.SHA256 = blob.SHA256
	a.State = dossier.StateCached
	return replaceCurrent(versions, a), nil
}

func (m *Materializer) download(ctx context.Context, ticker string, c *dossier.Candidate, versions []*dossier.Artifact, checkpoint CheckpointFunc) ([]*dossier.Artifact, error) {
	cur := current(versions)
	hadContent := cur != nil && cur.HasContent()

	target := c.RawPath()
	if hadContent {
		// The current file stays in place until the new content is known
		// to differ.
		target = cur.LocalPath + ".download"
	} else {
		pending := successor(c, cur)
		pending.State = dossier.StateDownloading
		versions = replaceCurrent(versions, pending)
		if checkpoint != nil {
			if err := checkpoint(versions); err != nil {
				return versions, err
			}
		}
	}

	blob, err := m.fetch(ctx, ticker, c.URL, target)
	if err != nil {
		return m.failed(c, versions, err), err
	}
	downloadedAt := m.now()

	if !hadContent {
		if cur != nil && cur.SHA256 != "" && blob.SHA256 != cur.SHA256 {
			return m.supersede(ctx, ticker, c, versions, cur, "", blob, downloadedAt)
		}
		a := successor(c, cur)
		a.LocalPath = c.RawPath()
		a.ContentType = c.ContentType()
		a.SizeBytes = blob.Size
		a.SHA256 = blob.SHA256
		a.DownloadedAt = &downloadedAt
		a.State = dossier.StateDownloaded
		return replaceCurrent(versions, a), nil
	}

	if blob.SHA256 == cur.SHA256 {
		// Same content: the fresh copy replaces whatever is on disk, which
		// restores a file that no longer matches its recorded hash.
		if err := m.Store.Move(ctx, ticker, target, cur.LocalPath); err != nil {
			_ = m.Store.Remove(ctx, ticker, target)
			return m.failed(c, versions, err), err
		}
		if cur.Error != "" {
			cleared := cur.Clone()
			cleared.Error, cleared.ErrorCode = "", ""
			return replaceCurrent(versions, cleared), nil
		}
		return versions, nil
	}

	return m.supersede(ctx, ticker, c, versions, cur, target, blob, downloadedAt)
}

// supersede archives the current version's file, promotes the staged
// download, and appends the new version. An empty staged path means the
// new content is already at the candidate's path and the current version
// has no file to archive.
func (m *Materializer) supersede(ctx context.Context, ticker string, c *dossier.Candidate, versions []*dossier.Artifact, cur *dossier.Artifact, staged string, blob *dossier.Blob, downloadedAt time.Time) ([]*dossier.Artifact, error) {
	n := cur.Versioning.Version
	var archived string
	if staged != "" {
		archived = VersionedPath(cur.LocalPath, n)
		if err := m.Store.Move(ctx, ticker, cur.LocalPath, archived); err != nil {
			_ = m.Store.Remove(ctx, ticker, staged)
			return m.failed(c, versions, err), err
		}
		if err := m.Store.Move(ctx, ticker, staged, c.RawPath()); err != nil {
			// Put the current version back where its record points.
			_ = m.Store.Move(ctx, ticker, archived, cur.LocalPath)
			_ = m.Store.Remove(ctx, ticker, staged)
			return m.failed(c, versions, err), err
		}
	}

	old := cur.Clone()
	old.LocalPath = archived
	old.Versioning.Superseded = true
	old.Versioning.SupersededBy = n + 1

	a := dossier.NewArtifact(c)
	a.LocalPath = c.RawPath()
	a.ContentType = c.ContentType()
	a.SizeBytes = blob.Size
	a.SHA256 = blob.SHA256
	a.DownloadedAt = &downloadedAt
	a.State = dossier.StateDownloaded
	a.Versioning = dossier.Versioning{Version: n + 1, Supersedes: n}

	out := replaceCurrent(versions, old)
	return append(out, a), nil
}

// fetch streams url into target. Opening the stream is retried by the
// Fetcher; a transfer that breaks off mid-body is restarted here after the
// next retry delay.
func (m *Materializer) fetch(ctx context.Context, ticker, url, target string) (*dossier.Blob, error) {
	for attempt := 0; ; attempt++ {
		body, err := m.Fetcher.Stream(ctx, url)
		if err != nil {
			return nil, err
		}
		r := &trackedReader{r: body}
		blob, err := m.Store.Write(ctx, ticker, target, r)
		body.Close()
		switch {
		case err == nil:
			return blob, nil
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case r.err == nil:
			return nil, err
		}

		err = dossier.Errorf(dossier.EUNREACHABLE, "reading %s: %v", url, r.err)
		if attempt >= len(m.RetryDelays) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.RetryDelays[attempt]):
		}
	}
}

// trackedReader remembers the first read error, separating transfer
// failures from local write failures.
type trackedReader struct {
	r   io.Reader
	err error
}

func (t *trackedReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}

// failed records err on the document. A version holding content keeps its
// hash and path; otherwise the live record becomes a failed record.
func (m *Materializer) failed(c *dossier.Candidate, versions []*dossier.Artifact, err error) []*dossier.Artifact {
	cur := current(versions)
	if cur != nil && cur.HasContent() {
		a := cur.Clone()
		a.Error = dossier.ErrorMessage(err)
		a.ErrorCode = dossier.ErrorCode(err)
		return replaceCurrent(versions, a)
	}
	a := successor(c, cur)
	a.ParseStatus = dossier.ParseFailed
	a.Error = dossier.ErrorMessage(err)
	a.ErrorCode = dossier.ErrorCode(err)
	return replaceCurrent(versions, a)
}

// VersionedPath returns where version n of a superseded file is kept:
// the extension is preserved so the archived file opens like the original.
func VersionedPath(p string, n int) string {
	ext := path.Ext(p)
	return fmt.Sprintf("%s.v%d%s", strings.TrimSuffix(p, ext), n, ext)
}
