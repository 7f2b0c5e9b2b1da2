package ledger

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fwojciec/dossier"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Refresher resolves an identifier bypassing any cache.
type Refresher interface {
	RefreshEntity(ctx context.Context, identifier string) (*dossier.Entity, error)
}

// Builder builds and updates entity dossiers.
type Builder struct {
	Resolver     dossier.EntityResolver
	Lister       dossier.CandidateLister
	Fetcher      dossier.Fetcher
	Store        dossier.ContentStore
	Manifests    dossier.ManifestStore
	Chunks       dossier.ChunkIndex
	Runs         dossier.RunService
	Normalizer   *Normalizer
	TokenCounter dossier.TokenCounter

	// Defaults is used by Update when no dossier exists yet.
	Defaults BuildRequest

	// RetryDelays are passed to the Materializer for transfers that break
	// off mid-body.
	RetryDelays []time.Duration

	MinChunkSize int
	Concurrency  int
	Now          func() time.Time
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now().UTC()
	}
	return time.Now().UTC()
}

// run carries the state of one build.
type run struct {
	req      BuildRequest
	record   *dossier.RunRecord
	result   *Result
	manifest *dossier.Manifest
	book     *book
	progress ProgressFunc

	// tokenErr is set once a token count has failed; counting stops there.
	tokenErr bool
}

func (r *run) notify(e ProgressEvent) {
	if r.progress != nil {
		r.progress(e)
	}
}

// Build resolves the entity, lists candidates and materializes them into
// the entity's dossier. Per-artifact failures are recorded and do not stop
// the run. Resolution, listing and local persistence failures abort it;
// the returned Result then has status failed and the error is returned.
func (b *Builder) Build(ctx context.Context, req BuildRequest, progress ProgressFunc) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	snap := req.snapshot()
	r := &run{
		req:      req,
		progress: progress,
		record: &dossier.RunRecord{
			ID:        uuid.New().String(),
			Ticker:    dossier.NormalizeIdentifier(req.Ticker),
			StartedAt: b.now(),
			Status:    dossier.RunRunning,
			Mode:      req.Mode,
			Version:   dossier.Version,
			Config:    &snap,
		},
		result: &Result{Errors: []RunError{}},
	}
	r.result.RunID = r.record.ID

	entity, err := b.resolve(ctx, req)
	if err != nil {
		return b.abort(ctx, r, err)
	}
	r.record.Ticker = entity.Ticker

	listing, err := b.Lister.ListCandidates(ctx, entity, dossier.CandidateFilter{
		Forms:       req.Forms,
		Since:       dossier.SinceYears(r.record.StartedAt, req.Years),
		MaxPerForm:  req.MaxPerForm,
		IncludeXBRL: req.IncludeXBRL,
	})
	if err != nil {
		return b.abort(ctx, r, err)
	}
	if entity.Name == "" {
		entity.Name = listing.Name
	}
	if entity.Exchange == "" && len(listing.Exchanges) > 0 {
		entity.Exchange = listing.Exchanges[0]
	}

	m, err := b.Manifests.LoadManifest(ctx, entity.Ticker)
	if dossier.ErrorCode(err) == dossier.ENOTFOUND {
		m, err = &dossier.Manifest{}, nil
	}
	if err != nil {
		return b.abort(ctx, r, err)
	}
	m.Entity = entity
	m.Config = snap
	m.RunInfo = r.record
	r.manifest = m
	r.book = newBook(m.Artifacts)
	r.result.ManifestPath = b.Manifests.ManifestPath(entity.Ticker)
	r.result.DossierPath = filepath.Dir(r.result.ManifestPath)
	if err := b.Manifests.SaveManifest(ctx, m); err != nil {
		return b.abort(ctx, r, err)
	}

	recs := Reconcile(ctx, b.Store, entity.Ticker, listing.Candidates, m, req.Mode, req.Force)
	r.result.Summary.Total = len(recs)
	r.notify(ProgressEvent{Type: ProgressStarted, Total: len(recs)})
	for i, rec := range recs {
		if err := b.materialize(ctx, r, rec); err != nil {
			return b.abort(ctx, r, err)
		}
		r.notify(ProgressEvent{
			Type:       ProgressMaterialized,
			Completed:  i + 1,
			Total:      len(recs),
			ArtifactID: rec.Candidate.ID(),
			URL:        rec.Candidate.URL,
			Decision:   rec.Decision,
		})
	}

	if req.Mode == dossier.ModeFull && req.NormalizeLevel != dossier.NormalizeNone {
		if err := b.normalize(ctx, r); err != nil {
			return b.abort(ctx, r, err)
		}
	}

	return b.finish(ctx, r)
}

// Update rebuilds a dossier with the configuration its last run used.
// A non-empty mode overrides the stored one. Without a dossier it builds
// one from the builder's defaults.
func (b *Builder) Update(ctx context.Context, ticker string, mode dossier.Mode, progress ProgressFunc) (*Result, error) {
	base := b.Defaults
	if base.Years == 0 {
		base = DefaultBuildRequest(ticker)
	}
	base.Ticker = ticker

	m, err := b.Manifests.LoadManifest(ctx, ticker)
	switch {
	case dossier.ErrorCode(err) == dossier.ENOTFOUND:
		req := base
		if mode != "" {
			req.Mode = mode
		}
		return b.Build(ctx, req, progress)
	case err != nil:
		return nil, err
	}

	req := requestFromSnapshot(ticker, m.Config, base)
	if m.Entity != nil && m.Entity.Ticker != "" {
		req.Ticker = m.Entity.Ticker
	}
	if mode != "" {
		req.Mode = mode
	}
	return b.Build(ctx, req, progress)
}

func (b *Builder) resolve(ctx context.Context, req BuildRequest) (*dossier.Entity, error) {
	if req.RefreshEntity {
		if r, ok := b.Resolver.(Refresher); ok {
			return r.RefreshEntity(ctx, req.Ticker)
		}
	}
	return b.Resolver.ResolveEntity(ctx, req.Ticker)
}

// materialize applies one reconciliation and persists the manifest. Only
// cancellation and manifest persistence failures are returned.
func (b *Builder) materialize(ctx context.Context, r *run, rec Reconciliation) error {
	ticker := r.manifest.Entity.Ticker
	id := rec.Candidate.ID()
	mat := &Materializer{Fetcher: b.Fetcher, Store: b.Store, Now: b.Now, RetryDelays: b.RetryDelays}
	checkpoint := func(versions []*dossier.Artifact) error {
		r.book.put(id, versions)
		r.manifest.Artifacts = r.book.artifacts()
		return b.Manifests.SaveManifest(ctx, r.manifest)
	}

	versions, err := mat.Materialize(ctx, ticker, rec, r.book.get(id), checkpoint)
	if dossier.ErrorCode(err) == dossier.EINTEGRITY {
		r.result.Errors = append(r.result.Errors, newRunError(dossier.NewArtifact(rec.Candidate), err))
		rec.Decision = Download
		versions, err = mat.Materialize(ctx, ticker, rec, versions, checkpoint)
	}
	r.book.put(id, versions)
	r.manifest.Artifacts = r.book.artifacts()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		r.result.Summary.Failed++
		r.result.Errors = append(r.result.Errors, newRunError(dossier.NewArtifact(rec.Candidate), err))
		r.notify(ProgressEvent{Type: ProgressFailed, ArtifactID: id, URL: rec.Candidate.URL, Decision: rec.Decision, Error: err})
	} else {
		switch rec.Decision {
		case LinkOnly:
			r.result.Summary.LinkOnly++
		case Skip:
			r.result.Summary.Skipped++
		case ReuseCached:
			r.result.Summary.Reused++
		case Download:
			r.result.Summary.Downloaded++
		}
	}

	return b.Manifests.SaveManifest(ctx, r.manifest)
}

type normalizeResult struct {
	normalized *Normalized
	err        error
}

// normalize regenerates normalized text and the chunk index from every
// live artifact holding content. Documents are normalized concurrently;
// results are applied in manifest order.
func (b *Builder) normalize(ctx context.Context, r *run) error {
	ticker := r.manifest.Entity.Ticker

	var targets []*dossier.Artifact
	for _, a := range r.manifest.CurrentArtifacts() {
		if !a.HasContent() {
			continue
		}
		if a.Type == dossier.KindXBRL {
			if a.ParseStatus != dossier.ParseSkipped {
				skipped := a.Clone()
				skipped.ParseStatus = dossier.ParseSkipped
				r.book.put(a.ID, replaceCurrent(r.book.get(a.ID), skipped))
			}
			continue
		}
		targets = append(targets, a)
	}
	r.manifest.Artifacts = r.book.artifacts()

	results := make([]normalizeResult, len(targets))
	concurrency := b.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, a := range targets {
		g.Go(func() error {
			raw, err := b.Store.Read(gctx, ticker, a.LocalPath)
			if err != nil {
				results[i].err = err
				return nil
			}
			results[i].normalized, results[i].err = b.Normalizer.Normalize(raw, a.ContentType, r.req.NormalizeLevel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	w, err := b.Chunks.OpenChunkWriter(ctx, ticker)
	if err != nil {
		return err
	}
	for i, a := range targets {
		updated, err := b.applyNormalized(ctx, r, w, a, results[i])
		if err != nil {
			w.Abort()
			return err
		}
		r.book.put(a.ID, replaceCurrent(r.book.get(a.ID), updated))
		r.manifest.Artifacts = r.book.artifacts()
		if err := b.Manifests.SaveManifest(ctx, r.manifest); err != nil {
			w.Abort()
			return err
		}
		r.notify(ProgressEvent{Type: ProgressNormalized, Completed: i + 1, Total: len(targets), ArtifactID: a.ID, URL: a.URL})
	}
	return w.Commit()
}

// applyNormalized stores one document's text and chunks and returns its
// updated record. Normalization failures are recorded on the record;
// only local persistence failures are returned.
func (b *Builder) applyNormalized(ctx context.Context, r *run, w dossier.ChunkWriter, a *dossier.Artifact, res normalizeResult) (*dossier.Artifact, error) {
	updated := a.Clone()
	if res.err != nil {
		err := res.err
		if dossier.ErrorCode(err) != dossier.EPARSE {
			err = dossier.Errorf(dossier.EPARSE, "%s", dossier.ErrorMessage(err))
		}
		updated.ParseStatus = dossier.ParseFailed
		updated.ParseError = dossier.ErrorMessage(err)
		updated.NormalizedPath = ""
		updated.ChunkCount = 0
		r.result.Summary.ParsedFailed++
		r.result.Errors = append(r.result.Errors, newRunError(a, err))
		return updated, nil
	}

	text := res.normalized.Text
	if _, err := b.Store.Write(ctx, r.manifest.Entity.Ticker, a.TextPath(), strings.NewReader(text)); err != nil {
		return nil, err
	}

	minSize := b.MinChunkSize
	if minSize <= 0 {
		minSize = dossier.DefaultMinChunkSize
	}
	chunks := dossier.SplitChunks(text, a, minSize)
	for _, c := range chunks {
		c.ID = chunkID(c)
		if err := w.Save(ctx, c); err != nil {
			return nil, err
		}
		if b.TokenCounter != nil && !r.tokenErr {
			n, err := b.TokenCounter.CountTokens(ctx, c.Text)
			if err != nil {
				r.tokenErr = true
				r.result.Errors = append(r.result.Errors, newRunError(a, fmt.Errorf("counting tokens: %w", err)))
				continue
			}
			r.result.Summary.Tokens += n
		}
	}

	if res.normalized.Title != "" {
		updated.Title = res.normalized.Title
	}
	updated.ParseStatus = dossier.ParseSuccess
	updated.ParseError = ""
	updated.NormalizedPath = a.TextPath()
	updated.ChunkCount = len(chunks)
	r.result.Summary.ParsedSuccess++
	r.result.Summary.Chunks += len(chunks)
	return updated, nil
}

// finish computes quality, records the terminal status and appends the run
// to the history.
func (b *Builder) finish(ctx context.Context, r *run) (*Result, error) {
	m := r.manifest
	now := b.now()
	r.result.Quality = dossier.ComputeQuality(m, now)

	r.record.EndedAt = &now
	r.record.Status = dossier.RunSuccess
	if r.result.Summary.Failed+r.result.Summary.ParsedFailed > 0 {
		r.record.Status = dossier.RunPartialSuccess
	}
	r.record.ArtifactCount = len(m.CurrentArtifacts())
	r.record.ErrorCount = len(r.result.Errors)
	m.RunInfo = r.record
	if err := b.Manifests.SaveManifest(ctx, m); err != nil {
		return b.abort(ctx, r, err)
	}
	b.appendRun(ctx, r)

	s := &r.result.Summary
	s.Ticker = m.Entity.Ticker
	s.CIK = m.Entity.CIK
	s.CompanyName = m.Entity.Name
	s.LatestFiledAt = m.LatestFiledAt()
	r.result.Status = r.record.Status
	r.notify(ProgressEvent{Type: ProgressFinished, Completed: s.Total, Total: s.Total})
	return r.result, nil
}

// abort ends the run as failed. Progress made so far stays in the manifest
// so the next run resumes from it.
func (b *Builder) abort(ctx context.Context, r *run, cause error) (*Result, error) {
	ctx = context.WithoutCancel(ctx)
	now := b.now()
	r.record.EndedAt = &now
	r.record.Status = dossier.RunFailed
	r.result.Errors = append(r.result.Errors, newRunError(nil, cause))
	if r.manifest != nil {
		r.record.ArtifactCount = len(r.manifest.CurrentArtifacts())
		r.record.ErrorCount = len(r.result.Errors)
		r.manifest.RunInfo = r.record
		if err := b.Manifests.SaveManifest(ctx, r.manifest); err != nil {
			r.result.Errors = append(r.result.Errors, newRunError(nil, fmt.Errorf("saving manifest: %w", err)))
		}
	}
	r.record.ErrorCount = len(r.result.Errors)
	b.appendRun(ctx, r)
	r.result.Status = dossier.RunFailed
	return r.result, cause
}

// appendRun records the run in the history. A failure is reported in the
// result but does not change the run's status.
func (b *Builder) appendRun(ctx context.Context, r *run) {
	if b.Runs == nil {
		return
	}
	if err := b.Runs.CreateRun(ctx, r.record); err != nil {
		r.result.Errors = append(r.result.Errors, newRunError(nil, err))
	}
}

// Status summarizes a dossier from its manifest alone.
func (b *Builder) Status(ctx context.Context, ticker string) (*StatusReport, error) {
	m, err := b.Manifests.LoadManifest(ctx, ticker)
	if err != nil {
		return nil, err
	}

	report := &StatusReport{
		Entity:        m.Entity,
		RunInfo:       m.RunInfo,
		Config:        m.Config,
		ManifestPath:  b.Manifests.ManifestPath(ticker),
		States:        make(map[dossier.State]int),
		ParseStatuses: make(map[dossier.ParseStatus]int),
		Forms:         make(map[dossier.Form]int),
		LatestFiledAt: m.LatestFiledAt(),
		Quality:       dossier.ComputeQuality(m, b.now()),
	}
	for _, a := range m.Artifacts {
		if !a.IsCurrent() {
			report.Superseded++
			continue
		}
		report.Artifacts++
		report.States[a.State]++
		report.ParseStatuses[a.ParseStatus]++
		report.Forms[a.Form]++
		report.Chunks += a.ChunkCount
	}
	return report, nil
}

// StatusReport describes a dossier as last written.
type StatusReport struct {
	Entity        *dossier.Entity             `json:"company"`
	RunInfo       *dossier.RunRecord          `json:"run_info"`
	Config        dossier.ConfigSnapshot      `json:"config_snapshot"`
	ManifestPath  string                      `json:"manifest_path"`
	Artifacts     int                         `json:"artifacts"`
	Superseded    int                         `json:"superseded"`
	Chunks        int                         `json:"chunks"`
	States        map[dossier.State]int       `json:"states"`
	ParseStatuses map[dossier.ParseStatus]int `json:"parse_statuses"`
	Forms         map[dossier.Form]int        `json:"forms"`
	LatestFiledAt string                      `json:"latest_filed_at,omitempty"`
	Quality       *dossier.QualityMetrics     `json:"quality_metrics"`
}

// List returns the dossier's live artifacts matching filter, newest filing
// first.
func (b *Builder) List(ctx context.Context, ticker string, filter dossier.ArtifactFilter) ([]*dossier.Artifact, error) {
	m, err := b.Manifests.LoadManifest(ctx, ticker)
	if err != nil {
		return nil, err
	}
	artifacts := m.Filter(filter)
	sort.SliceStable(artifacts, func(i, j int) bool {
		return artifacts[i].FiledAt > artifacts[j].FiledAt
	})
	return artifacts, nil
}
