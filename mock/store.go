package mock

import (
	"context"
	"io"

	"github.com/fwojciec/dossier"
)

var _ dossier.ContentStore = (*ContentStore)(nil)

// ContentStore is a mock implementation of dossier.ContentStore.
type ContentStore struct {
	StatFn   func(ctx context.Context, ticker, path string) (int64, error)
	HashFn   func(ctx context.Context, ticker, path string) (*dossier.Blob, error)
	WriteFn  func(ctx context.Context, ticker, path string, r io.Reader) (*dossier.Blob, error)
	ReadFn   func(ctx context.Context, ticker, path string) ([]byte, error)
	MoveFn   func(ctx context.Context, ticker, from, to string) error
	RemoveFn func(ctx context.Context, ticker, path string) error
}

func (s *ContentStore) Stat(ctx context.Context, ticker, path string) (int64, error) {
	return s.StatFn(ctx, ticker, path)
}

func (s *ContentStore) Hash(ctx context.Context, ticker, path string) (*dossier.Blob, error) {
	return s.HashFn(ctx, ticker, path)
}

func (s *ContentStore) Write(ctx context.Context, ticker, path string, r io.Reader) (*dossier.Blob, error) {
	return s.WriteFn(ctx, ticker, path, r)
}

func (s *ContentStore) Read(ctx context.Context, ticker, path string) ([]byte, error) {
	return s.ReadFn(ctx, ticker, path)
}

func (s *ContentStore) Move(ctx context.Context, ticker, from, to string) error {
	return s.MoveFn(ctx, ticker, from, to)
}

func (s *ContentStore) Remove(ctx context.Context, ticker, path string) error {
	return s.RemoveFn(ctx, ticker, path)
}

var _ dossier.ManifestStore = (*ManifestStore)(nil)

// ManifestStore is a mock implementation of dossier.ManifestStore.
type ManifestStore struct {
	LoadManifestFn func(ctx context.Context, ticker string) (*dossier.Manifest, error)
	SaveManifestFn func(ctx context.Context, m *dossier.Manifest) error
	ManifestPathFn func(ticker string) string
}

func (s *ManifestStore) LoadManifest(ctx context.Context, ticker string) (*dossier.Manifest, error) {
	return s.LoadManifestFn(ctx, ticker)
}

func (s *ManifestStore) SaveManifest(ctx context.Context, m *dossier.Manifest) error {
	return s.SaveManifestFn(ctx, m)
}

func (s *ManifestStore) ManifestPath(ticker string) string {
	return s.ManifestPathFn(ticker)
}

var _ dossier.ChunkIndex = (*ChunkIndex)(nil)

// ChunkIndex is a mock implementation of dossier.ChunkIndex.
type ChunkIndex struct {
	OpenChunkWriterFn func(ctx context.Context, ticker string) (dossier.ChunkWriter, error)
}

func (x *ChunkIndex) OpenChunkWriter(ctx context.Context, ticker string) (dossier.ChunkWriter, error) {
	return x.OpenChunkWriterFn(ctx, ticker)
}

var _ dossier.ChunkWriter = (*ChunkWriter)(nil)

// ChunkWriter is a mock implementation of dossier.ChunkWriter.
type ChunkWriter struct {
	SaveFn   func(ctx context.Context, chunk *dossier.Chunk) error
	CommitFn func() error
	AbortFn  func() error
}

func (w *ChunkWriter) Save(ctx context.Context, chunk *dossier.Chunk) error {
	return w.SaveFn(ctx, chunk)
}

func (w *ChunkWriter) Commit() error {
	return w.CommitFn()
}

func (w *ChunkWriter) Abort() error {
	return w.AbortFn()
}
