package dossier

import (
	"context"
	"io"
)

// Blob describes stored content.
type Blob struct {
	Path   string
	Size   int64
	SHA256 string
}

// ContentStore persists raw and normalized content under an entity's
// dossier directory. Paths are slash-separated and relative to that
// directory, so the same document always lands at the same path.
type ContentStore interface {
	// Stat returns the size of the file at path.
	// Returns ENOTFOUND if it does not exist.
	Stat(ctx context.Context, ticker, path string) (int64, error)

	// Hash recomputes the digest of the file at path from disk.
	Hash(ctx context.Context, ticker, path string) (*Blob, error)

	// Write streams r to path, hashing while writing. The file is
	// replaced atomically once fully written.
	Write(ctx context.Context, ticker, path string, r io.Reader) (*Blob, error)

	// Read returns the content of the file at path.
	Read(ctx context.Context, ticker, path string) ([]byte, error)

	// Move renames a stored file, replacing any file at to.
	Move(ctx context.Context, ticker, from, to string) error

	// Remove deletes the file at path. Missing files are not an error.
	Remove(ctx context.Context, ticker, path string) error
}

// ChunkWriter writes a complete chunk index with replace-on-commit
// semantics: nothing is visible until Commit, and Abort leaves the
// previous index untouched.
type ChunkWriter interface {
	Save(ctx context.Context, chunk *Chunk) error
	Commit() error
	Abort() error
}

// ChunkIndex opens writers for an entity's chunk index.
type ChunkIndex interface {
	OpenChunkWriter(ctx context.Context, ticker string) (ChunkWriter, error)
}
