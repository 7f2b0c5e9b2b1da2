package fs

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/dossier"
)

// ChunkIndexPath is the chunk index location inside an entity directory.
const ChunkIndexPath = "index/documents.jsonl"

// Ensure ChunkIndex implements dossier.ChunkIndex at compile time.
var _ dossier.ChunkIndex = (*ChunkIndex)(nil)

// ChunkIndex writes one JSON line per chunk.
type ChunkIndex struct {
	root *Root
}

// NewChunkIndex creates a new ChunkIndex.
func NewChunkIndex(root *Root) *ChunkIndex {
	return &ChunkIndex{root: root}
}

// OpenChunkWriter starts a fresh index in a temp file. The previous index
// stays in place until Commit.
func (x *ChunkIndex) OpenChunkWriter(ctx context.Context, ticker string) (dossier.ChunkWriter, error) {
	final, err := x.root.resolve(ticker, ChunkIndexPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(final), 0755); err != nil {
		return nil, err
	}
	f, err := os.Create(final + ".tmp")
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriter(f)
	return &chunkWriter{file: f, buf: w, enc: json.NewEncoder(w), final: final}, nil
}

type chunkWriter struct {
	file  *os.File
	buf   *bufio.Writer
	enc   *json.Encoder
	final string
	done  bool
}

func (w *chunkWriter) Save(ctx context.Context, chunk *dossier.Chunk) error {
	if w.done {
		return dossier.Errorf(dossier.EINVALID, "chunk writer is closed")
	}
	return w.enc.Encode(chunk)
}

func (w *chunkWriter) Commit() error {
	if w.done {
		return dossier.Errorf(dossier.EINVALID, "chunk writer is closed")
	}
	w.done = true
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		os.Remove(w.file.Name())
		return err
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.file.Name())
		return err
	}
	return os.Rename(w.file.Name(), w.final)
}

func (w *chunkWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	w.file.Close()
	if err := os.Remove(w.file.Name()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
