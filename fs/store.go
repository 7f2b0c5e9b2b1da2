package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fwojciec/dossier"
)

// Ensure Store implements dossier.ContentStore at compile time.
var _ dossier.ContentStore = (*Store)(nil)

// Store implements dossier.ContentStore on top of a Root.
type Store struct {
	root *Root
}

// NewStore creates a new Store.
func NewStore(root *Root) *Store {
	return &Store{root: root}
}

func (s *Store) Stat(ctx context.Context, ticker, path string) (int64, error) {
	name, err := s.root.resolve(ticker, path)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(name)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, dossier.Errorf(dossier.ENOTFOUND, "%s not found", path)
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (s *Store) Hash(ctx context.Context, ticker, path string) (*dossier.Blob, error) {
	name, err := s.root.resolve(ticker, path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, dossier.Errorf(dossier.ENOTFOUND, "%s not found", path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return nil, err
	}
	return &dossier.Blob{Path: path, Size: n, SHA256: hex.EncodeToString(h.Sum(nil))}, nil
}

// Write streams r into a temp file next to path while hashing it, then
// renames the temp file into place. A failed or cancelled write leaves any
// previous file at path untouched.
func (s *Store) Write(ctx context.Context, ticker, path string, r io.Reader) (*dossier.Blob, error) {
	name, err := s.root.resolve(ticker, path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*.part")
	if err != nil {
		return nil, err
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), &contextReader{ctx: ctx, r: r})
	if err != nil {
		cleanup()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}

	return &dossier.Blob{Path: path, Size: n, SHA256: hex.EncodeToString(h.Sum(nil))}, nil
}

func (s *Store) Read(ctx context.Context, ticker, path string) ([]byte, error) {
	name, err := s.root.resolve(ticker, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, dossier.Errorf(dossier.ENOTFOUND, "%s not found", path)
	}
	return data, err
}

func (s *Store) Move(ctx context.Context, ticker, from, to string) error {
	src, err := s.root.resolve(ticker, from)
	if err != nil {
		return err
	}
	dst, err := s.root.resolve(ticker, to)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	err = os.Rename(src, dst)
	if errors.Is(err, fs.ErrNotExist) {
		return dossier.Errorf(dossier.ENOTFOUND, "%s not found", from)
	}
	return err
}

func (s *Store) Remove(ctx context.Context, ticker, path string) error {
	name, err := s.root.resolve(ticker, path)
	if err != nil {
		return err
	}
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
