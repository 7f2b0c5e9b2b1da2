// Package fs stores dossiers on the local filesystem. Each entity owns one
// directory under the root, named after its ticker, holding the manifest,
// raw and normalized content, and the chunk index.
package fs

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fwojciec/dossier"
)

// Root maps tickers and relative paths onto a dossier root directory.
type Root struct {
	dir string
}

// NewRoot returns a Root at dir. The directory is created on first write.
func NewRoot(dir string) *Root {
	return &Root{dir: dir}
}

// Dir returns the root directory.
func (r *Root) Dir() string {
	return r.dir
}

// EntityDir returns the dossier directory of ticker.
func (r *Root) EntityDir(ticker string) string {
	return filepath.Join(r.dir, dossier.NormalizeIdentifier(ticker))
}

// resolve joins a slash-separated relative path onto the entity directory,
// rejecting paths that would escape it.
func (r *Root) resolve(ticker, rel string) (string, error) {
	if err := checkTicker(ticker); err != nil {
		return "", err
	}
	if rel == "" || path.IsAbs(rel) {
		return "", dossier.Errorf(dossier.EINVALID, "invalid path %q", rel)
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == ".." {
			return "", dossier.Errorf(dossier.EINVALID, "invalid path %q: path traversal", rel)
		}
	}
	return filepath.Join(r.EntityDir(ticker), filepath.FromSlash(rel)), nil
}

// checkTicker rejects tickers that do not name a single directory under
// the root.
func checkTicker(ticker string) error {
	t := dossier.NormalizeIdentifier(ticker)
	switch {
	case t == "":
		return dossier.Errorf(dossier.EINVALID, "ticker required")
	case t == "." || strings.Contains(t, "..") || strings.ContainsAny(t, `/\`):
		return dossier.Errorf(dossier.EINVALID, "invalid ticker %q", ticker)
	}
	return nil
}

// writeAtomic writes data to a temp file beside name and renames it into
// place.
func writeAtomic(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
