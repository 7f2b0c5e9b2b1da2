package fs

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fwojciec/dossier"
)

// ManifestFile is the manifest's name inside an entity directory.
const ManifestFile = "manifest.json"

// Ensure ManifestStore implements dossier.ManifestStore at compile time.
var _ dossier.ManifestStore = (*ManifestStore)(nil)

// ManifestStore keeps one indented JSON manifest per entity.
type ManifestStore struct {
	root *Root
}

// NewManifestStore creates a new ManifestStore.
func NewManifestStore(root *Root) *ManifestStore {
	return &ManifestStore{root: root}
}

func (s *ManifestStore) ManifestPath(ticker string) string {
	return filepath.Join(s.root.EntityDir(ticker), ManifestFile)
}

func (s *ManifestStore) LoadManifest(ctx context.Context, ticker string) (*dossier.Manifest, error) {
	if err := checkTicker(ticker); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.ManifestPath(ticker))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, dossier.Errorf(dossier.ENOTFOUND, "no dossier for %s", dossier.NormalizeIdentifier(ticker))
	}
	if err != nil {
		return nil, err
	}

	var m dossier.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, dossier.Errorf(dossier.EPARSE, "reading manifest for %s: %v", ticker, err)
	}
	return &m, nil
}

// SaveManifest replaces the manifest atomically, so readers see either the
// previous or the new ledger and never a partial one.
func (s *ManifestStore) SaveManifest(ctx context.Context, m *dossier.Manifest) error {
	if m.Entity == nil {
		return dossier.Errorf(dossier.EINVALID, "manifest entity required")
	}
	if err := checkTicker(m.Entity.Ticker); err != nil {
		return err
	}
	if m.Artifacts == nil {
		m.Artifacts = []*dossier.Artifact{}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return writeAtomic(s.ManifestPath(m.Entity.Ticker), data)
}
