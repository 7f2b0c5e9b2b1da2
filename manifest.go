package dossier

import (
	"context"
	"encoding/json"
	"strings"
)

// Manifest is the persisted per-entity ledger. It is the sole durable state
// between invocations.
type Manifest struct {
	Entity    *Entity        `json:"company"`
	RunInfo   *RunRecord     `json:"run_info"`
	Config    ConfigSnapshot `json:"config_snapshot"`
	Artifacts []*Artifact    `json:"artifacts"`
}

// UnmarshalJSON accepts both the current layout and the historical
// link-only layout that used "entity" and "filings" keys.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	type manifest Manifest
	var raw struct {
		manifest
		LegacyEntity *Entity    `json:"entity"`
		Filings      []*Artifact `json:"filings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = Manifest(raw.manifest)
	if m.Entity == nil {
		m.Entity = raw.LegacyEntity
	}
	if len(m.Artifacts) == 0 && len(raw.Filings) > 0 {
		m.Artifacts = upgradeFilings(raw.Filings)
	}
	for _, a := range m.Artifacts {
		if a.Versioning.Version == 0 {
			a.Versioning = Versioning{Version: 1, FirstSeen: true}
		}
	}
	return nil
}

// upgradeFilings converts link-only filing records to artifacts with
// canonical identities.
func upgradeFilings(filings []*Artifact) []*Artifact {
	for _, f := range filings {
		if f.Source == "" {
			f.Source = SourceSEC
		}
		if f.Type == "" {
			f.Type = KindFiling
		}
		if len(f.FiledAt) > len(DateLayout) {
			f.FiledAt = f.FiledAt[:len(DateLayout)]
		}
		if f.AccessionNumber != "" {
			c := &Candidate{Source: f.Source, Kind: f.Type, Form: f.Form, AccessionNumber: f.AccessionNumber}
			f.ID = c.ID()
		}
		f.LocalPath = ""
		f.State = StateLinkOnly
		f.ParseStatus = ParseLinksOnly
	}
	return filings
}

// Current returns the live version of the artifact with id, or nil.
func (m *Manifest) Current(id string) *Artifact {
	for i := len(m.Artifacts) - 1; i >= 0; i-- {
		if a := m.Artifacts[i]; a.ID == id && a.IsCurrent() {
			return a
		}
	}
	return nil
}

// History returns every version of the artifact with id in manifest order.
func (m *Manifest) History(id string) []*Artifact {
	var versions []*Artifact
	for _, a := range m.Artifacts {
		if a.ID == id {
			versions = append(versions, a)
		}
	}
	return versions
}

// CurrentArtifacts returns the live version of every document.
func (m *Manifest) CurrentArtifacts() []*Artifact {
	var current []*Artifact
	for _, a := range m.Artifacts {
		if a.IsCurrent() {
			current = append(current, a)
		}
	}
	return current
}

// LatestFiledAt returns the most recent filing date among live artifacts.
func (m *Manifest) LatestFiledAt() string {
	var latest string
	for _, a := range m.CurrentArtifacts() {
		if a.FiledAt > latest {
			latest = a.FiledAt
		}
	}
	return latest
}

// ArtifactFilter filters artifacts for listing.
type ArtifactFilter struct {
	Form  *Form
	Since *string
}

// Filter returns live artifacts matching filter in manifest order.
func (m *Manifest) Filter(filter ArtifactFilter) []*Artifact {
	var out []*Artifact
	for _, a := range m.CurrentArtifacts() {
		if filter.Form != nil && !strings.EqualFold(string(a.Form), string(*filter.Form)) {
			continue
		}
		if filter.Since != nil && a.FiledAt < *filter.Since {
			continue
		}
		out = append(out, a)
	}
	return out
}

// ManifestStore persists manifests, one per entity.
type ManifestStore interface {
	// LoadManifest returns the manifest for ticker.
	// Returns ENOTFOUND if no dossier exists yet.
	LoadManifest(ctx context.Context, ticker string) (*Manifest, error)

	// SaveManifest atomically replaces the manifest for its entity.
	SaveManifest(ctx context.Context, m *Manifest) error

	// ManifestPath returns where the manifest for ticker is stored.
	ManifestPath(ticker string) string
}
