package ledger

import "github.com/fwojciec/dossier"

// book holds every version of every document while a run mutates the
// manifest, and reproduces the manifest order: documents listed in this
// run in discovery order, then documents known from earlier runs in their
// previous order. Versions of one document stay oldest first.
type book struct {
	prior    []string
	run      []string
	inRun    map[string]bool
	versions map[string][]*dossier.Artifact
}

func newBook(artifacts []*dossier.Artifact) *book {
	b := &book{
		inRun:    make(map[string]bool),
		versions: make(map[string][]*dossier.Artifact),
	}
	for _, a := range artifacts {
		if _, ok := b.versions[a.ID]; !ok {
			b.prior = append(b.prior, a.ID)
		}
		b.versions[a.ID] = append(b.versions[a.ID], a)
	}
	return b
}

// get returns the versions of id.
func (b *book) get(id string) []*dossier.Artifact {
	return b.versions[id]
}

// put replaces the versions of id and marks it as seen in this run.
func (b *book) put(id string, versions []*dossier.Artifact) {
	if !b.inRun[id] {
		b.inRun[id] = true
		b.run = append(b.run, id)
	}
	b.versions[id] = versions
}

// artifacts returns the manifest's artifact list.
func (b *book) artifacts() []*dossier.Artifact {
	out := make([]*dossier.Artifact, 0, len(b.versions))
	for _, id := range b.run {
		out = append(out, b.versions[id]...)
	}
	for _, id := range b.prior {
		if !b.inRun[id] {
			out = append(out, b.versions[id]...)
		}
	}
	return out
}

// current returns the live version among versions, or nil.
func current(versions []*dossier.Artifact) *dossier.Artifact {
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i].IsCurrent() {
			return versions[i]
		}
	}
	return nil
}

// replaceCurrent swaps the live version for a, or appends a when there is
// none.
func replaceCurrent(versions []*dossier.Artifact, a *dossier.Artifact) []*dossier.Artifact {
	out := make([]*dossier.Artifact, len(versions), len(versions)+1)
	copy(out, versions)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].IsCurrent() {
			out[i] = a
			return out
		}
	}
	return append(out, a)
}
