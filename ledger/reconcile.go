package ledger

import (
	"context"

	"github.com/fwojciec/dossier"
)

// Reconcile decides, for each candidate, how it is materialized. Rules are
// applied in order:
//
//  1. links_only mode records links and never touches content.
//  2. Filings without a primary document are skipped.
//  3. force downloads everything.
//  4. A current record holding content whose file is non-empty is reused.
//  5. A non-empty file already at the candidate's path is adopted.
//  6. Everything else is downloaded.
//
// Only file sizes are consulted; hashes are verified by the Materializer.
func Reconcile(ctx context.Context, store dossier.ContentStore, ticker string, candidates []*dossier.Candidate, m *dossier.Manifest, mode dossier.Mode, force bool) []Reconciliation {
	out := make([]Reconciliation, 0, len(candidates))
	for _, c := range candidates {
		r := Reconciliation{Candidate: c}
		if m != nil {
			r.Existing = m.Current(c.ID())
		}

		switch {
		case mode == dossier.ModeLinksOnly:
			r.Decision = LinkOnly
		case c.Kind == dossier.KindFiling && c.PrimaryDocument == "":
			r.Decision = Skip
		case force:
			r.Decision = Download
		case r.Existing != nil && r.Existing.HasContent() && nonEmpty(ctx, store, ticker, r.Existing.LocalPath):
			r.Decision = ReuseCached
		case (r.Existing == nil || !r.Existing.HasContent()) && nonEmpty(ctx, store, ticker, c.RawPath()):
			r.Decision = ReuseCached
			r.Adopted = true
		default:
			r.Decision = Download
		}
		out = append(out, r)
	}
	return out
}

func nonEmpty(ctx context.Context, store dossier.ContentStore, ticker, path string) bool {
	size, err := store.Stat(ctx, ticker, path)
	return err == nil && size > 0
}
