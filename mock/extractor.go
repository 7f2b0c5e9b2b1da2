package mock

import "github.com/fwojciec/dossier"

var _ dossier.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of dossier.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*dossier.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*dossier.ExtractResult, error) {
	return e.ExtractFn(html)
}
