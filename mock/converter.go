package mock

import "github.com/fwojciec/dossier"

var _ dossier.Converter = (*Converter)(nil)

// Converter is a mock implementation of dossier.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
