// Package readability extracts article-like content with go-readability.
package readability

import (
	"strings"

	"github.com/fwojciec/dossier"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Ensure Extractor implements dossier.Extractor at compile time.
var _ dossier.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns readability's article content. Documents readability
// does not consider readable yield an empty result rather than an error.
func (e *Extractor) Extract(rawHTML string) (*dossier.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, dossier.Errorf(dossier.EINVALID, "empty HTML input")
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, dossier.Errorf(dossier.EPARSE, "failed to parse HTML: %v", err)
	}
	if !readability.CheckDocument(doc) {
		return &dossier.ExtractResult{}, nil
	}

	article, err := readability.FromDocument(doc, nil)
	if err != nil {
		return &dossier.ExtractResult{}, nil
	}

	return &dossier.ExtractResult{
		Title:       article.Title,
		ContentHTML: article.Content,
	}, nil
}
