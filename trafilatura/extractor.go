// Package trafilatura extracts the main text region of a filing with
// go-trafilatura.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/dossier"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements dossier.Extractor at compile time.
var _ dossier.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura. Tables are kept because filings carry
// most of their figures in them.
type Extractor struct {
	opts trafilatura.Options
}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{
		opts: trafilatura.Options{
			EnableFallback:  true,
			ExcludeComments: true,
			IncludeLinks:    true,
		},
	}
}

// Extract returns the main content. An empty ContentHTML means trafilatura
// found no usable region and the caller should try another extractor.
func (e *Extractor) Extract(rawHTML string) (*dossier.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, dossier.Errorf(dossier.EINVALID, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), e.opts)
	if err != nil {
		return &dossier.ExtractResult{}, nil
	}

	out := &dossier.ExtractResult{Title: result.Metadata.Title}
	if result.ContentNode != nil {
		var buf bytes.Buffer
		if err := html.Render(&buf, result.ContentNode); err != nil {
			return nil, dossier.Errorf(dossier.EPARSE, "rendering content: %v", err)
		}
		out.ContentHTML = buf.String()
	}
	return out, nil
}
