// Package htmltomarkdown converts cleaned filing HTML to Markdown.
package htmltomarkdown

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/dossier"
)

// Ensure Converter implements dossier.Converter at compile time.
var _ dossier.Converter = (*Converter)(nil)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Converter wraps html-to-markdown. Tables are kept as pipe tables and
// headings become "#" lines that the chunker splits on.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML into Markdown with runs of blank lines collapsed.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", dossier.Errorf(dossier.EINVALID, "empty HTML input")
	}

	md, err := c.conv.ConvertString(html)
	if err != nil {
		return "", dossier.Errorf(dossier.EPARSE, "converting HTML: %v", err)
	}

	md = strings.ReplaceAll(md, "\u00a0", " ")
	md = blankRuns.ReplaceAllString(md, "\n\n")
	return strings.TrimSpace(md) + "\n", nil
}
