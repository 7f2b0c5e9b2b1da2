// Package goquery implements markup cleanup with CSS selectors.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/dossier"
)

// Ensure Cleaner implements dossier.Extractor at compile time.
var _ dossier.Extractor = (*Cleaner)(nil)

// noise lists elements that never carry document text. Inline XBRL filings
// keep their hidden fact header in ix:header.
var noise = []string{
	"script",
	"style",
	"noscript",
	"template",
	"iframe",
	"svg",
	`ix\:header`,
}

// Cleaner removes non-content markup while keeping the whole body,
// including tables. It does not try to guess a main content region, so it
// is safe for long structured filings.
type Cleaner struct{}

// NewCleaner creates a new Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Extract strips noise and hidden elements and returns the remaining body.
func (c *Cleaner) Extract(html string) (*dossier.ExtractResult, error) {
	if strings.TrimSpace(html) == "" {
		return nil, dossier.Errorf(dossier.EINVALID, "empty HTML input")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, dossier.Errorf(dossier.EPARSE, "failed to parse HTML: %v", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	doc.Find(strings.Join(noise, ", ")).Remove()
	doc.Find("[style]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return isHidden(s.AttrOr("style", ""))
	}).Remove()
	doc.Find("[hidden]").Remove()

	body := doc.Find("body")
	if strings.TrimSpace(body.Text()) == "" {
		return &dossier.ExtractResult{Title: title}, nil
	}
	content, err := body.Html()
	if err != nil {
		return nil, dossier.Errorf(dossier.EPARSE, "failed to render HTML: %v", err)
	}

	return &dossier.ExtractResult{
		Title:       title,
		ContentHTML: strings.TrimSpace(content),
	}, nil
}

// isHidden reports whether an inline style hides its element.
func isHidden(style string) bool {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	return strings.Contains(s, "display:none") || strings.Contains(s, "visibility:hidden")
}
