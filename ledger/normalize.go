package ledger

import (
	"strings"

	"github.com/fwojciec/dossier"
)

// Normalized is the heading-marked text of one document.
type Normalized struct {
	Title string
	Text  string
}

// Normalizer converts raw content to heading-marked text. Markup goes
// through an extractor chain picked by level, where the first extractor
// returning content wins, and then through the converter.
type Normalizer struct {
	Light     []dossier.Extractor
	Deep      []dossier.Extractor
	Converter dossier.Converter
}

// Normalize converts raw bytes of the given content type. Unsupported types
// fail with EPARSE.
func (n *Normalizer) Normalize(raw []byte, contentType string, level dossier.NormalizeLevel) (*Normalized, error) {
	if len(raw) == 0 {
		return nil, dossier.Errorf(dossier.EPARSE, "empty content")
	}

	switch mediaType(contentType) {
	case "text/html", "application/xhtml+xml":
		return n.markup(string(raw), level)
	case "text/plain", "text/markdown":
		return &Normalized{Text: strings.ReplaceAll(string(raw), "\r\n", "\n")}, nil
	default:
		return nil, dossier.Errorf(dossier.EPARSE, "unsupported content type %q", contentType)
	}
}

func (n *Normalizer) markup(html string, level dossier.NormalizeLevel) (*Normalized, error) {
	chain := n.Light
	if level == dossier.NormalizeDeep && len(n.Deep) > 0 {
		chain = n.Deep
	}

	var lastErr error
	for _, ext := range chain {
		res, err := ext.Extract(html)
		if err != nil {
			lastErr = err
			continue
		}
		if strings.TrimSpace(res.ContentHTML) == "" {
			continue
		}

		text, err := n.Converter.Convert(res.ContentHTML)
		if err != nil {
			return nil, dossier.Errorf(dossier.EPARSE, "converting markup: %s", dossier.ErrorMessage(err))
		}
		return &Normalized{Title: res.Title, Text: text}, nil
	}

	if lastErr != nil {
		return nil, dossier.Errorf(dossier.EPARSE, "extracting content: %s", dossier.ErrorMessage(lastErr))
	}
	return nil, dossier.Errorf(dossier.EPARSE, "no content extracted")
}

// mediaType strips parameters such as charset.
func mediaType(contentType string) string {
	t, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(t))
}
