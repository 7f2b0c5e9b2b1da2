package dossier

// ExtractResult holds the extracted content from an HTML document.
type ExtractResult struct {
	// Title is the document title extracted from metadata.
	Title string

	// ContentHTML is the retained content as clean HTML.
	ContentHTML string
}

// Extractor selects the content worth keeping from an HTML document.
type Extractor interface {
	// Extract processes raw HTML and returns the retained content.
	// An empty ContentHTML means the extractor found nothing usable.
	Extract(html string) (*ExtractResult, error)
}
