package dossier

// Converter converts HTML to heading-marked text.
type Converter interface {
	// Convert transforms HTML content into Markdown, so headings survive
	// as literal "#" markers.
	Convert(html string) (string, error)
}
