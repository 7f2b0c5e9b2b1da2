package trafilatura_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/dossier"
	"github.com/fwojciec/dossier/trafilatura"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("extracts main content without navigation", func(t *testing.T) {
		t.Parallel()

		body := strings.Repeat("<p>The Company designs, manufactures and markets smartphones, personal computers, tablets and wearables. Net sales were driven by services growth across all geographic segments.</p>\n", 6)
		html := `<!DOCTYPE html>
<html>
<head><title>aapl-20240928</title></head>
<body>
<nav><a href="/">EDGAR Home</a><a href="/search">Full Text Search</a></nav>
<article>
<h1>Item 1. Business</h1>
` + body + `
</article>
<footer>Copyright SEC</footer>
</body>
</html>`

		result, err := trafilatura.NewExtractor().Extract(html)

		require.NoError(t, err)
		assert.Contains(t, result.ContentHTML, "manufactures and markets smartphones")
		assert.NotContains(t, result.ContentHTML, "Full Text Search")
	})

	t.Run("extracts title", func(t *testing.T) {
		t.Parallel()

		html := `<!DOCTYPE html>
<html>
<head><title>Annual Report</title><meta property="og:title" content="Annual Report 2024"></head>
<body><main><h1>Annual Report</h1><p>This is the body of the annual report for the fiscal year.</p></main></body>
</html>`

		result, err := trafilatura.NewExtractor().Extract(html)

		require.NoError(t, err)
		assert.NotEmpty(t, result.Title)
	})

	t.Run("returns error for empty input", func(t *testing.T) {
		t.Parallel()

		_, err := trafilatura.NewExtractor().Extract("")

		require.Error(t, err)
		assert.Equal(t, dossier.EINVALID, dossier.ErrorCode(err))
	})

	t.Run("handles minimal valid HTML", func(t *testing.T) {
		t.Parallel()

		result, err := trafilatura.NewExtractor().Extract(`<html><body><p>Hi</p></body></html>`)

		require.NoError(t, err)
		assert.NotNil(t, result)
	})
}
