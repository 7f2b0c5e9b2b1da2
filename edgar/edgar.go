// Package edgar resolves tickers and lists filings against the SEC EDGAR
// JSON endpoints. All requests go through a dossier.Fetcher, so they share
// its rate limit, contact header and retry policy.
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/dossier"
)

// Default endpoints.
const (
	DefaultTickersURL = "https://www.sec.gov/files/company_tickers.json"
	DefaultDataURL    = "https://data.sec.gov"
	DefaultArchiveURL = "https://www.sec.gov"
)

// Compile-time interface verification.
var (
	_ dossier.EntityResolver  = (*Client)(nil)
	_ dossier.CandidateLister = (*Client)(nil)
)

// Client talks to EDGAR.
type Client struct {
	fetcher    dossier.Fetcher
	tickersURL string
	dataURL    string
	archiveURL string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURLs overrides every endpoint, e.g. to point at a test server.
func WithBaseURLs(tickersURL, dataURL, archiveURL string) Option {
	return func(c *Client) {
		c.tickersURL = tickersURL
		c.dataURL = strings.TrimSuffix(dataURL, "/")
		c.archiveURL = strings.TrimSuffix(archiveURL, "/")
	}
}

// NewClient creates a Client that issues requests through fetcher.
func NewClient(fetcher dossier.Fetcher, opts ...Option) *Client {
	c := &Client{
		fetcher:    fetcher,
		tickersURL: DefaultTickersURL,
		dataURL:    DefaultDataURL,
		archiveURL: DefaultArchiveURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmissionsURL returns the listing endpoint for a padded CIK.
func (c *Client) SubmissionsURL(cik string) string {
	return fmt.Sprintf("%s/submissions/CIK%s.json", c.dataURL, cik)
}

// CompanyFactsURL returns the structured facts endpoint for a padded CIK.
func (c *Client) CompanyFactsURL(cik string) string {
	return fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", c.dataURL, cik)
}

// DocumentURL returns the raw archive URL of a filing's primary document,
// or of the filing index when the primary document is unknown.
func (c *Client) DocumentURL(cik, accession, primaryDocument string) string {
	dir := fmt.Sprintf("%s/Archives/edgar/data/%s/%s", c.archiveURL, strings.TrimLeft(cik, "0"), strings.ReplaceAll(accession, "-", ""))
	if primaryDocument == "" {
		return dir + "/" + accession + "-index.htm"
	}
	return dir + "/" + primaryDocument
}

// ViewerURL returns the interactive viewer URL of a filing.
func (c *Client) ViewerURL(cik, accession string) string {
	return fmt.Sprintf("%s/cgi-bin/viewer?action=view&cik=%s&accession_number=%s&xbrl_type=v",
		c.archiveURL, strings.TrimLeft(cik, "0"), accession)
}

// getJSON fetches url and decodes it into v.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	data, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return dossier.Errorf(dossier.EPARSE, "decoding %s: %v", url, err)
	}
	return nil
}
