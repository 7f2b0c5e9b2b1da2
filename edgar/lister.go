package edgar

import (
	"context"

	"github.com/fwojciec/dossier"
)

type submissions struct {
	CIK       string   `json:"cik"`
	Name      string   `json:"name"`
	Tickers   []string `json:"tickers"`
	Exchanges []string `json:"exchanges"`
	Filings   struct {
		Recent filingColumns `json:"recent"`
		Files  []filingPage  `json:"files"`
	} `json:"filings"`
}

// filingColumns is EDGAR's columnar filing listing: index i of every slice
// describes the same filing.
type filingColumns struct {
	AccessionNumber       []string `json:"accessionNumber"`
	FilingDate            []string `json:"filingDate"`
	ReportDate            []string `json:"reportDate"`
	Form                  []string `json:"form"`
	PrimaryDocument       []string `json:"primaryDocument"`
	PrimaryDocDescription []string `json:"primaryDocDescription"`
}

// filingPage points at an older page of the listing.
type filingPage struct {
	Name        string `json:"name"`
	FilingCount int    `json:"filingCount"`
	FilingFrom  string `json:"filingFrom"`
	FilingTo    string `json:"filingTo"`
}

// ListCandidates scans the entity's filing history newest first. Older
// listing pages are only fetched while they can still contribute
// candidates.
func (c *Client) ListCandidates(ctx context.Context, entity *dossier.Entity, filter dossier.CandidateFilter) (*dossier.Listing, error) {
	var sub submissions
	if err := c.getJSON(ctx, c.SubmissionsURL(entity.CIK), &sub); err != nil {
		return nil, err
	}

	items := c.candidates(entity, sub.Filings.Recent)

	var since string
	if !filter.Since.IsZero() {
		since = filter.Since.Format(dossier.DateLayout)
	}
	for _, page := range sub.Filings.Files {
		if since != "" && page.FilingTo < since {
			break
		}
		if saturated(dossier.SelectCandidates(items, filter), filter) {
			break
		}
		var older filingColumns
		if err := c.getJSON(ctx, c.dataURL+"/submissions/"+page.Name, &older); err != nil {
			return nil, err
		}
		items = append(items, c.candidates(entity, older)...)
	}

	listing := &dossier.Listing{
		Name:       sub.Name,
		Exchanges:  sub.Exchanges,
		Candidates: dossier.SelectCandidates(items, filter),
	}
	if filter.IncludeXBRL {
		listing.Candidates = append(listing.Candidates, &dossier.Candidate{
			Source: dossier.SourceSEC,
			Kind:   dossier.KindXBRL,
			CIK:    entity.CIK,
			Form:   "XBRL",
			URL:    c.CompanyFactsURL(entity.CIK),
		})
	}
	return listing, nil
}

func (c *Client) candidates(entity *dossier.Entity, cols filingColumns) []*dossier.Candidate {
	items := make([]*dossier.Candidate, 0, len(cols.AccessionNumber))
	for i, accession := range cols.AccessionNumber {
		if i >= len(cols.Form) || i >= len(cols.FilingDate) {
			break
		}
		primary := column(cols.PrimaryDocument, i)
		items = append(items, &dossier.Candidate{
			Source:          dossier.SourceSEC,
			Kind:            dossier.KindFiling,
			CIK:             entity.CIK,
			Form:            dossier.Form(cols.Form[i]),
			Period:          column(cols.ReportDate, i),
			FiledAt:         cols.FilingDate[i],
			AccessionNumber: accession,
			PrimaryDocument: primary,
			Description:     column(cols.PrimaryDocDescription, i),
			URL:             c.DocumentURL(entity.CIK, accession, primary),
			ViewerURL:       c.ViewerURL(entity.CIK, accession),
		})
	}
	return items
}

// saturated reports whether every requested form already reached its cap.
func saturated(selected []*dossier.Candidate, filter dossier.CandidateFilter) bool {
	if len(filter.Forms) == 0 || filter.MaxPerForm <= 0 {
		return false
	}
	counts := make(map[dossier.Form]int)
	for _, c := range selected {
		counts[c.Form]++
	}
	for _, f := range filter.Forms {
		if counts[f] < filter.MaxPerForm {
			return false
		}
	}
	return true
}

func column(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
