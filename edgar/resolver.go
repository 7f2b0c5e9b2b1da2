package edgar

import (
	"context"
	"strconv"

	"github.com/fwojciec/dossier"
)

type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// ResolveEntity maps a ticker, or a numeric CIK, to an entity.
func (c *Client) ResolveEntity(ctx context.Context, identifier string) (*dossier.Entity, error) {
	id := dossier.NormalizeIdentifier(identifier)
	if id == "" {
		return nil, dossier.Errorf(dossier.EINVALID, "identifier required")
	}

	if _, err := strconv.ParseUint(id, 10, 64); err == nil {
		return c.resolveCIK(ctx, id)
	}

	var tickers map[string]tickerEntry
	if err := c.getJSON(ctx, c.tickersURL, &tickers); err != nil {
		return nil, err
	}
	for _, t := range tickers {
		if dossier.NormalizeIdentifier(t.Ticker) != id {
			continue
		}
		cik, err := dossier.PadCIK(strconv.FormatInt(t.CIK, 10))
		if err != nil {
			return nil, err
		}
		return &dossier.Entity{Ticker: id, Name: t.Title, CIK: cik}, nil
	}

	return nil, dossier.Errorf(dossier.ENOTFOUND, "ticker %q not found", id)
}

func (c *Client) resolveCIK(ctx context.Context, id string) (*dossier.Entity, error) {
	cik, err := dossier.PadCIK(id)
	if err != nil {
		return nil, err
	}

	var sub submissions
	if err := c.getJSON(ctx, c.SubmissionsURL(cik), &sub); err != nil {
		if dossier.ErrorCode(err) == dossier.EREJECTED {
			return nil, dossier.Errorf(dossier.ENOTFOUND, "CIK %s not found", cik)
		}
		return nil, err
	}

	e := &dossier.Entity{Ticker: cik, Name: sub.Name, CIK: cik}
	if len(sub.Tickers) > 0 {
		e.Ticker = dossier.NormalizeIdentifier(sub.Tickers[0])
	}
	if len(sub.Exchanges) > 0 {
		e.Exchange = sub.Exchanges[0]
	}
	return e, nil
}
