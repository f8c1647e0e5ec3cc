package quotes

import (
	"context"
	"net/url"

	"PulseDesk/internal/domain/models"
	"PulseDesk/internal/normalize"
	pkghttp "PulseDesk/pkg/http"
)

// Polygon prices a symbol from its previous-day aggregate bar; the change is
// close minus open of that bar.
type Polygon struct {
	client *pkghttp.Client
	src    Source
}

func NewPolygon(client *pkghttp.Client, src Source) *Polygon {
	return &Polygon{client: client, src: src}
}

func (p *Polygon) Name() string { return "Polygon" }

func (p *Polygon) Ready() error { return requireKey(p.Name(), p.src) }

type polygonPrev struct {
	Status  string `json:"status"`
	Results []struct {
		T string  `json:"T"`
		C float64 `json:"c"`
		O float64 `json:"o"`
	} `json:"results"`
}

func (p *Polygon) Fetch(ctx context.Context, q models.Query) (models.QuoteSet, error) {
	return fanOut(ctx, q.Symbols, p.src.concurrency(), p.quote)
}

func (p *Polygon) quote(ctx context.Context, ticker string) (*models.Quote, error) {
	sym := ticker
	if s, ok := p.src.upstream(ticker); ok {
		sym = s
	}

	var resp polygonPrev
	err := p.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		URL: p.src.BaseURL + "/v2/aggs/ticker/" + url.PathEscape(sym) + "/prev",
		QueryParams: map[string][]string{
			"adjusted": {"true"},
			"apiKey":   {p.src.APIKey},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	bar := resp.Results[0]
	var pct *float64
	if bar.O != 0 {
		pct = ptr((bar.C - bar.O) / bar.O * 100)
	}
	return normalize.NormalizeQuote(ticker, "", bar.C, bar.C-bar.O, pct), nil
}
