package quotes

import (
	"context"
	"strings"

	"PulseDesk/internal/domain/models"
	"PulseDesk/internal/normalize"
	pkghttp "PulseDesk/pkg/http"
)

// Yahoo batches every symbol into one v7 quote call. No key is needed.
type Yahoo struct {
	client *pkghttp.Client
	src    Source
}

func NewYahoo(client *pkghttp.Client, src Source) *Yahoo {
	return &Yahoo{client: client, src: src}
}

func (p *Yahoo) Name() string { return "Yahoo" }

func (p *Yahoo) Ready() error { return requireURL(p.Name(), p.src) }

type yahooResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string   `json:"symbol"`
			ShortName                  string   `json:"shortName"`
			RegularMarketPrice         *float64 `json:"regularMarketPrice"`
			RegularMarketChange        *float64 `json:"regularMarketChange"`
			RegularMarketChangePercent *float64 `json:"regularMarketChangePercent"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

func (p *Yahoo) Fetch(ctx context.Context, q models.Query) (models.QuoteSet, error) {
	// upstream symbol -> dashboard ticker
	back := make(map[string]string, len(q.Symbols))
	syms := make([]string, 0, len(q.Symbols))
	for _, t := range q.Symbols {
		s := t
		if m, ok := p.src.upstream(t); ok {
			s = m
		}
		back[strings.ToUpper(s)] = t
		syms = append(syms, s)
	}

	var resp yahooResponse
	err := p.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		URL:         p.src.BaseURL + "/v7/finance/quote",
		QueryParams: map[string][]string{"symbols": {strings.Join(syms, ",")}},
	}, &resp)
	if err != nil {
		return models.QuoteSet{}, err
	}
	if e := resp.QuoteResponse.Error; e != nil {
		return models.QuoteSet{}, apiError(p.Name(), e.Code+": "+e.Description)
	}

	out := models.QuoteSet{Quotes: make([]models.Quote, 0, len(resp.QuoteResponse.Result))}
	for _, r := range resp.QuoteResponse.Result {
		ticker, ok := back[strings.ToUpper(r.Symbol)]
		if !ok {
			continue
		}
		if qt := normalize.NormalizeQuote(ticker, r.ShortName, r.RegularMarketPrice, r.RegularMarketChange, r.RegularMarketChangePercent); qt != nil {
			out.Quotes = append(out.Quotes, *qt)
		}
	}
	return out, nil
}
