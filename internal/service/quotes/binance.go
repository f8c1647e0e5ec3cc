package quotes

import (
	"context"
	"encoding/json"
	"strings"

	"PulseDesk/internal/domain/models"
	"PulseDesk/internal/normalize"
	pkghttp "PulseDesk/pkg/http"
)

// Binance prices coins from the 24h ticker of their USDT pair.
type Binance struct {
	client *pkghttp.Client
	src    Source
}

func NewBinance(client *pkghttp.Client, src Source) *Binance {
	return &Binance{client: client, src: src}
}

func (p *Binance) Name() string { return "Binance" }

func (p *Binance) Ready() error { return requireURL(p.Name(), p.src) }

type binanceTicker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
}

func (p *Binance) pair(ticker string) string {
	if s, ok := p.src.upstream(ticker); ok {
		return strings.ToUpper(s)
	}
	return strings.ToUpper(ticker) + "USDT"
}

func (p *Binance) Fetch(ctx context.Context, q models.Query) (models.QuoteSet, error) {
	back := make(map[string]string, len(q.Symbols))
	pairs := make([]string, 0, len(q.Symbols))
	for _, t := range q.Symbols {
		s := p.pair(t)
		back[s] = t
		pairs = append(pairs, s)
	}
	list, err := json.Marshal(pairs)
	if err != nil {
		return models.QuoteSet{}, err
	}

	var resp []binanceTicker
	err = p.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		URL:         p.src.BaseURL + "/api/v3/ticker/24hr",
		QueryParams: map[string][]string{"symbols": {string(list)}},
	}, &resp)
	if err != nil {
		return models.QuoteSet{}, err
	}

	out := models.QuoteSet{Quotes: make([]models.Quote, 0, len(resp))}
	for _, r := range resp {
		ticker, ok := back[r.Symbol]
		if !ok {
			continue
		}
		if qt := normalize.NormalizeQuote(ticker, "", r.LastPrice, r.PriceChange, r.PriceChangePercent); qt != nil {
			out.Quotes = append(out.Quotes, *qt)
		}
	}
	return out, nil
}
