package quotes

import (
	"context"
	"strings"

	"PulseDesk/internal/domain/models"
	"PulseDesk/internal/normalize"
	pkghttp "PulseDesk/pkg/http"
)

// CoinGecko prices coins through /simple/price. Only tickers with a coin id
// mapping are requested.
type CoinGecko struct {
	client *pkghttp.Client
	src    Source
}

func NewCoinGecko(client *pkghttp.Client, src Source) *CoinGecko {
	return &CoinGecko{client: client, src: src}
}

func (p *CoinGecko) Name() string { return "CoinGecko" }

func (p *CoinGecko) Ready() error { return requireURL(p.Name(), p.src) }

type coinGeckoPrice struct {
	USD       *float64 `json:"usd"`
	USDChange *float64 `json:"usd_24h_change"`
}

func (p *CoinGecko) Fetch(ctx context.Context, q models.Query) (models.QuoteSet, error) {
	back := make(map[string]string, len(q.Symbols))
	ids := make([]string, 0, len(q.Symbols))
	for _, t := range q.Symbols {
		if id, ok := p.src.upstream(t); ok {
			back[id] = t
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return models.QuoteSet{}, nil
	}

	var resp map[string]coinGeckoPrice
	err := p.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		URL: p.src.BaseURL + "/simple/price",
		QueryParams: map[string][]string{
			"ids":                 {strings.Join(ids, ",")},
			"vs_currencies":       {"usd"},
			"include_24hr_change": {"true"},
		},
	}, &resp)
	if err != nil {
		return models.QuoteSet{}, err
	}

	out := models.QuoteSet{Quotes: make([]models.Quote, 0, len(resp))}
	for _, id := range ids {
		price, ok := resp[id]
		if !ok || price.USD == nil {
			continue
		}
		var change *float64
		if price.USDChange != nil && *price.USDChange != -100 {
			prev := *price.USD / (1 + *price.USDChange/100)
			change = ptr(*price.USD - prev)
		}
		if qt := normalize.NormalizeQuote(back[id], "", price.USD, change, price.USDChange); qt != nil {
			out.Quotes = append(out.Quotes, *qt)
		}
	}
	return out, nil
}
