package quotes

import (
	"context"
	"slices"
	"strings"

	"PulseDesk/internal/domain/models"
	"PulseDesk/internal/normalize"
	pkghttp "PulseDesk/pkg/http"
)

// ExchangeRateHost prices six-letter currency pairs (EURUSD, USDJPY, ...)
// from USD-based live rates. It reports no change figures.
type ExchangeRateHost struct {
	client *pkghttp.Client
	src    Source
}

func NewExchangeRateHost(client *pkghttp.Client, src Source) *ExchangeRateHost {
	return &ExchangeRateHost{client: client, src: src}
}

func (p *ExchangeRateHost) Name() string { return "ExchangeRateHost" }

func (p *ExchangeRateHost) Ready() error { return requireKey(p.Name(), p.src) }

type exchangeRateResponse struct {
	Success bool               `json:"success"`
	Quotes  map[string]float64 `json:"quotes"`
	Error   *struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

func (p *ExchangeRateHost) Fetch(ctx context.Context, q models.Query) (models.QuoteSet, error) {
	var currencies []string
	for _, t := range q.Symbols {
		base, quote, ok := splitPair(t)
		if !ok {
			continue
		}
		for _, c := range []string{base, quote} {
			if c != "USD" && !slices.Contains(currencies, c) {
				currencies = append(currencies, c)
			}
		}
	}
	if len(currencies) == 0 {
		return models.QuoteSet{}, nil
	}

	var resp exchangeRateResponse
	err := p.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		URL: p.src.BaseURL + "/live",
		QueryParams: map[string][]string{
			"access_key": {p.src.APIKey},
			"source":     {"USD"},
			"currencies": {strings.Join(currencies, ",")},
		},
	}, &resp)
	if err != nil {
		return models.QuoteSet{}, err
	}
	if !resp.Success {
		msg := "request failed"
		if resp.Error != nil {
			msg = resp.Error.Info
		}
		return models.QuoteSet{}, apiError(p.Name(), msg)
	}

	usd := func(c string) (float64, bool) {
		if c == "USD" {
			return 1, true
		}
		v, ok := resp.Quotes["USD"+c]
		return v, ok && v > 0
	}

	out := models.QuoteSet{}
	for _, t := range q.Symbols {
		base, quote, ok := splitPair(t)
		if !ok {
			continue
		}
		b, ok1 := usd(base)
		c, ok2 := usd(quote)
		if !ok1 || !ok2 {
			continue
		}
		// units of quote per one base
		if qt := normalize.NormalizeQuote(t, "", c/b, nil, nil); qt != nil {
			out.Quotes = append(out.Quotes, *qt)
		}
	}
	return out, nil
}

func splitPair(t string) (string, string, bool) {
	t = strings.ToUpper(strings.TrimSpace(t))
	if len(t) != 6 {
		return "", "", false
	}
	return t[:3], t[3:], true
}
