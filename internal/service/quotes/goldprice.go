package quotes

import (
	"context"
	"strings"

	"PulseDesk/internal/domain/models"
	"PulseDesk/internal/normalize"
	pkghttp "PulseDesk/pkg/http"
)

// GoldPrice reads spot gold and silver in USD from goldprice.org.
type GoldPrice struct {
	client *pkghttp.Client
	src    Source
}

func NewGoldPrice(client *pkghttp.Client, src Source) *GoldPrice {
	return &GoldPrice{client: client, src: src}
}

func (p *GoldPrice) Name() string { return "GoldPrice" }

func (p *GoldPrice) Ready() error { return requireURL(p.Name(), p.src) }

type goldPriceResponse struct {
	Items []struct {
		Curr     string   `json:"curr"`
		XAUPrice *float64 `json:"xauPrice"`
		XAGPrice *float64 `json:"xagPrice"`
		ChgXAU   *float64 `json:"chgXau"`
		ChgXAG   *float64 `json:"chgXag"`
		PcXAU    *float64 `json:"pcXau"`
		PcXAG    *float64 `json:"pcXag"`
	} `json:"items"`
}

func (p *GoldPrice) Fetch(ctx context.Context, q models.Query) (models.QuoteSet, error) {
	var resp goldPriceResponse
	err := p.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		URL:     p.src.BaseURL + "/dbXRates/USD",
		Headers: map[string]string{"Accept": "application/json"},
	}, &resp)
	if err != nil {
		return models.QuoteSet{}, err
	}
	if len(resp.Items) == 0 {
		return models.QuoteSet{}, nil
	}

	item := resp.Items[0]
	out := models.QuoteSet{}
	for _, t := range q.Symbols {
		var qt *models.Quote
		switch strings.ToUpper(t) {
		case "XAU":
			qt = normalize.NormalizeQuote(t, "", item.XAUPrice, item.ChgXAU, item.PcXAU)
		case "XAG":
			qt = normalize.NormalizeQuote(t, "", item.XAGPrice, item.ChgXAG, item.PcXAG)
		}
		if qt != nil {
			out.Quotes = append(out.Quotes, *qt)
		}
	}
	return out, nil
}
