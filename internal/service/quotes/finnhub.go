package quotes

import (
	"context"
	"net/http"

	"PulseDesk/internal/domain/models"
	"PulseDesk/internal/normalize"
	"PulseDesk/internal/service/ratelimit"
	pkghttp "PulseDesk/pkg/http"
)

// Finnhub free tier: 60 calls per minute.
const (
	finnhubBurst  = 30
	finnhubPerSec = 1
)

// Finnhub prices one symbol per /quote call.
type Finnhub struct {
	client  *pkghttp.Client
	src     Source
	limiter *ratelimit.Limiter
}

func NewFinnhub(client *pkghttp.Client, src Source, limiter *ratelimit.Limiter) *Finnhub {
	return &Finnhub{client: client, src: src, limiter: limiter}
}

func (p *Finnhub) Name() string { return "Finnhub" }

func (p *Finnhub) Ready() error { return requireKey(p.Name(), p.src) }

type finnhubQuote struct {
	C  *float64 `json:"c"`
	D  *float64 `json:"d"`
	DP *float64 `json:"dp"`
	T  int64    `json:"t"`
}

func (p *Finnhub) Fetch(ctx context.Context, q models.Query) (models.QuoteSet, error) {
	return fanOut(ctx, q.Symbols, p.src.concurrency(), p.quote)
}

func (p *Finnhub) quote(ctx context.Context, ticker string) (*models.Quote, error) {
	if !p.limiter.Allow("finnhub", finnhubBurst, finnhubPerSec) {
		return nil, &pkghttp.UpstreamError{Provider: p.Name(), Status: http.StatusTooManyRequests, Body: "local rate limit"}
	}

	sym := ticker
	if s, ok := p.src.upstream(ticker); ok {
		sym = s
	}

	var resp finnhubQuote
	err := p.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		URL:         p.src.BaseURL + "/quote",
		Headers:     map[string]string{"X-Finnhub-Token": p.src.APIKey},
		QueryParams: map[string][]string{"symbol": {sym}},
	}, &resp)
	if err != nil {
		return nil, err
	}
	// unknown symbols come back as all zeros
	if resp.T == 0 {
		return nil, nil
	}
	return normalize.NormalizeQuote(ticker, "", resp.C, resp.D, resp.DP), nil
}
