package di

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PulseDesk/internal/domain/models"
	internalrepo "PulseDesk/internal/repository"
	"PulseDesk/internal/service/ratelimit"
	"PulseDesk/internal/usecase"
	"PulseDesk/pkg/cache"
	"PulseDesk/pkg/config"
	applogger "PulseDesk/pkg/logger"
	"PulseDesk/pkg/metrics"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	return cfg
}

func TestNewsChainFollowsConfig(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Chains.News = []string{"rss", "gnews"}

	chain, err := newsChain(cfg)
	require.NoError(t, err)
	assert.Equal(t, "news", chain.Category)
	assert.Equal(t, "frontpage", chain.DefaultKey)
	assert.ElementsMatch(t, []string{"frontpage", "world", "tech", "finance"}, chain.Keys)
	require.Len(t, chain.Providers, 2)
	assert.Equal(t, "RSS", chain.Providers[0].Name())
	assert.Equal(t, "GNews", chain.Providers[1].Name())
}

func TestPickUnknownProvider(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Chains.News = []string{"newsapi", "bloomberg"}
	_, err := newsChain(cfg)
	assert.ErrorContains(t, err, `unknown provider "bloomberg"`)
}

func TestMarketChains(t *testing.T) {
	cfg := defaultConfig(t)
	chains, err := marketChains(cfg, ratelimit.New())
	require.NoError(t, err)

	byCat := make(map[string]usecase.Chain[models.QuoteSet], len(chains))
	for _, c := range chains {
		byCat[c.Category] = c
	}
	require.Len(t, byCat, 5)

	names := func(c usecase.Chain[models.QuoteSet]) []string {
		out := make([]string, 0, len(c.Providers))
		for _, p := range c.Providers {
			out = append(out, p.Name())
		}
		return out
	}
	assert.Equal(t, []string{"Finnhub", "Polygon", "Yahoo", "Stooq"}, names(byCat["stocks"]))
	assert.Equal(t, []string{"CoinGecko", "Binance"}, names(byCat["crypto"]))
	assert.Equal(t, []string{"GoldPrice", "Stooq"}, names(byCat["metals"]))
	assert.Equal(t, []string{"ExchangeRateHost", "Stooq"}, names(byCat["fx"]))
	assert.Equal(t, []string{"Finnhub", "Yahoo", "Stooq"}, names(byCat["movers"]))
	assert.Equal(t, cfg.Market.Movers.Universe, byCat["movers"].DefaultSymbols)
}

func ptr(f float64) *float64 { return &f }

func TestMoversSanitizerRanks(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Market.Movers.Count = 2
	chains, err := marketChains(cfg, nil)
	require.NoError(t, err)

	var movers usecase.Chain[models.QuoteSet]
	for _, c := range chains {
		if c.Category == "movers" {
			movers = c
		}
	}

	q := models.Query{Identity: models.Identity{Category: "movers", Key: "default", Symbols: []string{"A", "B", "C", "D"}}}
	raw := models.QuoteSet{Quotes: []models.Quote{
		{Ticker: "A", C: ptr(10), DP: ptr(1)},
		{Ticker: "B", C: ptr(10), DP: ptr(-5)},
		{Ticker: "C", C: ptr(10), DP: ptr(2)},
		{Ticker: "D", C: ptr(10)},
	}}

	out, n := movers.Sanitize(q, raw)
	require.Equal(t, 2, n)
	assert.Empty(t, out.Quotes)
	assert.Equal(t, "B", out.Movers[0].Ticker)
	assert.Equal(t, "C", out.Movers[1].Ticker)
}

func TestProvideFetchers(t *testing.T) {
	cfg := defaultConfig(t)
	rec := metrics.New(prometheus.NewRegistry())

	f, err := ProvideFetchers(cfg, cache.NewMemoryStore(), rec, internalrepo.NoopAuditPublisher{}, applogger.Nop(), ratelimit.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"crypto", "fx", "metals", "movers", "news", "stocks"}, f.Categories())

	// keyed providers without keys are skipped, not called
	ready := f.Market.Readiness()
	assert.NotEqual(t, "ready", ready["stocks"]["Finnhub"])
	assert.Equal(t, "ready", ready["stocks"]["Stooq"])

	_, err = f.Fetch(context.Background(), models.Identity{Category: "weather"})
	assert.ErrorIs(t, err, usecase.ErrBadRequest)
}
