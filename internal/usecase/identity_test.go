package usecase

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PulseDesk/internal/domain/models"
	"PulseDesk/pkg/cache"
	pkghttp "PulseDesk/pkg/http"
	applogger "PulseDesk/pkg/logger"
	"PulseDesk/pkg/metrics"
)

type symbolEcho struct{ seen []models.Query }

func (p *symbolEcho) Name() string { return "Echo" }
func (p *symbolEcho) Ready() error { return nil }

func (p *symbolEcho) Fetch(_ context.Context, q models.Query) (models.QuoteSet, error) {
	p.seen = append(p.seen, q)
	var set models.QuoteSet
	for _, s := range q.Symbols {
		c := 1.0
		set.Quotes = append(set.Quotes, models.Quote{Ticker: s, Name: s, C: &c})
	}
	return set, nil
}

func TestResolveSymbols(t *testing.T) {
	p := &symbolEcho{}
	o := NewOrchestrator[models.QuoteSet](cache.NewMemoryStore(), metrics.New(prometheus.NewRegistry()), nil, applogger.Nop())
	require.NoError(t, o.Register(Chain[models.QuoteSet]{
		Category:       "stocks",
		DefaultKey:     "default",
		DefaultSymbols: []string{"SPY", "QQQ"},
		Providers:      []Provider[models.QuoteSet]{p},
		Sanitize:       func(_ models.Query, v models.QuoteSet) (models.QuoteSet, int) { return v, v.Len() },
	}))

	ctx := context.Background()

	res, err := o.Fetch(ctx, models.Identity{Category: "stocks"})
	require.NoError(t, err)
	assert.Equal(t, "default", res.Identity.Key)
	assert.Equal(t, []string{"SPY", "QQQ"}, p.seen[0].Symbols)

	res, err = o.Fetch(ctx, models.Identity{Category: "stocks", Symbols: []string{"msft", "AAPL", "msft"}})
	require.NoError(t, err)
	assert.Equal(t, "aapl,msft", res.Identity.Key)
	assert.Equal(t, []string{"AAPL", "MSFT"}, p.seen[1].Symbols)

	res, err = o.Fetch(ctx, models.Identity{Category: "stocks", Key: "MSFT,aapl"})
	require.NoError(t, err)
	assert.Equal(t, "aapl,msft", res.Identity.Key)
	assert.Equal(t, "v1:stocks:aapl,msft", res.Identity.CacheKey())
}

type switchableQuotes struct{ err error }

func (p *switchableQuotes) Name() string { return "Quotes" }
func (p *switchableQuotes) Ready() error { return nil }

func (p *switchableQuotes) Fetch(_ context.Context, q models.Query) (models.QuoteSet, error) {
	if p.err != nil {
		return models.QuoteSet{}, p.err
	}
	var set models.QuoteSet
	for _, s := range q.Symbols {
		c := 2.0
		set.Quotes = append(set.Quotes, models.Quote{Ticker: s, Name: s, C: &c})
	}
	return set, nil
}

func TestAdHocSymbolsCannotPushOutDefault(t *testing.T) {
	store := cache.NewMemoryStore()
	p := &switchableQuotes{}
	o := NewOrchestrator[models.QuoteSet](store, metrics.New(prometheus.NewRegistry()), nil, applogger.Nop(),
		WithAdHocEntries(8),
	)
	require.NoError(t, o.Register(Chain[models.QuoteSet]{
		Category:       "stocks",
		DefaultKey:     "default",
		DefaultSymbols: []string{"SPY"},
		Providers:      []Provider[models.QuoteSet]{p},
		Sanitize:       func(_ models.Query, v models.QuoteSet) (models.QuoteSet, int) { return v, v.Len() },
	}))

	ctx := context.Background()
	_, err := o.Fetch(ctx, models.Identity{Category: "stocks"})
	require.NoError(t, err)

	for i := 0; i < 300; i++ {
		_, err := o.Fetch(ctx, models.Identity{Category: "stocks", Symbols: []string{fmt.Sprintf("X%d", i)}})
		require.NoError(t, err)
	}
	// ad-hoc lists never reach the shared store
	assert.Equal(t, 1, store.Len())

	p.err = &pkghttp.UpstreamError{Status: http.StatusServiceUnavailable}

	res, err := o.Fetch(ctx, models.Identity{Category: "stocks"})
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Equal(t, SourceCache, res.Source)
	assert.Equal(t, "SPY", res.Payload.Quotes[0].Ticker)

	// the most recent ad-hoc list is still served stale, the oldest is gone
	res, err = o.Fetch(ctx, models.Identity{Category: "stocks", Symbols: []string{"X299"}})
	require.NoError(t, err)
	assert.True(t, res.Stale)

	_, err = o.Fetch(ctx, models.Identity{Category: "stocks", Symbols: []string{"X0"}})
	assert.True(t, IsExhausted(err))
}
