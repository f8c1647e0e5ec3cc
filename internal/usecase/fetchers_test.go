package usecase

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PulseDesk/internal/domain/models"
	"PulseDesk/pkg/cache"
	applogger "PulseDesk/pkg/logger"
	"PulseDesk/pkg/metrics"
)

func TestFetchersRouteByCategory(t *testing.T) {
	store := cache.NewMemoryStore()
	news := newHarness(t, store, 0, &fakeProvider{name: "NewsAPI", articles: articles("wire", 3)})

	echo := &symbolEcho{}
	market := NewOrchestrator[models.QuoteSet](store, metrics.New(prometheus.NewRegistry()), nil, applogger.Nop())
	require.NoError(t, market.Register(Chain[models.QuoteSet]{
		Category:       "crypto",
		DefaultKey:     "default",
		DefaultSymbols: []string{"BTC"},
		Providers:      []Provider[models.QuoteSet]{echo},
		Sanitize:       func(_ models.Query, v models.QuoteSet) (models.QuoteSet, int) { return v, v.Len() },
	}))

	f := &Fetchers{News: news.orch, Market: market}
	assert.Equal(t, []string{"crypto", "news"}, f.Categories())

	ctx := context.Background()

	got, err := f.Fetch(ctx, models.Identity{Category: "NEWS"})
	require.NoError(t, err)
	articlesRes, ok := got.(*Result[models.ArticleSet])
	require.True(t, ok)
	assert.Len(t, articlesRes.Payload.Articles, 3)

	got, err = f.Fetch(ctx, models.Identity{Category: "crypto"})
	require.NoError(t, err)
	quotesRes, ok := got.(*Result[models.QuoteSet])
	require.True(t, ok)
	assert.Equal(t, "BTC", quotesRes.Payload.Quotes[0].Ticker)

	got, err = f.Fetch(ctx, models.Identity{Category: "weather"})
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.ErrorIs(t, err, ErrBadRequest)
	assert.Nil(t, got)
}
