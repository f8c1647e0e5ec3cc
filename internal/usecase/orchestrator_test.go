package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"PulseDesk/internal/domain/models"
	drepo "PulseDesk/internal/domain/repository"
	"PulseDesk/internal/normalize"
	"PulseDesk/pkg/cache"
	"PulseDesk/pkg/cache/mocks"
	pkghttp "PulseDesk/pkg/http"
	applogger "PulseDesk/pkg/logger"
	"PulseDesk/pkg/metrics"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeProvider struct {
	name     string
	ready    error
	articles []models.Article
	err      error
	delay    time.Duration
	calls    atomic.Int32
}

func (p *fakeProvider) Name() string { return p.name }
func (p *fakeProvider) Ready() error { return p.ready }

func (p *fakeProvider) Fetch(ctx context.Context, q models.Query) (models.ArticleSet, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return models.ArticleSet{}, ctx.Err()
		}
	}
	if p.err != nil {
		return models.ArticleSet{}, p.err
	}
	return models.ArticleSet{Articles: p.articles}, nil
}

type recordingAudit struct {
	events []*models.FetchEvent
}

func (a *recordingAudit) Publish(_ context.Context, ev *models.FetchEvent) error {
	a.events = append(a.events, ev)
	return nil
}

func (a *recordingAudit) Close() error { return nil }

func articles(prefix string, n int) []models.Article {
	out := make([]models.Article, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Article{
			Title:       fmt.Sprintf("%s %d", prefix, i),
			URL:         fmt.Sprintf("https://%s.example/%d", prefix, i),
			PublishedAt: testNow.Add(-time.Duration(i) * time.Minute),
			Source:      prefix,
		})
	}
	return out
}

func sanitizeArticles(_ models.Query, v models.ArticleSet) (models.ArticleSet, int) {
	v.Articles = normalize.SanitizeArticles(v.Articles, 20)
	return v, len(v.Articles)
}

type harness struct {
	orch  *Orchestrator[models.ArticleSet]
	store cache.Store
	audit *recordingAudit
}

func newHarness(t *testing.T, store cache.Store, cooldown time.Duration, providers ...Provider[models.ArticleSet]) *harness {
	t.Helper()
	audit := &recordingAudit{}
	o := NewOrchestrator[models.ArticleSet](store, metrics.New(prometheus.NewRegistry()), audit, applogger.Nop(),
		WithProviderTimeout(50*time.Millisecond),
		WithClock(func() time.Time { return testNow }),
	)
	require.NoError(t, o.Register(Chain[models.ArticleSet]{
		Category:     "news",
		Keys:         []string{"frontpage", "world", "finance"},
		DefaultKey:   "frontpage",
		Providers:    providers,
		Sanitize:     sanitizeArticles,
		KeyCooldowns: map[string]time.Duration{"frontpage": cooldown},
	}))
	return &harness{orch: o, store: store, audit: audit}
}

func seed(t *testing.T, store cache.Store, key string, set models.ArticleSet, age time.Duration) *cache.Entry {
	t.Helper()
	data, err := json.Marshal(set)
	require.NoError(t, err)
	e := &cache.Entry{Payload: data, Source: "NewsAPI", StoredAt: testNow.Add(-age), ETag: cache.ETagFor(data)}
	require.NoError(t, store.Set(context.Background(), key, e))
	return e
}

func TestFetchFallbackOrder(t *testing.T) {
	a := &fakeProvider{name: "A", err: &pkghttp.UpstreamError{Status: http.StatusInternalServerError}}
	b := &fakeProvider{name: "B", err: fmt.Errorf("wrap: %w", pkghttp.ErrDecode)}
	c := &fakeProvider{name: "C", articles: articles("c", 2)}
	h := newHarness(t, cache.NewMemoryStore(), 0, a, b, c)

	res, err := h.orch.Fetch(context.Background(), models.Identity{Category: "news", Key: "world"})
	require.NoError(t, err)
	assert.Equal(t, "C", res.Source)
	for _, art := range res.Payload.Articles {
		assert.Equal(t, "c", art.Source)
	}
	require.Len(t, res.Attempts, 3)
	assert.Equal(t, models.KindHTTP, res.Attempts[0].Kind)
	assert.Equal(t, http.StatusInternalServerError, res.Attempts[0].Status)
	assert.Equal(t, models.KindDecode, res.Attempts[1].Kind)
	assert.True(t, res.Attempts[2].OK())
	assert.Equal(t, 2, res.Attempts[2].Records)
	assert.NotEmpty(t, res.ETag)
}

func TestFetchServesStaleCacheWhenAllFail(t *testing.T) {
	store := cache.NewMemoryStore()
	cached := models.ArticleSet{Articles: articles("old", 2)}
	e := seed(t, store, "v1:news:world", cached, 48*time.Hour)

	h := newHarness(t, store, 0,
		&fakeProvider{name: "A", err: errors.New("dial tcp: connection refused")},
		&fakeProvider{name: "B", err: &pkghttp.UpstreamError{Status: 503}},
	)

	res, err := h.orch.Fetch(context.Background(), models.Identity{Category: "news", Key: "world"})
	require.NoError(t, err)
	assert.Equal(t, SourceCache, res.Source)
	assert.True(t, res.Stale)
	assert.False(t, res.Fresh)
	assert.Equal(t, e.ETag, res.ETag)
	assert.Equal(t, cached.Articles[0].Title, res.Payload.Articles[0].Title)
	assert.Len(t, res.Payload.Articles, 2)
	assert.Equal(t, models.KindNetwork, res.Attempts[0].Kind)

	require.Len(t, h.audit.events, 1)
	assert.Equal(t, models.OutcomeStale, h.audit.events[0].Outcome)
}

func TestFetchExhausted(t *testing.T) {
	h := newHarness(t, cache.NewMemoryStore(), 0,
		&fakeProvider{name: "A", err: errors.New("boom")},
		&fakeProvider{name: "B", articles: nil},
	)

	res, err := h.orch.Fetch(context.Background(), models.Identity{Category: "news", Key: "world"})
	require.Nil(t, res)
	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.True(t, IsExhausted(err))
	require.Len(t, ex.Attempts, 2)
	assert.Equal(t, models.KindEmpty, ex.Attempts[1].Kind)

	require.Len(t, h.audit.events, 1)
	assert.Equal(t, models.OutcomeExhausted, h.audit.events[0].Outcome)
	assert.NotEmpty(t, h.audit.events[0].ID)
}

func TestFetchFinanceScenario(t *testing.T) {
	store := cache.NewMemoryStore()
	newsapi := &fakeProvider{name: "NewsAPI", err: &pkghttp.UpstreamError{Provider: "NewsAPI", Status: http.StatusTooManyRequests}}
	gnews := &fakeProvider{name: "GNews", articles: articles("g", 3)}
	h := newHarness(t, store, 0, newsapi, gnews)

	res, err := h.orch.Fetch(context.Background(), models.Identity{Category: "News", Key: " Finance "})
	require.NoError(t, err)
	assert.Equal(t, "GNews", res.Source)
	assert.Len(t, res.Payload.Articles, 3)
	assert.Equal(t, http.StatusTooManyRequests, res.Attempts[0].Status)

	entry, err := store.Get(context.Background(), "v1:news:finance")
	require.NoError(t, err)
	assert.Equal(t, "GNews", entry.Source)
	assert.Equal(t, res.ETag, entry.ETag)
	var stored models.ArticleSet
	require.NoError(t, json.Unmarshal(entry.Payload, &stored))
	assert.Len(t, stored.Articles, 3)
}

func TestFetchCooldownSkipsProviders(t *testing.T) {
	store := cache.NewMemoryStore()
	e := seed(t, store, "v1:news:frontpage", models.ArticleSet{Articles: articles("cached", 2)}, 2*time.Minute)
	p := &fakeProvider{name: "NewsAPI", articles: articles("live", 5)}
	h := newHarness(t, store, 5*time.Minute, p)

	res, err := h.orch.Fetch(context.Background(), models.Identity{Category: "news"})
	require.NoError(t, err)
	assert.Equal(t, int32(0), p.calls.Load())
	assert.Equal(t, SourceCache, res.Source)
	assert.True(t, res.Fresh)
	assert.Equal(t, e.ETag, res.ETag)
	assert.Equal(t, 5*time.Minute, res.Cooldown)
	assert.Equal(t, "frontpage", res.Identity.Key)
}

func TestFetchCooldownExpiredRefreshes(t *testing.T) {
	store := cache.NewMemoryStore()
	seed(t, store, "v1:news:frontpage", models.ArticleSet{Articles: articles("cached", 2)}, 10*time.Minute)
	p := &fakeProvider{name: "NewsAPI", articles: articles("live", 5)}
	h := newHarness(t, store, 5*time.Minute, p)

	res, err := h.orch.Fetch(context.Background(), models.Identity{Category: "news", Key: "frontpage"})
	require.NoError(t, err)
	assert.Equal(t, "NewsAPI", res.Source)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestFetchSkipsUnconfiguredProviders(t *testing.T) {
	unconfigured := &fakeProvider{name: "GNews", ready: fmt.Errorf("%w: GNEWS_API_KEY", drepo.ErrNotConfigured)}
	rss := &fakeProvider{name: "RSS", articles: articles("rss", 1)}
	h := newHarness(t, cache.NewMemoryStore(), 0, unconfigured, rss)

	res, err := h.orch.Fetch(context.Background(), models.Identity{Category: "news", Key: "world"})
	require.NoError(t, err)
	assert.Equal(t, int32(0), unconfigured.calls.Load())
	assert.Equal(t, "RSS", res.Source)
	assert.Equal(t, models.KindConfig, res.Attempts[0].Kind)
}

func TestFetchProviderTimeout(t *testing.T) {
	slow := &fakeProvider{name: "Slow", delay: time.Second, articles: articles("s", 1)}
	fast := &fakeProvider{name: "Fast", articles: articles("f", 1)}
	h := newHarness(t, cache.NewMemoryStore(), 0, slow, fast)

	res, err := h.orch.Fetch(context.Background(), models.Identity{Category: "news", Key: "world"})
	require.NoError(t, err)
	assert.Equal(t, "Fast", res.Source)
	assert.Equal(t, models.KindTimeout, res.Attempts[0].Kind)
}

func TestFetchCanceledRequestFallsBackToCache(t *testing.T) {
	store := cache.NewMemoryStore()
	seed(t, store, "v1:news:world", models.ArticleSet{Articles: articles("old", 1)}, time.Hour)
	p := &fakeProvider{name: "A", articles: articles("a", 1)}
	h := newHarness(t, store, 0, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := h.orch.Fetch(ctx, models.Identity{Category: "news", Key: "world"})
	require.NoError(t, err)
	assert.Equal(t, SourceCache, res.Source)
	assert.Equal(t, int32(0), p.calls.Load())
}

func TestFetchBadRequest(t *testing.T) {
	p := &fakeProvider{name: "A", articles: articles("a", 1)}
	h := newHarness(t, cache.NewMemoryStore(), 0, p)

	_, err := h.orch.Fetch(context.Background(), models.Identity{Category: "sports"})
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = h.orch.Fetch(context.Background(), models.Identity{Category: "news", Key: "gossip"})
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.ErrorIs(t, err, ErrBadRequest)

	assert.Equal(t, int32(0), p.calls.Load())
}

func TestFetchCacheWriteFailureIsIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Get(gomock.Any(), "v1:news:world").Return(nil, cache.ErrCacheMiss)
	store.EXPECT().Set(gomock.Any(), "v1:news:world", gomock.Any()).Return(errors.New("disk full"))

	h := newHarness(t, store, 0, &fakeProvider{name: "A", articles: articles("a", 2)})
	res, err := h.orch.Fetch(context.Background(), models.Identity{Category: "news", Key: "world"})
	require.NoError(t, err)
	assert.Equal(t, "A", res.Source)
	assert.NotEmpty(t, res.ETag)
}

func TestFetchCacheReadErrorStillFetches(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Get(gomock.Any(), "v1:news:world").Return(nil, errors.New("redis timeout")).Times(2)

	h := newHarness(t, store, 0, &fakeProvider{name: "A", err: errors.New("down")})
	_, err := h.orch.Fetch(context.Background(), models.Identity{Category: "news", Key: "world"})
	assert.True(t, IsExhausted(err))
}

func TestRegisterValidatesChain(t *testing.T) {
	o := NewOrchestrator[models.ArticleSet](cache.NewMemoryStore(), metrics.New(prometheus.NewRegistry()), nil, applogger.Nop())
	assert.Error(t, o.Register(Chain[models.ArticleSet]{Category: "news"}))
	assert.Error(t, o.Register(Chain[models.ArticleSet]{
		Category:   "news",
		Keys:       []string{"world"},
		DefaultKey: "frontpage",
		Providers:  []Provider[models.ArticleSet]{&fakeProvider{name: "A"}},
		Sanitize:   sanitizeArticles,
	}))
}

func TestReadiness(t *testing.T) {
	h := newHarness(t, cache.NewMemoryStore(), 0,
		&fakeProvider{name: "A"},
		&fakeProvider{name: "B", ready: drepo.ErrNotConfigured},
	)
	r := h.orch.Readiness()
	assert.Equal(t, "ready", r["news"]["A"])
	assert.Equal(t, drepo.ErrNotConfigured.Error(), r["news"]["B"])
	assert.Equal(t, []string{"news"}, h.orch.Categories())
}
