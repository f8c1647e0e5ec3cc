// Package api serves the dashboard's backend-for-frontend endpoints.
package api

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"PulseDesk/internal/domain/models"
	"PulseDesk/internal/usecase"
	"PulseDesk/pkg/cache"
	xhttp "PulseDesk/pkg/http"
	xlogger "PulseDesk/pkg/logger"
)

// Market categories served by the quote fetcher.
const (
	CategoryNews   = "news"
	CategoryMovers = "movers"
)

// DefaultMiniGroups are fetched concurrently by GET /api/mini.
var DefaultMiniGroups = []string{"crypto", "metals", "fx"}

// Fetcher runs an orchestrated fetch for one payload type.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, id models.Identity) (*usecase.Result[T], error)
	Readiness() map[string]map[string]string
}

// DashboardHandler serves news, market, movers, mini and health.
type DashboardHandler struct {
	logger         *xlogger.Logger
	news           Fetcher[models.ArticleSet]
	market         Fetcher[models.QuoteSet]
	requestTimeout time.Duration
	miniGroups     []string
}

func NewDashboardHandler(logger *xlogger.Logger, news Fetcher[models.ArticleSet], market Fetcher[models.QuoteSet], requestTimeout time.Duration) *DashboardHandler {
	return &DashboardHandler{
		logger:         logger,
		news:           news,
		market:         market,
		requestTimeout: requestTimeout,
		miniGroups:     DefaultMiniGroups,
	}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/news", h.News)
	g.GET("/market", h.Market)
	g.GET("/movers", h.Movers)
	g.GET("/mini", h.Mini)
	g.GET("/health", h.Health)
}

func (h *DashboardHandler) context(c echo.Context) (context.Context, context.CancelFunc) {
	if h.requestTimeout <= 0 {
		return context.WithCancel(c.Request().Context())
	}
	return context.WithTimeout(c.Request().Context(), h.requestTimeout)
}

func (h *DashboardHandler) News(c echo.Context) error {
	req := &models.NewsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.AppErrorResponse(c, verr)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	res, err := h.news.Fetch(ctx, models.Identity{Category: CategoryNews, Key: req.Section})
	if err != nil {
		return h.fetchError(c, err)
	}
	if notModified(c, res.ETag, res.Fresh, res.Stale, res.Cooldown) {
		return xhttp.NotModifiedResponse(c)
	}

	body := NewsResponse{
		Status:    xhttp.StatusOK,
		Section:   res.Identity.Key,
		Articles:  res.Payload.Articles,
		Source:    res.Source,
		UpdatedAt: res.StoredAt,
		Stale:     res.Stale,
	}
	if body.Articles == nil {
		body.Articles = []models.Article{}
	}
	if req.Debug {
		body.Attempts = res.Attempts
	}
	return xhttp.OKResponse(c, body)
}

func (h *DashboardHandler) Market(c echo.Context) error {
	req := &models.MarketRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.AppErrorResponse(c, verr)
	}
	return h.quotes(c, models.Identity{Category: req.Group, Symbols: req.List}, req.Debug)
}

func (h *DashboardHandler) Movers(c echo.Context) error {
	req := &models.MoversRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.AppErrorResponse(c, verr)
	}
	return h.quotes(c, models.Identity{Category: CategoryMovers}, req.Debug)
}

func (h *DashboardHandler) quotes(c echo.Context, id models.Identity, debug bool) error {
	ctx, cancel := h.context(c)
	defer cancel()

	res, err := h.market.Fetch(ctx, id)
	if err != nil {
		return h.fetchError(c, err)
	}
	if notModified(c, res.ETag, res.Fresh, res.Stale, res.Cooldown) {
		return xhttp.NotModifiedResponse(c)
	}

	body := QuotesResponse{
		Status:    xhttp.StatusOK,
		Group:     res.Identity.Category,
		Data:      res.Payload,
		Source:    res.Source,
		UpdatedAt: res.StoredAt,
		Stale:     res.Stale,
	}
	if debug {
		body.Attempts = res.Attempts
	}
	return xhttp.OKResponse(c, body)
}

// Mini fetches the mini strip groups concurrently. It fails only when every
// group is unavailable.
func (h *DashboardHandler) Mini(c echo.Context) error {
	req := &models.MiniRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.AppErrorResponse(c, verr)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]*usecase.Result[models.QuoteSet], len(h.miniGroups))
		errs    = make(map[string]error)
	)
	var g errgroup.Group
	for _, group := range h.miniGroups {
		g.Go(func() error {
			res, err := h.market.Fetch(ctx, models.Identity{Category: group})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[group] = err
				return nil
			}
			results[group] = res
			return nil
		})
	}
	_ = g.Wait()

	if len(results) == 0 {
		h.logger.Error("mini: every group failed", xlogger.Int("groups", len(h.miniGroups)))
		for _, group := range h.miniGroups {
			if err := errs[group]; err != nil && !usecase.IsExhausted(err) {
				return h.fetchError(c, err)
			}
		}
		return xhttp.AppErrorResponse(c, xhttp.BadGatewayError("no market data available"))
	}

	body := MiniResponse{Status: xhttp.StatusOK, Data: make(map[string]*MiniGroup, len(results))}
	fresh := len(errs) == 0
	// partial answers are not worth keeping either
	stale := len(errs) > 0
	etags := make([]string, 0, len(results))
	var cooldown time.Duration
	for _, group := range h.miniGroups {
		if err, ok := errs[group]; ok {
			if body.Errors == nil {
				body.Errors = make(map[string]string)
			}
			body.Errors[group] = err.Error()
			continue
		}
		res := results[group]
		fresh = fresh && res.Fresh
		stale = stale || res.Stale
		etags = append(etags, res.ETag)
		if cooldown == 0 || (res.Cooldown > 0 && res.Cooldown < cooldown) {
			cooldown = res.Cooldown
		}
		mg := &MiniGroup{
			Quotes:    res.Payload.Quotes,
			Source:    res.Source,
			UpdatedAt: res.StoredAt,
			Stale:     res.Stale,
		}
		if req.Debug {
			mg.Attempts = res.Attempts
		}
		body.Data[group] = mg
	}

	if notModified(c, cache.ETagFor([]byte(strings.Join(etags, ","))), fresh, stale, cooldown) {
		return xhttp.NotModifiedResponse(c)
	}
	return xhttp.OKResponse(c, body)
}

func (h *DashboardHandler) Health(c echo.Context) error {
	providers := h.news.Readiness()
	for cat, m := range h.market.Readiness() {
		providers[cat] = m
	}

	status := xhttp.StatusOK
	cats := make([]string, 0, len(providers))
	for cat := range providers {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		if !anyReady(providers[cat]) {
			status = "degraded"
			h.logger.Warn("no ready provider", xlogger.String("category", cat))
		}
	}
	return xhttp.OKResponse(c, HealthResponse{Status: status, Providers: providers})
}

func anyReady(m map[string]string) bool {
	for _, s := range m {
		if s == "ready" {
			return true
		}
	}
	return false
}

func (h *DashboardHandler) fetchError(c echo.Context, err error) error {
	var exhausted *usecase.ExhaustedError
	switch {
	case errors.Is(err, usecase.ErrBadRequest):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()).WithError(err))
	case errors.As(err, &exhausted):
		return xhttp.AppErrorResponse(c, xhttp.BadGatewayError("no data available for "+exhausted.Identity.String()).WithError(err))
	default:
		h.logger.Error("fetch failed", xlogger.String("path", c.Path()), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("internal server error").WithError(err))
	}
}

// notModified sets the cache headers and reports whether the request's
// If-None-Match matches a payload served fresh from cache.
func notModified(c echo.Context, etag string, fresh, stale bool, cooldown time.Duration) bool {
	if stale {
		// a fallback must not outlive the upstream outage in browser caches
		cooldown = 0
	}
	xhttp.SetCacheHeaders(c, etag, cooldown)
	if !fresh || etag == "" {
		return false
	}
	return cache.MatchETag(c.Request().Header.Get(xhttp.HeaderIfNoneMatch), etag)
}
