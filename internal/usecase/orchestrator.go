package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"PulseDesk/internal/domain/models"
	drepo "PulseDesk/internal/domain/repository"
	"PulseDesk/pkg/cache"
	applogger "PulseDesk/pkg/logger"
	"PulseDesk/pkg/util"
)

// SourceCache tags results served from the cache store.
const SourceCache = "cache"

const (
	defaultProviderTimeout = 7 * time.Second
	defaultCacheTimeout    = 2 * time.Second
	defaultAdHocEntries    = 256
)

// Provider is one upstream adapter producing payloads of type T.
type Provider[T any] interface {
	Name() string
	// Ready returns drepo.ErrNotConfigured (wrapped) when a credential or endpoint is missing.
	Ready() error
	Fetch(ctx context.Context, q models.Query) (T, error)
}

// Chain is the declarative fallback configuration of one category.
type Chain[T any] struct {
	Category string
	// Keys is the whitelist of accepted keys. Empty accepts any key.
	Keys       []string
	DefaultKey string
	// DefaultSymbols are used when the request names no symbols.
	DefaultSymbols []string
	Providers      []Provider[T]
	// Sanitize normalizes a provider payload and returns the number of valid records.
	Sanitize func(q models.Query, v T) (T, int)
	// Cooldown is the freshness window; KeyCooldowns overrides it per key.
	Cooldown     time.Duration
	KeyCooldowns map[string]time.Duration
	// Limit is passed to providers as a page size hint.
	Limit int
}

func (c Chain[T]) cooldownFor(key string) time.Duration {
	if d, ok := c.KeyCooldowns[key]; ok {
		return d
	}
	return c.Cooldown
}

func (c Chain[T]) validate() error {
	switch {
	case c.Category == "":
		return errors.New("chain: empty category")
	case len(c.Providers) == 0:
		return fmt.Errorf("chain %s: no providers", c.Category)
	case c.Sanitize == nil:
		return fmt.Errorf("chain %s: no sanitizer", c.Category)
	case c.DefaultKey == "":
		return fmt.Errorf("chain %s: empty default key", c.Category)
	case len(c.Keys) > 0 && !slices.Contains(c.Keys, c.DefaultKey):
		return fmt.Errorf("chain %s: default key %q not in keys", c.Category, c.DefaultKey)
	}
	return nil
}

// Result is a served payload with its provenance.
type Result[T any] struct {
	Identity models.Identity
	Payload  T
	// Source is the provider name, or SourceCache.
	Source   string
	ETag     string
	StoredAt time.Time
	// Fresh is set when the cache was served inside the cooldown window.
	Fresh bool
	// Stale is set when the cache was served because every provider failed.
	Stale    bool
	Cooldown time.Duration
	Attempts []models.Attempt
}

// Options tunes an Orchestrator.
type Options struct {
	ProviderTimeout time.Duration
	CacheTimeout    time.Duration
	// AdHocEntries bounds the cache of free-form keys, e.g. user symbol lists.
	AdHocEntries int
	Now          func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Options)

// WithProviderTimeout bounds every provider call.
func WithProviderTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.ProviderTimeout = d
		}
	}
}

// WithCacheTimeout bounds cache writes, which run detached from the request.
func WithCacheTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.CacheTimeout = d
		}
	}
}

// WithAdHocEntries sets how many free-form keys are cached in process.
func WithAdHocEntries(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.AdHocEntries = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}

// Orchestrator runs the provider fallback chains of one payload type.
type Orchestrator[T any] struct {
	chains  map[string]Chain[T]
	store   cache.Store
	adhoc   *cache.MemoryStore
	metrics drepo.Metrics
	audit   drepo.AuditPublisher
	logger  *applogger.Logger
	opts    Options
}

// NewOrchestrator creates an orchestrator without chains.
func NewOrchestrator[T any](store cache.Store, metrics drepo.Metrics, audit drepo.AuditPublisher, l *applogger.Logger, opts ...Option) *Orchestrator[T] {
	o := Options{
		ProviderTimeout: defaultProviderTimeout,
		CacheTimeout:    defaultCacheTimeout,
		AdHocEntries:    defaultAdHocEntries,
		Now:             time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Orchestrator[T]{
		chains:  make(map[string]Chain[T]),
		store:   store,
		adhoc:   cache.NewMemoryStore(cache.WithMemoryMaxSize(o.AdHocEntries)),
		metrics: metrics,
		audit:   audit,
		logger:  l,
		opts:    o,
	}
}

// Register adds a chain. Registering a category twice replaces the chain.
func (o *Orchestrator[T]) Register(c Chain[T]) error {
	if err := c.validate(); err != nil {
		return err
	}
	o.chains[c.Category] = c
	return nil
}

// Categories lists the registered categories, sorted.
func (o *Orchestrator[T]) Categories() []string {
	out := make([]string, 0, len(o.chains))
	for k := range o.chains {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Readiness reports, per category and provider, "ready" or the precondition error.
func (o *Orchestrator[T]) Readiness() map[string]map[string]string {
	out := make(map[string]map[string]string, len(o.chains))
	for cat, c := range o.chains {
		m := make(map[string]string, len(c.Providers))
		for _, p := range c.Providers {
			if err := p.Ready(); err != nil {
				m[p.Name()] = err.Error()
			} else {
				m[p.Name()] = "ready"
			}
		}
		out[cat] = m
	}
	return out
}

// Fetch resolves id through its category chain: fresh cache, then providers
// in order, then stale cache. It fails only for an unknown identity
// (ErrBadRequest) or when nothing is available (*ExhaustedError).
func (o *Orchestrator[T]) Fetch(ctx context.Context, id models.Identity) (*Result[T], error) {
	start := time.Now()

	chain, id, err := o.resolve(id)
	if err != nil {
		return nil, err
	}

	log := o.logger.With(applogger.String("category", id.Category), applogger.String("key", id.Key))
	key := id.CacheKey()
	cooldown := chain.cooldownFor(id.Key)
	store := o.storeFor(chain, id)

	entry, cached, readErr := o.readCache(ctx, store, key, log)

	if cached != nil && cooldown > 0 && entry.Age(o.opts.Now()) < cooldown {
		res := o.cacheResult(id, entry, *cached, cooldown)
		res.Fresh = true
		log.Debug("serving cache inside cooldown", applogger.Duration("age_ms", entry.Age(o.opts.Now())))
		o.finish(ctx, res, models.OutcomeFresh, start)
		return res, nil
	}

	q := models.Query{Identity: id, Limit: chain.Limit}
	attempts := make([]models.Attempt, 0, len(chain.Providers))

	for _, p := range chain.Providers {
		if ctx.Err() != nil {
			log.Warn("request ended, abandoning provider chain", applogger.Error(ctx.Err()))
			break
		}

		if err := p.Ready(); err != nil {
			attempts = append(attempts, models.Attempt{Provider: p.Name(), Kind: models.KindConfig, Message: err.Error()})
			o.metrics.RecordAttempt(id.Category, p.Name(), "skipped", 0)
			log.Debug("provider skipped", applogger.String("provider", p.Name()), applogger.Error(err))
			continue
		}

		payload, att := o.try(ctx, chain, p, q)
		attempts = append(attempts, att)
		if !att.OK() {
			log.Warn("provider failed",
				applogger.String("provider", att.Provider),
				applogger.String("kind", att.Kind),
				applogger.Int("status", att.Status),
				applogger.String("message", att.Message),
				applogger.Int64("duration_ms", att.DurationMS),
			)
			continue
		}

		res := &Result[T]{
			Identity: id,
			Payload:  payload,
			Source:   p.Name(),
			StoredAt: o.opts.Now().UTC(),
			Cooldown: cooldown,
			Attempts: attempts,
		}
		res.ETag = o.writeCache(ctx, store, key, res, log)
		log.Info("provider succeeded",
			applogger.String("provider", p.Name()),
			applogger.Int("records", att.Records),
			applogger.Int("attempts", len(attempts)),
		)
		o.finish(ctx, res, models.OutcomeProvider, start)
		return res, nil
	}

	if cached == nil && readErr != nil {
		// the first read failed for a reason other than a miss; try once more
		entry, cached, _ = o.readCache(ctx, store, key, log)
	}
	if cached != nil {
		res := o.cacheResult(id, entry, *cached, cooldown)
		res.Stale = true
		res.Attempts = attempts
		log.Warn("all providers failed, serving stale cache",
			applogger.Duration("age_ms", entry.Age(o.opts.Now())),
			applogger.String("cached_source", entry.Source),
		)
		o.finish(ctx, res, models.OutcomeStale, start)
		return res, nil
	}

	exhausted := &ExhaustedError{Identity: id, Attempts: attempts}
	log.Error("all providers failed and nothing cached", applogger.Error(exhausted))
	o.metrics.RecordExhausted(id.Category)
	o.publish(ctx, &models.FetchEvent{
		Category:   id.Category,
		Key:        id.Key,
		Outcome:    models.OutcomeExhausted,
		Attempts:   attempts,
		DurationMS: time.Since(start).Milliseconds(),
	})
	return nil, exhausted
}

// resolve canonicalizes id and checks it against the category chain.
func (o *Orchestrator[T]) resolve(id models.Identity) (Chain[T], models.Identity, error) {
	id = id.Canonical()
	chain, ok := o.chains[id.Category]
	if !ok {
		return chain, id, fmt.Errorf("%w %q", ErrUnknownCategory, id.Category)
	}

	if id.Key == "" {
		id.Key = chain.DefaultKey
	}
	if len(chain.Keys) > 0 {
		if !slices.Contains(chain.Keys, id.Key) {
			return chain, id, fmt.Errorf("%w %q for %s (expected one of %s)", ErrUnknownKey, id.Key, id.Category, strings.Join(chain.Keys, ", "))
		}
		return chain, id, nil
	}

	if len(id.Symbols) == 0 && id.Key != chain.DefaultKey {
		// free-form keys name their symbols, e.g. "aapl,msft"
		id.Symbols = util.SplitList(id.Key)
		id = id.Canonical()
	}
	if len(id.Symbols) == 0 {
		id.Key = chain.DefaultKey
		id.Symbols = slices.Clone(chain.DefaultSymbols)
	}
	return chain, id, nil
}

// storeFor keeps free-form keys out of the shared store. Their key space is
// unbounded, so they live in a bounded in-process cache and can never push
// out the default or whitelisted entries.
func (o *Orchestrator[T]) storeFor(chain Chain[T], id models.Identity) cache.Store {
	if len(chain.Keys) == 0 && id.Key != chain.DefaultKey {
		return o.adhoc
	}
	return o.store
}

func (o *Orchestrator[T]) try(ctx context.Context, chain Chain[T], p Provider[T], q models.Query) (T, models.Attempt) {
	pctx, cancel := context.WithTimeout(ctx, o.opts.ProviderTimeout)
	defer cancel()

	started := time.Now()
	raw, err := p.Fetch(pctx, q)
	att := models.Attempt{Provider: p.Name(), DurationMS: time.Since(started).Milliseconds()}

	var zero T
	if err != nil {
		att.Kind, att.Status = classify(ctx, err)
		att.Message = truncate(err.Error())
		o.metrics.RecordAttempt(chain.Category, p.Name(), att.Kind, time.Since(started).Seconds())
		return zero, att
	}

	clean, n := chain.Sanitize(q, raw)
	if n == 0 {
		att.Kind = models.KindEmpty
		att.Message = "no valid records"
		o.metrics.RecordAttempt(chain.Category, p.Name(), att.Kind, time.Since(started).Seconds())
		return zero, att
	}

	att.Records = n
	o.metrics.RecordAttempt(chain.Category, p.Name(), "ok", time.Since(started).Seconds())
	return clean, att
}

// readCache returns the entry and its decoded payload. A miss returns all nils.
func (o *Orchestrator[T]) readCache(ctx context.Context, store cache.Store, key string, log *applogger.Logger) (*cache.Entry, *T, error) {
	entry, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		o.metrics.RecordCache("get", "miss")
		return nil, nil, nil
	case err != nil:
		o.metrics.RecordCache("get", "error")
		log.Warn("cache read failed", applogger.Error(err))
		return nil, nil, err
	}

	var payload T
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		o.metrics.RecordCache("get", "corrupt")
		log.Warn("cache entry undecodable, ignoring", applogger.Error(err))
		return nil, nil, nil
	}
	o.metrics.RecordCache("get", "hit")
	return entry, &payload, nil
}

// writeCache stores the result and returns its ETag. Failures are logged only.
func (o *Orchestrator[T]) writeCache(ctx context.Context, store cache.Store, key string, res *Result[T], log *applogger.Logger) string {
	data, err := json.Marshal(res.Payload)
	if err != nil {
		log.Error("encode payload for cache", applogger.Error(err))
		return ""
	}
	etag := cache.ETagFor(data)

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.CacheTimeout)
	defer cancel()

	err = store.Set(wctx, key, &cache.Entry{
		Payload:  data,
		Source:   res.Source,
		StoredAt: res.StoredAt,
		ETag:     etag,
	})
	if err != nil {
		o.metrics.RecordCache("set", "error")
		log.Warn("cache write failed", applogger.Error(err))
		return etag
	}
	o.metrics.RecordCache("set", "ok")
	return etag
}

func (o *Orchestrator[T]) cacheResult(id models.Identity, entry *cache.Entry, payload T, cooldown time.Duration) *Result[T] {
	etag := entry.ETag
	if etag == "" {
		etag = cache.ETagFor(entry.Payload)
	}
	return &Result[T]{
		Identity: id,
		Payload:  payload,
		Source:   SourceCache,
		ETag:     etag,
		StoredAt: entry.StoredAt,
		Cooldown: cooldown,
	}
}

func (o *Orchestrator[T]) finish(ctx context.Context, res *Result[T], outcome string, start time.Time) {
	o.metrics.RecordServed(res.Identity.Category, res.Source)

	records := 0
	if l, ok := any(res.Payload).(interface{ Len() int }); ok {
		records = l.Len()
	}
	o.publish(ctx, &models.FetchEvent{
		Category:   res.Identity.Category,
		Key:        res.Identity.Key,
		Outcome:    outcome,
		Source:     res.Source,
		Records:    records,
		Attempts:   res.Attempts,
		DurationMS: time.Since(start).Milliseconds(),
	})
}

func (o *Orchestrator[T]) publish(ctx context.Context, ev *models.FetchEvent) {
	if o.audit == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.At = o.opts.Now().UTC()

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.CacheTimeout)
	defer cancel()
	if err := o.audit.Publish(pctx, ev); err != nil {
		o.logger.Warn("audit publish failed",
			applogger.String("category", ev.Category),
			applogger.Error(err),
		)
	}
}
