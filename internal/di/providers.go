package di

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"PulseDesk/internal/domain/models"
	"PulseDesk/internal/domain/repository"
	"PulseDesk/internal/handler/api"
	internalrepo "PulseDesk/internal/repository"
	"PulseDesk/internal/service/ratelimit"
	"PulseDesk/internal/usecase"
	"PulseDesk/pkg/cache"
	"PulseDesk/pkg/config"
	xhttp "PulseDesk/pkg/http"
	pkgkafka "PulseDesk/pkg/kafka"
	applogger "PulseDesk/pkg/logger"
	"PulseDesk/pkg/metrics"
	"PulseDesk/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry with process and Go collectors.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg prometheus.Registerer) *metrics.Recorder {
	return metrics.New(reg)
}

// ProvideCacheStore opens the configured cache backend.
func ProvideCacheStore(cfg *config.Config) (cache.Store, error) {
	store, err := cache.New(cache.Config{
		Backend:       cfg.Cache.Backend,
		Durable:       cfg.Cache.Durable,
		MemoryMaxSize: cfg.Cache.MemoryMaxSize,
		SQLitePath:    cfg.Cache.SQLitePath,
		Redis: cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
			Prefix:   cfg.Cache.Redis.Prefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cache store: %w", err)
	}
	return store, nil
}

// ProvideAuditPublisher creates a Kafka audit publisher, or a no-op one when
// no brokers are configured.
func ProvideAuditPublisher(cfg *config.Config, reg prometheus.Registerer) (repository.AuditPublisher, error) {
	if !cfg.Audit.Enabled() {
		return internalrepo.NoopAuditPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Audit.Brokers),
		pkgkafka.WithCompression(cfg.Audit.Compression),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaAuditPublisher(producer, cfg.Audit.Topic), nil
}

// ProvideLimiter creates the shared upstream rate limiter.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideFetchers builds both orchestrators and registers the configured chains.
func ProvideFetchers(
	cfg *config.Config,
	store cache.Store,
	rec *metrics.Recorder,
	audit repository.AuditPublisher,
	l *applogger.Logger,
	limiter *ratelimit.Limiter,
) (*usecase.Fetchers, error) {
	opts := []usecase.Option{
		usecase.WithProviderTimeout(cfg.Fetch.ProviderTimeout),
		usecase.WithCacheTimeout(cfg.Fetch.CacheTimeout),
		usecase.WithAdHocEntries(cfg.Cache.AdHocEntries),
	}

	news := usecase.NewOrchestrator[models.ArticleSet](store, rec, audit, l.With(applogger.String("component", "news")), opts...)
	chain, err := newsChain(cfg)
	if err != nil {
		return nil, err
	}
	if err := news.Register(chain); err != nil {
		return nil, err
	}

	market := usecase.NewOrchestrator[models.QuoteSet](store, rec, audit, l.With(applogger.String("component", "market")), opts...)
	chains, err := marketChains(cfg, limiter)
	if err != nil {
		return nil, err
	}
	for _, c := range chains {
		if err := market.Register(c); err != nil {
			return nil, err
		}
	}

	return &usecase.Fetchers{News: news, Market: market}, nil
}

// ProvideDashboardHandler creates the HTTP handler.
func ProvideDashboardHandler(cfg *config.Config, l *applogger.Logger, f *usecase.Fetchers) *api.DashboardHandler {
	return api.NewDashboardHandler(l, f.News, f.Market, cfg.Fetch.RequestTimeout)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(
	cfg *config.Config,
	h *api.DashboardHandler,
	l *applogger.Logger,
	rec *metrics.Recorder,
	reg *prometheus.Registry,
) *xhttp.Server {
	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled == nil || *cfg.Metrics.Enabled {
		gatherer = reg
	}
	cors := cfg.Server.CORS == nil || *cfg.Server.CORS
	return xhttp.NewServer(h, l, rec, gatherer,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithCORS(cors),
		xhttp.WithMetricsPath(cfg.Metrics.Path),
	)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	store cache.Store,
	audit repository.AuditPublisher,
	f *usecase.Fetchers,
) *server.App {
	return server.New(cfg, l, srv, store, audit, f)
}
