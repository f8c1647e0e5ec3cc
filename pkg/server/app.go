package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"PulseDesk/internal/domain/repository"
	"PulseDesk/internal/usecase"
	"PulseDesk/pkg/cache"
	"PulseDesk/pkg/config"
	xhttp "PulseDesk/pkg/http"
	applogger "PulseDesk/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	store      cache.Store
	audit      repository.AuditPublisher

	// Fetchers is exposed for one-shot CLI fetches.
	Fetchers *usecase.Fetchers
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	store cache.Store,
	audit repository.AuditPublisher,
	fetchers *usecase.Fetchers,
) *App {
	return &App{
		cfg:        cfg,
		logger:     l,
		httpServer: httpServer,
		store:      store,
		audit:      audit,
		Fetchers:   fetchers,
	}
}

// Logger returns the application logger.
func (a *App) Logger() *applogger.Logger { return a.logger }

// Run starts the HTTP server and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return errors.Join(err, a.Close())
	}
	a.logger.Info("pulsedesk started",
		applogger.Strings("categories", a.Fetchers.Categories()),
		applogger.String("cache", a.cfg.Cache.Backend),
		applogger.Bool("audit", a.cfg.Audit.Enabled()),
		applogger.Any("chains", a.cfg.Chains),
	)

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops the server, then releases infrastructure clients.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

// Close releases the cache store and the audit publisher.
func (a *App) Close() error {
	var errs []error
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			a.logger.Warn("audit publisher close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("cache store close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
