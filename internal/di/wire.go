//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	"PulseDesk/pkg/config"
	"PulseDesk/pkg/server"
)

var metricsSet = wire.NewSet(
	ProvideRegistry,
	wire.Bind(new(prometheus.Registerer), new(*prometheus.Registry)),
	ProvideMetrics,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		metricsSet,

		// Infrastructure
		ProvideCacheStore,
		ProvideAuditPublisher,
		ProvideLimiter,

		// Use cases
		ProvideFetchers,

		// Transport
		ProvideDashboardHandler,
		ProvideHTTPServer,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil
}
