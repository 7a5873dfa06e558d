//go:build wireinject
// +build wireinject

package di

import (
	"SleepSim/pkg/config"
	"SleepSim/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvidePrometheusRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideRunStore,
		ProvideKafkaProducer,
		ProvideRunPublisher,
		ProvideKafkaConsumer,

		// Domain
		ProvideScenarioRegistry,
		ProvideSimulator,
		ProvideSimulatorService,
		ProvideRunRequestHandler,

		// Transport
		ProvideRateLimiter,
		ProvideSimulationHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
