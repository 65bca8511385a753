//go:build wireinject
// +build wireinject

package di

import (
	"SwingScan/pkg/config"
	"SwingScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideLimiter,

		// Market data
		ProvideBinanceClient,
		ProvideSeriesStore,
		ProvideStream,
		ProvideCandleProvider,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideClickHouseClient,

		// Repositories
		ProvideSignalPublisher,
		ProvideSignalArchive,

		// Use cases
		ProvidePipeline,
		ProvideCooldown,
		ProvideScanner,

		// HTTP + application server
		ProvideStatusHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
