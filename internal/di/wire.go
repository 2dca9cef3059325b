//go:build wireinject
// +build wireinject

package di

import (
	"TradeGuard/pkg/config"
	"TradeGuard/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideSnapshotCache,

		// Repositories
		ProvideStorage,
		ProvidePublisher,
		ProvideFeedStream,

		// Use cases
		ProvideSessions,
		ProvideJournal,
		ProvideTickProcessor,
		ProvideTickCollector,
		ProvideKafkaTicksHandler,
		ProvideExitService,
		ProvideReplayRunner,
		ProvideReplayQueue,
		ProvideWarmup,

		// HTTP surface
		ProvideGuardHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
