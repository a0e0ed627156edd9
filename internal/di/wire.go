//go:build wireinject
// +build wireinject

package di

import (
	"StratCore/pkg/config"
	"StratCore/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Repositories
		ProvideCandleStore,
		ProvideSignalPublisher,

		// Strategy core
		ProvideRegistry,
		ProvideShortPolicy,
		ProvideHoldResolver,
		ProvidePredictor,
		ProvideGate,
		ProvideBook,
		ProvideController,
		ProvideEvaluator,
		ProvideEngine,
		ProvideCandleIntake,
		ProvideStrategyHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
