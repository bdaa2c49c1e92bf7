//go:build wireinject
// +build wireinject

package di

import (
	"FlowICT/pkg/config"
	"FlowICT/pkg/server"

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
		ProvideRedisClient,
		ProvideCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Candle access
		ProvideMarketData,
		ProvideCandleStore,

		// Pattern engine
		ProvideICTOptions,
		ProvideSynthesizer,
		ProvideBiasAggregator,
		ProvideKeyLevelFilter,
		ProvideAnalysisUseCase,

		// Delivery chain
		ProvideRiskManager,
		ProvideConfirmer,
		ProvideThrottle,
		ProvideHub,
		ProvideDispatcher,
		ProvideSignalProcessor,
		ProvidePipeline,

		// Scheduling and intake
		ProvideQueue,
		ProvideScheduler,
		ProvideRequestHandler,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
