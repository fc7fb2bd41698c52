//go:build wireinject
// +build wireinject

package di

import (
	"RiskPulse/pkg/config"
	"RiskPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,
		ProvideCacheService,

		// Repositories (with business logic)
		ProvideObservationStorage,
		ProvideObservationPublisher,
		ProvideAssessmentPublisher,
		ProvideHistoryStore,
		ProvideHistoryProvider,
		ProvideSeriesClient,
		ProvideQuoteStream,
		ProvideIndicatorSource,

		// Use cases
		ProvideEngine,
		ProvideObservationProcessor,
		ProvideObservationCollector,
		ProvideKafkaObservationsHandler,
		ProvideAssessmentService,
		ProvideHistoryUseCase,
		ProvideScheduler,
		ProvideJobQueue,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
