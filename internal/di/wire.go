//go:build wireinject
// +build wireinject

package di

import (
	"CoPenny/pkg/config"
	"CoPenny/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// LLM and knowledge
		ProvideLLMClient,
		ProvideCompleter,
		ProvideKnowledgeStore,

		// Storage
		ProvideWarehouse,
		ProvideAccessor,
		ProvideTransactionStore,
		ProvideUserStore,

		// Services
		ProvideEmailSender,
		ProvideMarketStream,
		ProvideMarketData,
		ProvideCharts,
		ProvidePersonalization,
		ProvideAlertPublisher,

		// Use cases
		ProvideOrchestrator,
		ProvideHistorical,
		ProvideAlertEngine,
		ProvideAlertHandler,

		// HTTP and application
		ProvideRoutes,
		ProvideApp,
	)
	return &server.App{}, nil
}
