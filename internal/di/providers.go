package di

import (
	"context"
	"fmt"
	"time"

	"CoPenny/internal/agents"
	domrepo "CoPenny/internal/domain/repository"
	"CoPenny/internal/handler/api"
	"CoPenny/internal/llm"
	internalrepo "CoPenny/internal/repository"
	"CoPenny/internal/service/charts"
	"CoPenny/internal/service/email"
	"CoPenny/internal/service/knowledge"
	"CoPenny/internal/service/market"
	"CoPenny/internal/service/personalization"
	"CoPenny/internal/store"
	"CoPenny/internal/usecase"
	"CoPenny/pkg/cache"
	pkgch "CoPenny/pkg/clickhouse"
	"CoPenny/pkg/config"
	xhttp "CoPenny/pkg/http"
	pkgkafka "CoPenny/pkg/kafka"
	applogger "CoPenny/pkg/logger"
	"CoPenny/pkg/metrics"
	"CoPenny/pkg/server"
)

// ProvideLogger creates the structured application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates the Prometheus recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideCache creates the layered Redis cache, or nil when Redis is
// disabled; dependents treat a nil cache as cache-off.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideLLMClient creates the completion client.
func ProvideLLMClient(cfg *config.Config, rec *metrics.Recorder, log *applogger.Logger) *llm.Client {
	return llm.NewClient(llm.Config{
		Provider:        cfg.LLM.Provider,
		BaseURL:         cfg.LLM.BaseURL,
		PayloadStyle:    cfg.LLM.PayloadStyle,
		GeminiAPIKey:    cfg.LLM.GeminiAPIKey,
		GeminiModel:     cfg.LLM.GeminiModel,
		OpenRouterKey:   cfg.LLM.OpenRouterKey,
		OpenRouterModel: cfg.LLM.OpenRouterModel,
		Timeout:         cfg.LLM.Timeout,
		Retries:         cfg.LLM.Retries,
		Backoff:         cfg.LLM.Backoff,
	}, llm.WithMetrics(rec), llm.WithLogger(log))
}

// ProvideCompleter exposes the LLM client to the agent stages.
func ProvideCompleter(c *llm.Client) agents.Completer { return c }

// ProvideKnowledgeStore creates the vector store client.
func ProvideKnowledgeStore(cfg *config.Config, cacheSvc cache.Service, log *applogger.Logger) domrepo.KnowledgeStore {
	opts := []knowledge.Option{knowledge.WithLogger(log)}
	if cacheSvc != nil {
		opts = append(opts, knowledge.WithCache(cacheSvc, cfg.Knowledge.CacheTTL))
	}
	if cfg.Knowledge.Timeout > 0 {
		opts = append(opts, knowledge.WithTimeout(cfg.Knowledge.Timeout))
	}
	return knowledge.NewClient(cfg.Knowledge.ServiceURL, cfg.Knowledge.TopK, opts...)
}

// ProvideClickHouseClient connects to ClickHouse, or returns nil when
// the warehouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideWarehouse creates the columnar aggregation engine, or nil
// when ClickHouse is disabled; the accessor then aggregates in-process.
func ProvideWarehouse(client *pkgch.Client, log *applogger.Logger) (*store.Warehouse, error) {
	if client == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return store.NewWarehouse(ctx, client, log)
}

// ProvideAccessor creates the transaction accessor.
func ProvideAccessor(cfg *config.Config, warehouse *store.Warehouse, log *applogger.Logger) *store.Accessor {
	opts := []store.AccessorOption{store.WithAccessorLogger(log)}
	if warehouse != nil {
		opts = append(opts, store.WithWarehouse(warehouse))
	}
	return store.NewAccessor(cfg.Data.SharedCSV, cfg.Data.UserDataDir, opts...)
}

// ProvideTransactionStore exposes the accessor behind its contract.
func ProvideTransactionStore(a *store.Accessor) domrepo.TransactionStore { return a }

// ProvideUserStore connects to MongoDB, falling back to the local JSON
// store when no URI is configured or the server is unreachable.
func ProvideUserStore(cfg *config.Config, log *applogger.Logger) (domrepo.UserStore, error) {
	if cfg.Mongo.URI != "" {
		timeout := cfg.Mongo.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		mongoStore, err := internalrepo.NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database, log)
		cancel()
		if err == nil {
			log.Info("user store: mongodb connected")
			return mongoStore, nil
		}
		log.Warn("mongodb unavailable, using local json store", applogger.Error(err))
	}

	dir := cfg.Mongo.FallbackDir
	if dir == "" {
		dir = "data/store"
	}
	fileStore, err := internalrepo.NewFileStore(dir, log)
	if err != nil {
		return nil, err
	}
	log.Info("user store: local json store", applogger.String("dir", dir))
	return fileStore, nil
}

// ProvideKafkaProducer creates the alert bus producer, or nil when
// Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideAlertPublisher wraps the producer, or nil when Kafka is off;
// the rules engine then only returns hits without publishing.
func ProvideAlertPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.AlertPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.AlertTopic)
}

// ProvideKafkaConsumer creates the alert bus consumer, or nil when
// Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideEmailSender creates the SMTP notifier.
func ProvideEmailSender(cfg *config.Config, log *applogger.Logger) *email.Sender {
	return email.NewSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From, log)
}

// ProvideMarketStream creates the quote stream, or nil when disabled.
func ProvideMarketStream(cfg *config.Config, log *applogger.Logger) *market.Stream {
	if !cfg.Market.Enabled || cfg.Market.APIKey == "" {
		return nil
	}
	return market.NewStream(
		cfg.Market.APIKey,
		cfg.Market.WebSocketURL,
		cfg.Market.Symbols,
		cfg.Market.ReconnectDelay,
		cfg.Market.PingInterval,
		log,
	)
}

// ProvideMarketData exposes the stream behind its contract; nil when
// no stream runs, so the pipeline degrades.
func ProvideMarketData(stream *market.Stream) domrepo.MarketData {
	if stream == nil {
		return nil
	}
	return stream
}

// ProvideCharts creates the chart renderer.
func ProvideCharts(log *applogger.Logger) *charts.Renderer {
	return charts.NewRenderer(log)
}

// ProvidePersonalization creates the upload service.
func ProvidePersonalization(cfg *config.Config, users domrepo.UserStore, cacheSvc cache.Service, log *applogger.Logger) *personalization.Service {
	return personalization.NewService(cfg.Data.UserDataDir, users, cacheSvc, log)
}

// ProvideAlertEngine creates the cashflow rules engine.
func ProvideAlertEngine(
	accessor *store.Accessor,
	users domrepo.UserStore,
	publisher domrepo.AlertPublisher,
	rec *metrics.Recorder,
	log *applogger.Logger,
) *usecase.AlertEngine {
	return usecase.NewAlertEngine(accessor, users, publisher, rec, log)
}

// ProvideAlertHandler creates the consumer-side alert sink.
func ProvideAlertHandler(cfg *config.Config, users domrepo.UserStore, sender *email.Sender, log *applogger.Logger) *usecase.AlertHandler {
	topic := cfg.Kafka.AlertTopic
	if topic == "" {
		topic = internalrepo.DefaultAlertsTopic
	}
	return usecase.NewAlertHandler(topic, users, sender, log)
}

// ProvideOrchestrator wires the chat pipeline.
func ProvideOrchestrator(
	completer agents.Completer,
	knowledgeStore domrepo.KnowledgeStore,
	transactions domrepo.TransactionStore,
	users domrepo.UserStore,
	marketData domrepo.MarketData,
	renderer *charts.Renderer,
	rec *metrics.Recorder,
	log *applogger.Logger,
) *usecase.Orchestrator {
	opts := []usecase.OrchestratorOption{
		usecase.WithCharts(renderer),
		usecase.WithMetrics(rec),
		usecase.WithOrchestratorLogger(log),
	}
	if marketData != nil {
		opts = append(opts, usecase.WithMarketData(marketData))
	}
	return usecase.NewOrchestrator(completer, knowledgeStore, transactions, users, opts...)
}

// ProvideHistorical creates the historical analysis usecase.
func ProvideHistorical(transactions domrepo.TransactionStore, completer agents.Completer, log *applogger.Logger) *usecase.Historical {
	return usecase.NewHistorical(transactions, completer, log)
}

// ProvideRoutes composes every API handler.
func ProvideRoutes(
	cfg *config.Config,
	orchestrator *usecase.Orchestrator,
	historical *usecase.Historical,
	engine *usecase.AlertEngine,
	personalSvc *personalization.Service,
	transactions domrepo.TransactionStore,
	users domrepo.UserStore,
	cacheSvc cache.Service,
	marketStream *market.Stream,
	chClient *pkgch.Client,
	log *applogger.Logger,
) xhttp.Handler {
	components := map[string]func() bool{
		"user_store": func() bool { return users != nil },
		"market_stream": func() bool {
			return marketStream != nil && marketStream.IsConnected()
		},
		"warehouse": func() bool {
			if chClient == nil {
				return false
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return chClient.Health(ctx) == nil
		},
	}

	return api.NewRoutes(cfg.Auth.JWTSecret,
		api.NewAuthHandler(users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log),
		api.NewChatHandler(orchestrator, users, log),
		api.NewToolsHandler(transactions, cacheSvc, log),
		api.NewHistoricalHandler(historical, log),
		api.NewProfileHandler(users, log),
		api.NewSubscriptionHandler(users, log),
		api.NewAlertsHandler(users, engine, log),
		api.NewPersonalizationHandler(personalSvc, users, engine, log),
		api.NewDashboardHandler(transactions, users, components, log),
	)
}

// ProvideApp assembles the application and registers teardown for the
// infrastructure clients.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	marketStream *market.Stream,
	consumer *pkgkafka.Consumer,
	alertSink *usecase.AlertHandler,
	users domrepo.UserStore,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *server.App {
	var sink pkgkafka.MessageHandler
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
		sink = alertSink
	}
	app := server.New(cfg, log, handler, marketStream, consumer, sink)

	app.OnShutdown(func(ctx context.Context) error { return users.Close(ctx) })
	if producer != nil {
		app.OnShutdown(func(ctx context.Context) error { return producer.Close() })
	}
	if chClient != nil {
		app.OnShutdown(func(ctx context.Context) error { return chClient.Close() })
	}
	return app
}
