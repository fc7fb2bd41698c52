package di

import (
	"context"
	"fmt"
	"time"

	"RiskPulse/internal/domain/repository"
	domsvc "RiskPulse/internal/domain/service"
	"RiskPulse/internal/handler/api"
	mid "RiskPulse/internal/middleware"
	internalrepo "RiskPulse/internal/repository"
	"RiskPulse/internal/service/fred"
	"RiskPulse/internal/service/quotes"
	"RiskPulse/internal/services/datasource"
	"RiskPulse/internal/usecase"
	pkgcache "RiskPulse/pkg/cache"
	pkgch "RiskPulse/pkg/clickhouse"
	"RiskPulse/pkg/config"
	xhttp "RiskPulse/pkg/http"
	pkgkafka "RiskPulse/pkg/kafka"
	"RiskPulse/pkg/logger"
	"RiskPulse/pkg/metrics"
	"RiskPulse/pkg/queue"
	"RiskPulse/pkg/server"

	segkafka "github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return logger.New(&logger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
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

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	table := observationTable(cfg)
	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", cfg.ClickHouse.Database),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (indicator String, obs_date DateTime, value Float64, source String, event_id String) ENGINE=ReplacingMergeTree ORDER BY (indicator, obs_date)", table),
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

func observationTable(cfg *config.Config) string {
	return cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
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

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerStartOffset(cfg.Kafka.Consumer.StartOffset),
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

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisCache creates the Redis cache layer.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
}

// ProvideCacheService layers a process-local cache over Redis.
func ProvideCacheService(redisCache *pkgcache.RedisCache) pkgcache.Service {
	return pkgcache.NewLayeredCache(redisCache)
}

// ProvideSeriesClient creates the upstream series API client.
func ProvideSeriesClient(cfg *config.Config) domsvc.SeriesClient {
	return fred.New(cfg)
}

// ProvideQuoteStream creates the live quote WebSocket stream.
func ProvideQuoteStream(cfg *config.Config) repository.QuoteStream {
	symbols := make([]string, 0)
	for _, ind := range cfg.Indicators {
		if ind.Source == config.SourceQuotes {
			symbols = append(symbols, ind.Symbol)
		}
	}
	return quotes.New(
		cfg.Quotes.APIKey,
		cfg.Quotes.WebSocketURL,
		symbols,
		cfg.Quotes.ReconnectDelay,
		cfg.Quotes.PingInterval,
	)
}

// ProvideObservationStorage creates the ClickHouse observation store.
func ProvideObservationStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	return internalrepo.NewClickHouseStorage(chClient.DB(), observationTable(cfg))
}

// ProvideObservationPublisher creates the Kafka observation publisher.
func ProvideObservationPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.ObservationsTopic)
}

// ProvideAssessmentPublisher creates the Kafka assessment publisher.
func ProvideAssessmentPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.AssessmentPublisher {
	return internalrepo.NewKafkaAssessmentPublisher(producer, cfg.Kafka.AssessmentsTopic)
}

// ProvideHistoryStore creates the local ClickHouse history reader.
func ProvideHistoryStore(chClient *pkgch.Client, cfg *config.Config, log *logger.Logger) *internalrepo.CHHistoryStore {
	store := internalrepo.NewCHHistoryStore(chClient, observationTable(cfg))
	store.SetLogger(log)
	return store
}

// ProvideHistoryProvider serves history from the local observation store,
// falling back to the series API for fred-backed indicators.
func ProvideHistoryProvider(cfg *config.Config, series domsvc.SeriesClient, store *internalrepo.CHHistoryStore, log *logger.Logger) repository.HistoryProvider {
	hp := internalrepo.NewHistoryProvider(cfg, series, store)
	hp.SetLogger(log)
	return hp
}

// ProvideIndicatorSource assembles the snapshot builder.
func ProvideIndicatorSource(
	cfg *config.Config,
	series domsvc.SeriesClient,
	stream repository.QuoteStream,
	c pkgcache.Service,
	m repository.Metrics,
	log *logger.Logger,
) repository.IndicatorSource {
	return datasource.NewSource(cfg, series, stream, c, m, log)
}

// ProvideEngine creates the scoring engine.
func ProvideEngine(
	cfg *config.Config,
	source repository.IndicatorSource,
	history repository.HistoryProvider,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.Engine {
	return usecase.NewEngine(cfg, source, history, m, log)
}

// ProvideObservationProcessor creates the observation routing use case.
func ProvideObservationProcessor(
	pub repository.Publisher,
	store repository.Storage,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.ObservationProcessor {
	return usecase.NewObservationProcessor(
		pub,
		store,
		m,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideObservationCollector creates the tick collector use case.
func ProvideObservationCollector(
	cfg *config.Config,
	stream repository.QuoteStream,
	processor *usecase.ObservationProcessor,
	m repository.Metrics,
) *usecase.ObservationCollector {
	// Quote ticks arrive far more often than the observation cadence; the
	// pipeline throttles them to one point per indicator per minute.
	pipe := mid.NewObservationPipeline(processor, m,
		mid.WithThrottleInterval(time.Minute),
		mid.WithBufferSize(2000),
	)
	return usecase.NewObservationCollector(cfg, stream, processor, m, pipe)
}

// ProvideKafkaObservationsHandler registers the handler for the observations topic.
func ProvideKafkaObservationsHandler(store repository.Storage, m repository.Metrics, cfg *config.Config) *usecase.KafkaObservationsHandler {
	return usecase.NewKafkaObservationsHandler(cfg.Kafka.ObservationsTopic, store, m)
}

// ProvideAssessmentService creates the assessment read/refresh service.
func ProvideAssessmentService(
	cfg *config.Config,
	engine *usecase.Engine,
	source repository.IndicatorSource,
	proc *usecase.ObservationProcessor,
	pub repository.AssessmentPublisher,
	c pkgcache.Service,
	log *logger.Logger,
) *usecase.AssessmentService {
	return usecase.NewAssessmentService(cfg, engine, source, proc, pub, c, log)
}

// ProvideHistoryUseCase creates the history read use case.
func ProvideHistoryUseCase(cfg *config.Config, provider repository.HistoryProvider) *usecase.HistoryUseCase {
	return usecase.NewHistoryUseCase(cfg, provider)
}

// ProvideScheduler creates the periodic refresh scheduler.
func ProvideScheduler(cfg *config.Config, svc *usecase.AssessmentService, log *logger.Logger) *usecase.Scheduler {
	return usecase.NewScheduler(cfg, svc, log)
}

// ProvideJobQueue creates the Redis-backed refresh job queue.
func ProvideJobQueue(
	cfg *config.Config,
	redisCache *pkgcache.RedisCache,
	svc *usecase.AssessmentService,
	log *logger.Logger,
) *queue.RedisQueue {
	q := queue.NewRedisQueue(log,
		&queue.QueueConfig{
			Workers:    cfg.Queue.Workers,
			RetryLimit: cfg.Queue.MaxRetries,
			RetryDelay: cfg.Queue.RetryDelay,
		},
		redisCache.Client(),
		queue.ModeProducerConsumer,
		queue.WithKeyPrefix(cfg.Queue.Name),
	)
	q.RegisterJob(usecase.NewRefreshJob(svc, log))
	return q
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(
	log *logger.Logger,
	svc *usecase.AssessmentService,
	history *usecase.HistoryUseCase,
	engine *usecase.Engine,
	source repository.IndicatorSource,
	jobs *queue.RedisQueue,
) xhttp.Handler {
	h := api.NewRiskEchoHandler(log, svc, history, engine, source)
	if jobs != nil {
		h.SetQueue(jobs)
	}
	return h
}

// consumerMetricsHook times message handling and counts failures.
func consumerMetricsHook(m repository.Metrics) pkgkafka.ConsumerHook {
	return pkgkafka.NewHookChain(pkgkafka.HookFuncs{
		Before: func(ctx context.Context, _ string, km segkafka.Message, data []byte) (context.Context, segkafka.Message, []byte, error) {
			ctx = pkgkafka.WithStartTime(ctx, time.Now())
			if id := pkgkafka.ExtractTraceID(km); id != "" {
				ctx = pkgkafka.WithTraceID(ctx, id)
			}
			return ctx, km, data, nil
		},
		After: func(ctx context.Context, _ string, _ segkafka.Message, _ []byte, err error) {
			if start, ok := ctx.Value(pkgkafka.CtxStartTime).(time.Time); ok {
				m.RecordLatency("kafka_handle", time.Since(start).Seconds())
			}
			if err != nil {
				m.RecordError("kafka_handle")
			}
		},
	})
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	m repository.Metrics,
	producer *pkgkafka.Producer,
	collector *usecase.ObservationCollector,
	scheduler *usecase.Scheduler,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaObservationsHandler,
	jobs *queue.RedisQueue,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(consumerMetricsHook(m))
	}
	if producer != nil && cfg.Kafka.AuditTopic != "" {
		log.AddCollector(&logger.CollectionConfig{
			FlushInterval:  30 * time.Second,
			CountThreshold: 200,
			Topic:          cfg.Kafka.AuditTopic,
			Publisher:      producer,
		})
	}
	app := server.New(cfg, log, collector, scheduler, consumer, kh, jobs, chClient)
	app.SetHTTPHandler(handler)
	if collector != nil {
		app.ObsProc = collector.Processor()
	}
	return app
}
