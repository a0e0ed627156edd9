package di

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"StratCore/internal/conditions"
	"StratCore/internal/domain/models"
	"StratCore/internal/domain/repository"
	domsvc "StratCore/internal/domain/service"
	"StratCore/internal/evaluator"
	"StratCore/internal/handler/api"
	"StratCore/internal/hybrid"
	"StratCore/internal/policy"
	"StratCore/internal/position"
	internalrepo "StratCore/internal/repository"
	"StratCore/internal/usecase"
	pkgcache "StratCore/pkg/cache"
	pkgch "StratCore/pkg/clickhouse"
	"StratCore/pkg/config"
	pkgkafka "StratCore/pkg/kafka"
	applogger "StratCore/pkg/logger"
	"StratCore/pkg/metrics"
	"StratCore/pkg/server"
)

// ProvideLogger creates the structured application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
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

	schema := []string{"CREATE DATABASE IF NOT EXISTS stratcore"}
	for _, tf := range []string{"5m", "15m", "1h", "4h", "1d"} {
		schema = append(schema, fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS stratcore.candles_%s (open_time DateTime, pair String, open Float64, high Float64, low Float64, close Float64, volume Float64) ENGINE=MergeTree ORDER BY (pair, open_time)", tf))
	}
	if err := client.InitSchema(ctx, schema); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
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

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
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

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the signal cache: memory-over-Redis layered
// cache when Redis is configured, plain in-memory otherwise.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	redisCache, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, err
	}
	return pkgcache.NewLayeredCache(redisCache), nil
}

// ProvideCandleStore creates the ClickHouse-backed candle history.
func ProvideCandleStore(chClient *pkgch.Client, l *applogger.Logger) repository.CandleStore {
	store := internalrepo.NewCHCandleStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideSignalPublisher creates the Kafka signal publisher.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalTopic, cfg.Kafka.AdjustTopic)
}

// ProvideRegistry builds the condition registry with any configured
// enable overrides applied.
func ProvideRegistry(cfg *config.Config) (*conditions.Registry, error) {
	reg, err := conditions.NewRegistry()
	if err != nil {
		return nil, err
	}
	if len(cfg.Trading.ConditionOverrides) > 0 {
		reg, _ = reg.WithOverrides(cfg.Trading.ConditionOverrides)
	}
	return reg, nil
}

// ProvideShortPolicy resolves the short-trading policy once at boot.
func ProvideShortPolicy(cfg *config.Config) models.ShortPolicy {
	return policy.ResolveShortPolicyFromEnv(cfg.Trading.AllowShorts, cfg.Trading.MarketMode)
}

// ProvideHoldResolver loads the initial hold table. Load failures are
// tolerated; the resolver starts with an empty table.
func ProvideHoldResolver(cfg *config.Config, l *applogger.Logger) *policy.HoldResolver {
	r := policy.NewHoldResolver(cfg.Trading.HoldsFile, l)
	_ = r.Reload()
	return r
}

// ProvidePredictor creates the external model client, or nil when the
// hybrid gate is disabled.
func ProvidePredictor(cfg *config.Config) domsvc.Predictor {
	if !cfg.Hybrid.Enabled {
		return nil
	}
	return hybrid.NewHTTPPredictor(cfg.Hybrid.ServiceURL, cfg.Hybrid.Timeout)
}

// ProvideGate creates the hybrid entry gate.
func ProvideGate(cfg *config.Config, predictor domsvc.Predictor, m repository.Metrics, l *applogger.Logger) *hybrid.Gate {
	return hybrid.NewGate(hybrid.GateConfig{
		Enabled:           cfg.Hybrid.Enabled,
		Timeout:           cfg.Hybrid.Timeout,
		Horizon:           cfg.Hybrid.Horizon,
		MinExpectedReturn: cfg.Hybrid.MinExpectedReturn,
		MinConfidence:     cfg.Hybrid.MinConfidence,
		RuleWeight:        cfg.Hybrid.RuleWeight,
		AcceptThreshold:   cfg.Hybrid.AcceptThreshold,
	}, predictor, m, l)
}

// ProvideBook creates the open-position book.
func ProvideBook(m repository.Metrics) *position.Book {
	return position.NewBook(m)
}

// ProvideController creates the adjustment controller.
func ProvideController(cfg *config.Config, book *position.Book, m repository.Metrics, l *applogger.Logger) *position.Controller {
	return position.NewController(position.ControllerConfig{
		Enabled:          cfg.Adjustment.Enabled,
		MaxAdjustments:   cfg.Adjustment.MaxAdjustments,
		StakeMultiplier:  decimal.NewFromFloat(cfg.Adjustment.StakeMultiplier),
		MaxStakeMultiple: decimal.NewFromFloat(cfg.Adjustment.MaxStakeMultiple),
	}, book, m, l)
}

// ProvideEvaluator creates the signal evaluator.
func ProvideEvaluator(
	cfg *config.Config,
	reg *conditions.Registry,
	shorts models.ShortPolicy,
	holds *policy.HoldResolver,
	gate *hybrid.Gate,
	book *position.Book,
	m repository.Metrics,
	l *applogger.Logger,
) *evaluator.Evaluator {
	return evaluator.New(evaluator.Config{
		SlippageRatio: cfg.Engine.SlippageRatio,
		MaxOpenPairs:  cfg.Engine.MaxOpenPairs,
	}, reg, shorts, holds, gate, book, m, l)
}

// ProvideEngine creates the evaluation engine.
func ProvideEngine(
	cfg *config.Config,
	store repository.CandleStore,
	publisher repository.SignalPublisher,
	eval *evaluator.Evaluator,
	controller *position.Controller,
	book *position.Book,
	c pkgcache.Service,
	m repository.Metrics,
	l *applogger.Logger,
) (*usecase.Engine, error) {
	baseStake := decimal.NewFromInt(100)
	if cfg.Engine.BaseStake != "" {
		var err error
		baseStake, err = decimal.NewFromString(cfg.Engine.BaseStake)
		if err != nil {
			return nil, fmt.Errorf("engine.base_stake: %w", err)
		}
	}
	informative := make([]repository.Timeframe, 0, len(cfg.Engine.Informative))
	for _, tf := range cfg.Engine.Informative {
		informative = append(informative, repository.NormalizeTimeframe(tf))
	}
	return usecase.NewEngine(usecase.EngineConfig{
		Pairs:              cfg.Engine.Pairs,
		BaseTimeframe:      repository.NormalizeTimeframe(cfg.Engine.BaseTimeframe),
		Informative:        informative,
		ReferencePair:      cfg.Engine.ReferencePair,
		ReferenceTimeframe: repository.NormalizeTimeframe(cfg.Engine.ReferenceTimeframe),
		WarmupCandles:      cfg.Engine.WarmupCandles,
		BaseStake:          baseStake,
		SignalCacheTTL:     cfg.Engine.SignalCacheTTL,
	}, store, publisher, eval, controller, book, c, m, l), nil
}

// ProvideCandleIntake registers the handler for the candle topic.
func ProvideCandleIntake(engine *usecase.Engine, m repository.Metrics, cfg *config.Config) *usecase.CandleIntake {
	return usecase.NewCandleIntake(cfg.Kafka.CandleTopic, engine, m)
}

// ProvideStrategyHandler creates the operational HTTP API.
func ProvideStrategyHandler(l *applogger.Logger, engine *usecase.Engine, eval *evaluator.Evaluator, holds *policy.HoldResolver, store repository.CandleStore) *api.StrategyHandler {
	return api.NewStrategyHandler(l, engine, eval, holds, store)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	engine *usecase.Engine,
	consumer *pkgkafka.Consumer,
	kh *usecase.CandleIntake,
	chClient *pkgch.Client,
	publisher repository.SignalPublisher,
	handler *api.StrategyHandler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, l, engine, consumer, kh, chClient)
	app.SetHTTPHandler(handler)
	app.AddCloser(publisher.Close)
	return app
}
