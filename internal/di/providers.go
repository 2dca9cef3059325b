package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"TradeGuard/internal/domain/repository"
	"TradeGuard/internal/guard"
	"TradeGuard/internal/handler/api"
	mid "TradeGuard/internal/middleware"
	internalrepo "TradeGuard/internal/repository"
	"TradeGuard/internal/service/backfill"
	"TradeGuard/internal/service/feed"
	"TradeGuard/internal/usecase"
	pkgcache "TradeGuard/pkg/cache"
	pkgch "TradeGuard/pkg/clickhouse"
	"TradeGuard/pkg/config"
	pkgkafka "TradeGuard/pkg/kafka"
	applogger "TradeGuard/pkg/logger"
	"TradeGuard/pkg/metrics"
	"TradeGuard/pkg/queue"
	"TradeGuard/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client when the clickhouse
// backend is selected. On the kafka backend no client is created.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Backend.Type != "clickhouse" {
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".guard_ticks" +
			" (ts DateTime, symbol String, price Float64, volume Float64)" +
			" ENGINE=MergeTree ORDER BY (symbol, ts)",
		"CREATE TABLE IF NOT EXISTS " + db + ".guard_events" +
			" (ts DateTime, symbol String, kind String, drop Float64, peak Float64, price Float64, source String)" +
			" ENGINE=MergeTree ORDER BY (symbol, ts)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideStorage creates the ClickHouse-backed tick/event store, or nil on
// the kafka backend.
func ProvideStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	if chClient == nil {
		return nil
	}
	db := cfg.ClickHouse.Database
	return internalrepo.NewClickHouseStorage(chClient.DB(), db+".guard_ticks", db+".guard_events")
}

// ProvideKafkaProducer creates a Kafka producer for the events topic when
// the kafka backend is selected.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
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

// ProvidePublisher creates the Kafka event publisher, or nil when no
// producer exists.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideKafkaConsumer creates a consumer for the inbound ticks topic, or
// nil when none is configured.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Kafka.TicksTopic == "" || len(cfg.Kafka.Brokers) == 0 {
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

// ProvideFeedStream creates the WebSocket market data stream.
func ProvideFeedStream(lgr *applogger.Logger, cfg *config.Config) repository.MarketStream {
	return feed.New(
		lgr,
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		cfg.Feed.Symbols,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
	)
}

// ProvideSessions creates the per-symbol guard registry seeded with the
// configured defaults.
func ProvideSessions(cfg *config.Config) *usecase.SessionRegistry {
	return usecase.NewSessionRegistry(guard.Config{
		Enabled:  cfg.Guard.IsEnabled(),
		Hazard:   cfg.Guard.Hazard,
		MinDown:  cfg.Guard.MinDown,
		Cooldown: cfg.Guard.Cooldown(),
	})
}

// ProvideJournal creates the in-memory detection event journal.
func ProvideJournal() *usecase.EventJournal {
	return usecase.NewEventJournal(0)
}

// ProvideTickProcessor creates the tick processing use case.
func ProvideTickProcessor(
	sessions *usecase.SessionRegistry,
	journal *usecase.EventJournal,
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.TickProcessor {
	return usecase.NewTickProcessor(sessions, journal, pub, store, metrics, cfg.Backend.Type)
}

// ProvideTickCollector creates the feed collector with a throttling
// pipeline between the stream and the processor.
func ProvideTickCollector(
	stream repository.MarketStream,
	processor *usecase.TickProcessor,
	metrics repository.Metrics,
) *usecase.TickCollector {
	pipe := mid.NewTickPipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewTickCollector(stream, processor, metrics, pipe)
}

// ProvideKafkaTicksHandler creates the handler consuming the ticks topic.
func ProvideKafkaTicksHandler(proc *usecase.TickProcessor, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.TicksTopic, proc, metrics)
}

// ProvideExitService creates the exit policy evaluator from config.
func ProvideExitService(cfg *config.Config, metrics repository.Metrics) *usecase.ExitService {
	ec := guard.ExitConfig{
		TrailMode:      guard.TrailMode(cfg.Exit.TrailMode),
		TrailPct:       cfg.Exit.TrailPercent,
		TimeStopBars:   cfg.Exit.TimeStopBars,
		PartialEnabled: cfg.Exit.PartialEnabled,
		CooldownBars:   cfg.Exit.CooldownBars,
		DailyLossCapR:  cfg.Exit.DailyLossCapR,
		FreezeOnExit:   cfg.Exit.FreezeOnExit,
	}
	for _, pl := range cfg.Exit.PartialLevels {
		ec.PartialLevels = append(ec.PartialLevels, guard.PartialLevel{RR: pl.RR, Fraction: pl.Fraction})
	}
	return usecase.NewExitService(ec, metrics)
}

// ProvideSnapshotCache creates the layered snapshot cache, or nil when
// redis is disabled.
func ProvideSnapshotCache(cfg *config.Config) (*pkgcache.LayeredCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}

	host, port := splitAddr(cfg.Redis.Addr)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(rc), nil
}

// ProvideReplayRunner creates the replay job handler.
func ProvideReplayRunner(
	store repository.Storage,
	journal *usecase.EventJournal,
	sessions *usecase.SessionRegistry,
	metrics repository.Metrics,
) *usecase.ReplayRunner {
	return usecase.NewReplayRunner(store, journal, sessions.Defaults(), metrics)
}

// ProvideReplayQueue creates the redis-backed replay job queue, or nil when
// redis is disabled or no storage exists to replay from.
func ProvideReplayQueue(
	lgr *applogger.Logger,
	runner *usecase.ReplayRunner,
	store repository.Storage,
	cfg *config.Config,
) *queue.RedisQueue {
	if !cfg.Redis.Enabled || store == nil {
		return nil
	}

	host, port := splitAddr(cfg.Redis.Addr)
	client := redisClient(host, port, cfg.Redis.Password, cfg.Redis.DB)
	q := queue.NewRedisQueue(lgr, &queue.QueueConfig{
		Workers:    1,
		RetryLimit: 2,
		RetryDelay: 30 * time.Second,
	}, client, queue.ModeProducerConsumer, queue.WithKeyPrefix(cfg.Redis.ReplayQueue))
	q.RegisterJob(runner)
	return q
}

// ProvideWarmup creates the session warmup runner, or nil when backfill is
// disabled.
func ProvideWarmup(cfg *config.Config, sessions *usecase.SessionRegistry) *usecase.Warmup {
	if !cfg.Backfill.Enabled || cfg.Backfill.BaseURL == "" {
		return nil
	}
	source := backfill.New(cfg.Backfill.BaseURL, cfg.Backfill.Timeout)
	return usecase.NewWarmup(source, sessions, cfg.Backfill.Bars)
}

// ProvideGuardHandler creates the HTTP handler bundle.
func ProvideGuardHandler(
	lgr *applogger.Logger,
	sessions *usecase.SessionRegistry,
	exits *usecase.ExitService,
	journal *usecase.EventJournal,
	metrics repository.Metrics,
	store repository.Storage,
	replayQueue *queue.RedisQueue,
	snapshots *pkgcache.LayeredCache,
	cfg *config.Config,
) *api.GuardEchoHandler {
	var qs queue.QueueService
	if replayQueue != nil {
		qs = replayQueue
	}
	var cs pkgcache.Service
	if snapshots != nil {
		cs = snapshots
	}
	return api.NewGuardEchoHandler(lgr, sessions, exits, journal, metrics, store, qs, cs, cfg.Redis.SnapshotTTL)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTicksHandler,
	chClient *pkgch.Client,
	replayQueue *queue.RedisQueue,
	warmup *usecase.Warmup,
	handler *api.GuardEchoHandler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	var wr server.WarmupRunner
	if warmup != nil {
		wr = warmup
	}
	return server.New(cfg, lgr, collector, consumer, kh, chClient, replayQueue, wr, handler)
}

func redisClient(host string, port int, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}
