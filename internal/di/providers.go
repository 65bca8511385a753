package di

import (
	"context"
	"fmt"
	"time"

	"SwingScan/internal/domain/repository"
	"SwingScan/internal/handler/api"
	internalrepo "SwingScan/internal/repository"
	"SwingScan/internal/service/binance"
	icache "SwingScan/internal/service/cache"
	"SwingScan/internal/service/ratelimit"
	"SwingScan/internal/usecase"
	pkgcache "SwingScan/pkg/cache"
	pkgch "SwingScan/pkg/clickhouse"
	"SwingScan/pkg/config"
	xhttp "SwingScan/pkg/http"
	pkgkafka "SwingScan/pkg/kafka"
	applogger "SwingScan/pkg/logger"
	"SwingScan/pkg/metrics"
	"SwingScan/pkg/server"
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

// ProvideLimiter creates the shared REST rate limiter.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideBinanceClient creates the Binance REST client.
func ProvideBinanceClient(cfg *config.Config, limiter *ratelimit.Limiter, log *applogger.Logger) *binance.Client {
	return binance.NewClient(cfg, limiter, log)
}

// ProvideSeriesStore creates the warm candle store for the kline stream.
func ProvideSeriesStore(cfg *config.Config) *binance.SeriesStore {
	return binance.NewSeriesStore(cfg.Scanner.WindowSize)
}

// ProvideStream creates the kline websocket stream, or nil when
// streaming is disabled.
func ProvideStream(cfg *config.Config, store *binance.SeriesStore, log *applogger.Logger) *binance.Stream {
	if !cfg.Binance.UseStream {
		return nil
	}
	tfs := make([]repository.Timeframe, 0, len(cfg.Aggregator.Timeframes)+1)
	for _, s := range cfg.Aggregator.Timeframes {
		tfs = append(tfs, repository.NormalizeTimeframe(s))
	}
	tfs = append(tfs, repository.NormalizeTimeframe(cfg.Confirmation.Timeframe))
	return binance.NewStream(cfg, store, cfg.Scanner.Symbols, tfs, log)
}

// ProvideCandleProvider assembles the provider chain: REST at the
// bottom, then the Redis window cache, then the warm stream store.
func ProvideCandleProvider(
	cfg *config.Config,
	rest *binance.Client,
	store *binance.SeriesStore,
	stream *binance.Stream,
	log *applogger.Logger,
) repository.CandleProvider {
	var provider repository.CandleProvider = rest

	if cfg.Cache.Enabled {
		redisCache, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(cfg.Cache.Redis.Host),
			pkgcache.WithRedisPort(cfg.Cache.Redis.Port),
			pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
			pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			log.Warn("redis cache unavailable, continuing without it", applogger.Error(err))
		} else {
			layered := pkgcache.NewLayeredCache(redisCache)
			provider = icache.NewCachingProvider(cfg, provider, layered)
		}
	}

	if stream != nil {
		provider = binance.NewStreamingProvider(store, provider)
	}
	return provider
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
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

// ProvideSignalPublisher creates the confirmed-signal publisher, or nil
// when Kafka is disabled.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// archive is disabled.
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideSignalArchive creates the ClickHouse archive, or nil when
// disabled.
func ProvideSignalArchive(chClient *pkgch.Client, cfg *config.Config) (repository.SignalArchive, error) {
	if chClient == nil {
		return nil, nil
	}
	archive := internalrepo.NewClickHouseArchive(chClient.DB(), cfg.ClickHouse.Database+".signal_records")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		return nil, fmt.Errorf("archive init: %w", err)
	}
	return archive, nil
}

// ProvidePipeline creates the staged confirmation pipeline.
func ProvidePipeline(
	cfg *config.Config,
	provider repository.CandleProvider,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.ConfirmationPipeline {
	return usecase.NewConfirmationPipeline(cfg, provider, m, log)
}

// ProvideCooldown creates the symbol cooldown guard.
func ProvideCooldown(cfg *config.Config) *usecase.CooldownGuard {
	return usecase.NewCooldownGuard(cfg)
}

// ProvideScanner creates the scan loop use case.
func ProvideScanner(
	cfg *config.Config,
	provider repository.CandleProvider,
	rest *binance.Client,
	pipeline *usecase.ConfirmationPipeline,
	cooldown *usecase.CooldownGuard,
	publisher repository.SignalPublisher,
	archive repository.SignalArchive,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Scanner {
	var lister repository.SymbolLister
	if cfg.Scanner.Discovery {
		lister = rest // dynamic universe from the 24h ticker filter
	}
	return usecase.NewScanner(cfg, provider, lister, pipeline, cooldown, publisher, archive, m, log)
}

// ProvideStatusHandler creates the HTTP status handler.
func ProvideStatusHandler(
	log *applogger.Logger,
	scanner *usecase.Scanner,
	archive repository.SignalArchive,
) xhttp.Handler {
	return api.NewStatusHandler(log, scanner, archive)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	scanner *usecase.Scanner,
	stream *binance.Stream,
	publisher repository.SignalPublisher,
	archive repository.SignalArchive,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, log, scanner, stream, publisher, archive, chClient, handler)
}
