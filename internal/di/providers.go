package di

import (
	"context"
	"fmt"
	"time"

	"BarPull/internal/domain/repository"
	"BarPull/internal/handler/api"
	internalrepo "BarPull/internal/repository"
	icache "BarPull/internal/service/cache"
	"BarPull/internal/service/yahoo"
	"BarPull/internal/usecase"
	pkgch "BarPull/pkg/clickhouse"
	"BarPull/pkg/config"
	xhttp "BarPull/pkg/http"
	pkgkafka "BarPull/pkg/kafka"
	applogger "BarPull/pkg/logger"
	"BarPull/pkg/metrics"
	"BarPull/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideStore opens the sqlite market store.
func ProvideStore(cfg *config.Config) (repository.MarketStore, error) {
	store, err := internalrepo.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: %w", err)
	}
	return store, nil
}

// ProvideFetcher creates the Yahoo bar fetcher.
func ProvideFetcher(cfg *config.Config) repository.BarFetcher {
	return yahoo.New(cfg.Yahoo.Range, cfg.Yahoo.Proxy)
}

// ProvideSink builds the mirror sink selected by backend.type. Returns nil
// when mirroring is disabled.
func ProvideSink(cfg *config.Config) (repository.Sink, error) {
	switch cfg.Backend.Type {
	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
			pkgkafka.WithBatch(cfg.Kafka.BatchSize, cfg.Kafka.BatchTimeout),
			pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		return internalrepo.NewKafkaSink(producer, cfg.Kafka.Topic), nil

	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}

		table := cfg.ClickHouse.Database + ".bars_archive"
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, internalrepo.ArchiveSchema(cfg.ClickHouse.Database, table)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		return internalrepo.NewClickHouseSink(client.DB(), table), nil

	default:
		return nil, nil
	}
}

// ProvideCache builds the response cache selected by config. Returns nil when
// caching is disabled.
func ProvideCache(cfg *config.Config) icache.BytesCache {
	if !cfg.Cache.Enabled {
		return nil
	}
	if cfg.Cache.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideBarsHandler creates the API handler with its cache attached.
func ProvideBarsHandler(
	cfg *config.Config,
	l *applogger.Logger,
	store repository.MarketStore,
	cache icache.BytesCache,
) xhttp.Handler {
	h := api.NewBarsEchoHandler(l, store)
	if cache != nil {
		h.SetCache(cache, cfg.Cache.TTL)
	}
	return h
}

// ProvideIngestor creates the ingestion orchestrator.
func ProvideIngestor(
	fetcher repository.BarFetcher,
	store repository.MarketStore,
	sink repository.Sink,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Ingestor {
	return usecase.NewIngestor(fetcher, store, sink, m, l,
		cfg.Ingest.NameTemplate, cfg.Ingest.AssetClass)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	store repository.MarketStore,
	sink repository.Sink,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, l, store, sink, handler)
}
