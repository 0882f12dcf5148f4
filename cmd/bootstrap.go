package cmd

import (
	"context"
	"time"

	"example.com/textile/erp/config"
	"example.com/textile/erp/internal/auth"
	"example.com/textile/erp/internal/cache"
	"example.com/textile/erp/internal/database"
	"example.com/textile/erp/internal/messaging"
	"example.com/textile/erp/internal/metrics"
	"example.com/textile/erp/internal/report"
	"example.com/textile/erp/internal/repository"
	"example.com/textile/erp/internal/search"
	"example.com/textile/erp/internal/service"
	"example.com/textile/erp/internal/storage"
	"example.com/textile/erp/internal/tracing"

	"github.com/rs/zerolog/log"
)

// backend holds every client a process command needs. Optional backends are
// always non-nil and report Enabled() false when unavailable.
type backend struct {
	db       database.DB
	cache    *cache.RedisCache
	elastic  *search.ElasticClient
	store    *storage.MinioStore
	bus      *messaging.ServiceBusClient
	tracer   *tracing.Tracer
	metrics  *metrics.Metrics
	services *service.Services
}

// bootstrap connects to Postgres and every optional backend. Only the
// database is fatal; the rest degrade with a warning.
func bootstrap(cfg config.Config) (*backend, error) {
	m := metrics.NewMetrics()

	db, err := database.Connect(cfg.DB, m)
	if err != nil {
		return nil, err
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}

	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
	}

	store, err := storage.NewMinioStore(cfg.Storage)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize object storage, report files will not be kept")
	} else if store.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.EnsureBucket(ctx); err != nil {
			log.Warn().Err(err).Str("bucket", cfg.Storage.Bucket).Msg("Failed to ensure report bucket")
		}
		cancel()
	}

	bus, err := messaging.NewServiceBusClient(cfg.ServiceBus, m)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Service Bus client, continuing without events")
		bus = &messaging.ServiceBusClient{}
	}

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = &tracing.Tracer{}
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(service.Dependencies{
		Config:    cfg,
		Repos:     repos,
		Cache:     redisCache,
		Locker:    redisCache,
		Tokens:    auth.NewTokenManager(cfg.Auth),
		Events:    bus,
		Commands:  bus,
		Index:     elasticClient,
		Store:     store,
		Generator: report.NewGenerator(repos.ReportData),
		Metrics:   m,
	})

	return &backend{
		db:       db,
		cache:    redisCache,
		elastic:  elasticClient,
		store:    store,
		bus:      bus,
		tracer:   tracer,
		metrics:  m,
		services: services,
	}, nil
}

// Close releases every connection. Errors are logged, not returned.
func (r *backend) Close() {
	if err := r.bus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing Service Bus client")
	}
	if err := r.cache.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing Redis cache")
	}
	r.tracer.Close()
	if err := r.db.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database")
	}
}
