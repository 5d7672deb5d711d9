package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/valuations/internal/adapter/http"
	"github.com/iho/valuations/internal/adapter/http/handler"
	"github.com/iho/valuations/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/valuations/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/valuations/internal/adapter/repository/redis"
	"github.com/iho/valuations/internal/infrastructure/config"
	"github.com/iho/valuations/internal/infrastructure/eventpublisher"
	"github.com/iho/valuations/internal/infrastructure/kafka"
	applog "github.com/iho/valuations/internal/infrastructure/logger"
	"github.com/iho/valuations/internal/infrastructure/metrics"
	"github.com/iho/valuations/internal/infrastructure/postgres"
	"github.com/iho/valuations/internal/infrastructure/redis"
	"github.com/iho/valuations/internal/usecase"
)

const (
	serviceName           = "valuations"
	syncConsumerGroup     = "valuations-sync"
	rateLimiterCleanEvery = time.Hour
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Bootstrap logger until configuration is loaded
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := applog.New(applog.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
		Version: version,
		Caller:  cfg.LogCaller,
	})

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

// worker is a background loop that runs until ctx is cancelled.
type worker struct {
	name string
	run  func(ctx context.Context) error
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrations {
		migrator := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, applog.Component(logger, "migrator"))
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClientWithOptions(ctx, cfg.RedisURL, redis.Options{
		PoolSize:     cfg.RedisPoolSize,
		PingAttempts: cfg.RedisPingAttempts,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()
	logger.Info().Msg("connected to redis")

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool).WithLockTimeout(cfg.DatabaseLockTimeout)
	familyRepo := postgresRepo.NewFamilyRepository(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	rateRepo := postgresRepo.NewExchangeRateRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	retryPolicy := postgresRepo.DefaultRetryPolicy
	retryPolicy.MaxRetries = cfg.DatabaseMaxRetries
	retrier := postgresRepo.NewRetrierWithPolicy(retryPolicy, applog.Component(logger, "retrier"))
	idGen := postgresRepo.NewULIDGenerator()
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	// Initialize use cases
	resolver := usecase.NewExchangeRateResolver(entryRepo, rateRepo, m, applog.Component(logger, "resolver"))
	aggregates := usecase.AggregateConfig{CacheTTL: cfg.CacheTTL, CacheStaleness: cfg.CacheStaleness}

	reconciliationUC := usecase.NewReconciliationUseCase(txManager, accountRepo, entryRepo, outboxRepo, resolver, idGen, retrier, m, logger)
	entryUC := usecase.NewEntryUseCase(txManager, accountRepo, entryRepo, outboxRepo, idGen, retrier, logger)
	valuationUC := usecase.NewValuationUseCase(accountRepo, entryRepo, reconciliationUC, entryUC)
	netWorthUC := usecase.NewNetWorthUseCase(familyRepo, accountRepo, entryRepo, resolver, cache, m, aggregates)
	totalsUC := usecase.NewAccountTotalsUseCase(familyRepo, accountRepo, entryRepo, resolver, outboxRepo, cache, m, aggregates, logger)
	syncUC := usecase.NewSyncUseCase(txManager, accountRepo, entryRepo, resolver, retrier, m, applog.Component(logger, "sync"))

	// Outbox dispatch
	publisher, workers, closeDispatch, err := newSyncPublisher(cfg, syncUC, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDispatch(); err != nil {
			logger.Error().Err(err).Msg("failed to close sync dispatch")
		}
	}()

	eventPublisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  publisher,
		Recorder:   m,
		Logger:     applog.Component(logger, "outbox"),
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
		Retention:  cfg.OutboxRetention,
	})
	workers = append(workers, worker{name: "event publisher", run: eventPublisher.Start})

	// HTTP
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithHitCounter(m.RateLimitHits)
		workers = append(workers, worker{name: "rate limiter cleanup", run: func(ctx context.Context) error {
			return every(ctx, rateLimiterCleanEvery, rateLimiter.CleanupLimiters)
		}})
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		ValuationHandler: handler.NewValuationHandler(valuationUC),
		EntryHandler:     handler.NewEntryHandler(entryUC),
		NetWorthHandler:  handler.NewNetWorthHandler(netWorthUC, totalsUC),
		HealthHandler: handler.NewHealthHandler(pool, handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		Metrics:          m,
		Logger:           logger,
	})

	server := &http.Server{
		Addr:         serverAddr(cfg),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w worker) {
			defer wg.Done()
			if err := w.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Str("worker", w.name).Msg("worker stopped")
			}
		}(w)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		stop()
		wg.Wait()
		return err
	}

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	wg.Wait()

	logger.Info().Msg("server stopped")
	return nil
}

// newSyncPublisher picks where outbox sync requests go. Kafka mode also
// returns the consumer that applies them.
func newSyncPublisher(cfg *config.Config, syncer eventpublisher.AccountSyncer, logger zerolog.Logger) (eventpublisher.Publisher, []worker, func() error, error) {
	noop := func() error { return nil }

	switch cfg.SyncDispatch {
	case config.SyncDispatchLocal:
		return eventpublisher.NewSyncDispatcher(syncer, logger), nil, noop, nil

	case config.SyncDispatchLog:
		return eventpublisher.NewLogPublisher(logger), nil, noop, nil

	case config.SyncDispatchKafka:
		producer := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaSyncTopic)
		consumer := kafka.NewConsumer(
			cfg.KafkaBrokers,
			cfg.KafkaSyncTopic,
			syncConsumerGroup,
			eventpublisher.NewSyncDispatcher(syncer, logger),
			logger,
		)
		closeAll := func() error {
			return errors.Join(producer.Close(), consumer.Close())
		}
		return producer, []worker{{name: "sync consumer", run: consumer.Run}}, closeAll, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown sync dispatch mode %q", cfg.SyncDispatch)
	}
}

// every calls fn on each tick until ctx is cancelled.
func every(ctx context.Context, interval time.Duration, fn func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn()
		}
	}
}

func serverAddr(cfg *config.Config) string {
	return fmt.Sprintf(":%s", cfg.HTTPPort)
}
