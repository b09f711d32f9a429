package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/RiBaSoOrg/BasketService/internal/catalog"
	"github.com/RiBaSoOrg/BasketService/internal/config"
	"github.com/RiBaSoOrg/BasketService/internal/event"
	handler "github.com/RiBaSoOrg/BasketService/internal/handler/http"
	"github.com/RiBaSoOrg/BasketService/internal/repository/postgres"
	"github.com/RiBaSoOrg/BasketService/internal/service"
	"github.com/RiBaSoOrg/BasketService/pkg/database"
	"github.com/RiBaSoOrg/BasketService/pkg/health"
	pkgkafka "github.com/RiBaSoOrg/BasketService/pkg/kafka"
	"github.com/RiBaSoOrg/BasketService/pkg/tracing"
)

// idempotencyTTL bounds how long processed admin event IDs are remembered.
const idempotencyTTL = 24 * time.Hour

// App wires together all dependencies and runs the basket service.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	pool            *pgxpool.Pool
	redis           *redis.Client
	producer        *pkgkafka.Producer
	dlq             *pkgkafka.DLQProducer
	consumers       []*pkgkafka.Consumer
	httpServer      *http.Server
	tracingShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Tracing.
	traceCfg := tracing.DefaultConfig("basket-service")
	traceCfg.Environment = cfg.Environment
	traceCfg.OTLPEndpoint = cfg.OTELEndpoint
	traceCfg.Enabled = cfg.OTELEnabled
	tracingShutdown, err := tracing.InitTracer(ctx, traceCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// PostgreSQL connection pool and schema.
	pgCfg := cfg.PostgresConfig()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, postgres.Migrations, postgres.MigrationsDir, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// Redis for the catalog record cache. The service runs without the
	// cache when Redis is unreachable; every lookup then goes to the broker.
	var (
		redisClient *redis.Client
		recordCache *catalog.RecordCache
	)
	redisClient, err = database.NewRedisClient(ctx, cfg.RedisConfig())
	if err != nil {
		logger.Warn("redis unavailable, catalog cache disabled", slog.String("error", err.Error()))
		redisClient = nil
	} else {
		recordCache = catalog.NewRecordCache(redisClient, cfg.CatalogCacheTTL)
		logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))
	}

	// Kafka producer shared by the lookup bridge and outbound events.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	repo := postgres.NewBasketRepository(pool)

	registry := catalog.NewRegistry()
	catalogClient := catalog.NewClient(kafkaProducer, registry, recordCache, catalog.ClientConfig{
		RequestTopic: cfg.CatalogRequestTopic,
		Timeout:      cfg.CatalogLookupTimeout,
		Source:       event.SourceBasketService,
	}, logger)

	eventProducer := event.NewProducer(kafkaProducer, logger)
	basketService := service.NewBasketService(repo, catalogClient, eventProducer, logger)

	// Kafka consumers: catalog replies plus the administrative feeds.
	dlq := pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
	idempotency := pkgkafka.NewMemoryIdempotencyStore(idempotencyTTL)

	replyHandler := catalog.NewReplyHandler(registry, logger)
	replyConsumer := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers: cfg.KafkaBrokers,
		GroupID: cfg.KafkaGroupID,
		Topic:   cfg.CatalogReplyTopic,
	}, replyHandler.Handle, logger)

	adminConsumer := event.NewAdminConsumer(repo, logger)
	priceChangeConsumer := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:     cfg.KafkaBrokers,
		GroupID:     cfg.KafkaGroupID,
		Topic:       cfg.AdminPriceChangeTopic,
		Idempotency: idempotency,
		DLQ:         dlq,
	}, adminConsumer.HandlePriceChange, logger)
	itemSyncConsumer := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:     cfg.KafkaBrokers,
		GroupID:     cfg.KafkaGroupID,
		Topic:       cfg.AdminItemSyncTopic,
		Idempotency: idempotency,
		DLQ:         dlq,
	}, adminConsumer.HandleItemSync, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return kafkaProducer.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// HTTP server.
	router := handler.NewRouter(basketService, healthHandler, logger, cfg.CORSOrigin)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		pool:            pool,
		redis:           redisClient,
		producer:        kafkaProducer,
		dlq:             dlq,
		consumers:       []*pkgkafka.Consumer{replyConsumer, priceChangeConsumer, itemSyncConsumer},
		httpServer:      httpServer,
		tracingShutdown: tracingShutdown,
	}, nil
}

// Run starts the HTTP server and Kafka consumers, then blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	for _, consumer := range a.consumers {
		c := consumer
		go func() {
			if err := c.Start(ctx); err != nil {
				a.logger.Error("kafka consumer error", slog.String("error", err.Error()))
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	for _, consumer := range a.consumers {
		if err := consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}
	if err := a.dlq.Close(); err != nil {
		a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	a.pool.Close()

	if err := a.tracingShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
