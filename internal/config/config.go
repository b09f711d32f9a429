package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/RiBaSoOrg/BasketService/pkg/config"
	"github.com/RiBaSoOrg/BasketService/pkg/database"
)

// Config holds all configuration for the basket service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort   int    `env:"BASKET_HTTP_PORT" envDefault:"8080"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"http://localhost:3000"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"basket"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"basket_secret"`
	PostgresDB   string `env:"BASKET_DB_NAME" envDefault:"basketservice"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"basket-service"`

	// Catalog request/reply exchange
	CatalogRequestTopic  string        `env:"CATALOG_REQUEST_TOPIC" envDefault:"bookstore.catalog.requests"`
	CatalogReplyTopic    string        `env:"CATALOG_REPLY_TOPIC" envDefault:"bookstore.catalog.replies"`
	CatalogLookupTimeout time.Duration `env:"CATALOG_LOOKUP_TIMEOUT" envDefault:"10s"`
	CatalogCacheTTL      time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`

	// Administrative feeds
	AdminPriceChangeTopic string `env:"ADMIN_PRICE_CHANGE_TOPIC" envDefault:"bookstore.admin.price_change"`
	AdminItemSyncTopic    string `env:"ADMIN_ITEM_SYNC_TOPIC" envDefault:"bookstore.admin.item_sync"`

	// Tracing
	OTELEnabled  bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load basket config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("at least one Kafka broker is required")
	}
	if c.CatalogLookupTimeout <= 0 {
		return fmt.Errorf("catalog lookup timeout must be positive: %s", c.CatalogLookupTimeout)
	}
	return nil
}

// PostgresConfig returns the connection pool configuration.
func (c *Config) PostgresConfig() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPass
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSL
	return pg
}

// RedisConfig returns the Redis client configuration.
func (c *Config) RedisConfig() database.RedisConfig {
	return database.RedisConfig{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
