package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "http://localhost:3000", cfg.CORSOrigin)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "bookstore.catalog.requests", cfg.CatalogRequestTopic)
	assert.Equal(t, "bookstore.catalog.replies", cfg.CatalogReplyTopic)
	assert.Equal(t, 10*time.Second, cfg.CatalogLookupTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BASKET_HTTP_PORT", "9999")
	t.Setenv("KAFKA_BROKERS", "kafka1:9092,kafka2:9092")
	t.Setenv("CATALOG_LOOKUP_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.HTTPPort)
	assert.Equal(t, []string{"kafka1:9092", "kafka2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2*time.Second, cfg.CatalogLookupTimeout)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("BASKET_HTTP_PORT", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("CATALOG_LOOKUP_TIMEOUT", "-1s")

	_, err := Load()
	require.Error(t, err)
}

func TestPostgresConfig(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("BASKET_DB_NAME", "baskets_test")

	cfg, err := Load()
	require.NoError(t, err)

	pg := cfg.PostgresConfig()
	assert.Equal(t, "db.internal", pg.Host)
	assert.Equal(t, "baskets_test", pg.DBName)
	assert.Contains(t, pg.DSN(), "db.internal")
}
