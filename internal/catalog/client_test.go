package catalog

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RiBaSoOrg/BasketService/internal/domain"
	"github.com/RiBaSoOrg/BasketService/pkg/kafka"
)

// fakePublisher captures published events and optionally resolves the
// registry like a catalog service would.
type fakePublisher struct {
	err       error
	published []*kafka.Event
	onPublish func(event *kafka.Event)
}

func (p *fakePublisher) Publish(_ context.Context, _ string, event *kafka.Event) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event)
	if p.onPublish != nil {
		p.onPublish(event)
	}
	return nil
}

func testClientConfig() ClientConfig {
	return ClientConfig{
		RequestTopic: "bookstore.catalog.requests",
		Timeout:      100 * time.Millisecond,
		Source:       "basketservice-test",
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestClientLookupResolved(t *testing.T) {
	registry := NewRegistry()
	record := &domain.CatalogRecord{ID: "book-1", Title: "Dune", Price: decimal.RequireFromString("9.99")}

	pub := &fakePublisher{}
	pub.onPublish = func(event *kafka.Event) {
		// Reply arrives asynchronously, correlated by token.
		go registry.Resolve(event.CorrelationID, Result{Record: record})
	}

	client := NewClient(pub, registry, nil, testClientConfig(), testLogger())

	got, err := client.Lookup(context.Background(), "book-1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.True(t, record.Price.Equal(got.Price))

	require.Len(t, pub.published, 1)
	assert.Equal(t, EventTypeBookRequested, pub.published[0].EventType)
	assert.NotEmpty(t, pub.published[0].CorrelationID)
	assert.Equal(t, 0, registry.Len())
}

func TestClientLookupNotFound(t *testing.T) {
	registry := NewRegistry()

	pub := &fakePublisher{}
	pub.onPublish = func(event *kafka.Event) {
		go registry.Resolve(event.CorrelationID, Result{NotFound: true})
	}

	client := NewClient(pub, registry, nil, testClientConfig(), testLogger())

	_, err := client.Lookup(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, registry.Len())
}

func TestClientLookupTimesOutAndCleansUp(t *testing.T) {
	registry := NewRegistry()
	pub := &fakePublisher{} // nobody ever replies

	cfg := testClientConfig()
	cfg.Timeout = 20 * time.Millisecond
	client := NewClient(pub, registry, nil, cfg, testLogger())

	_, err := client.Lookup(context.Background(), "book-1")
	require.ErrorIs(t, err, ErrTimedOut)

	// The token must not leak after a timeout.
	assert.Equal(t, 0, registry.Len())
}

func TestClientLookupPublishFailure(t *testing.T) {
	registry := NewRegistry()
	pub := &fakePublisher{err: errors.New("broker down")}

	client := NewClient(pub, registry, nil, testClientConfig(), testLogger())

	_, err := client.Lookup(context.Background(), "book-1")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 0, registry.Len())
}

func TestClientLookupContextCanceled(t *testing.T) {
	registry := NewRegistry()
	pub := &fakePublisher{}

	client := NewClient(pub, registry, nil, testClientConfig(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Lookup(ctx, "book-1")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, registry.Len())
}

func TestClientLookupCacheHitSkipsExchange(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRecordCache(rdb, time.Minute)

	record := &domain.CatalogRecord{ID: "book-1", Title: "Dune", Price: decimal.RequireFromString("9.99")}
	require.NoError(t, cache.Set(context.Background(), record))

	registry := NewRegistry()
	pub := &fakePublisher{} // would time out if reached

	client := NewClient(pub, registry, cache, testClientConfig(), testLogger())

	got, err := client.Lookup(context.Background(), "book-1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.Empty(t, pub.published)
}

func TestClientLookupResolvedPopulatesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRecordCache(rdb, time.Minute)

	registry := NewRegistry()
	record := &domain.CatalogRecord{ID: "book-2", Title: "Hyperion", Price: decimal.RequireFromString("14.50")}

	pub := &fakePublisher{}
	pub.onPublish = func(event *kafka.Event) {
		go registry.Resolve(event.CorrelationID, Result{Record: record})
	}

	client := NewClient(pub, registry, cache, testClientConfig(), testLogger())

	_, err := client.Lookup(context.Background(), "book-2")
	require.NoError(t, err)

	cached, err := cache.Get(context.Background(), "book-2")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "Hyperion", cached.Title)
}

func TestClientBreakerOpensAfterRepeatedTimeouts(t *testing.T) {
	registry := NewRegistry()
	pub := &fakePublisher{}

	cfg := testClientConfig()
	cfg.Timeout = 5 * time.Millisecond
	client := NewClient(pub, registry, nil, cfg, testLogger())

	for i := 0; i < 5; i++ {
		_, err := client.Lookup(context.Background(), "book-1")
		require.ErrorIs(t, err, ErrTimedOut)
	}

	// The breaker has tripped; the next lookup fails fast without
	// publishing a request.
	published := len(pub.published)
	_, err := client.Lookup(context.Background(), "book-1")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Len(t, pub.published, published)
	assert.Equal(t, 0, registry.Len())
}

func TestClientNotFoundDoesNotTripBreaker(t *testing.T) {
	registry := NewRegistry()

	pub := &fakePublisher{}
	pub.onPublish = func(event *kafka.Event) {
		go registry.Resolve(event.CorrelationID, Result{NotFound: true})
	}

	client := NewClient(pub, registry, nil, testClientConfig(), testLogger())

	for i := 0; i < 10; i++ {
		_, err := client.Lookup(context.Background(), "missing")
		require.ErrorIs(t, err, ErrNotFound)
	}
}
