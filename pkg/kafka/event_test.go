package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	event, err := NewEvent("catalog.book.requested", "book-1", "book", "basket-service", map[string]string{"book_id": "book-1"})
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "catalog.book.requested", event.EventType)
	assert.Equal(t, "book-1", event.AggregateID)
	assert.Equal(t, 1, event.Version)
	assert.Empty(t, event.CorrelationID)
}

func TestEvent_RoundTrip(t *testing.T) {
	event, err := NewEvent("catalog.book.resolved", "book-1", "book", "catalog-service", map[string]string{"title": "Test Book"})
	require.NoError(t, err)
	event.WithCorrelationID("corr-1")

	data, err := event.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(data)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "corr-1", decoded.CorrelationID)

	var payload map[string]string
	require.NoError(t, decoded.UnmarshalData(&payload))
	assert.Equal(t, "Test Book", payload["title"])
}

func TestUnmarshalEvent_RejectsUntyped(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{"data":{}}`))
	assert.Error(t, err)

	_, err = UnmarshalEvent([]byte(`not json`))
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "bookstore.catalog.requests", Topic("catalog", "requests"))
}

func TestMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryIdempotencyStore(time.Minute)

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "evt-1"))

	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryIdempotencyStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryIdempotencyStore(time.Nanosecond)

	require.NoError(t, store.Add(ctx, "evt-1"))
	time.Sleep(time.Millisecond)

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestDLQTopic(t *testing.T) {
	assert.Equal(t, "bookstore.dlq.bookstore.catalog.requests", DLQTopic("bookstore.catalog.requests"))
}
