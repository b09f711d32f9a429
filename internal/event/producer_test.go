package event

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RiBaSoOrg/BasketService/internal/domain"
	pkgkafka "github.com/RiBaSoOrg/BasketService/pkg/kafka"
)

type capturedEvent struct {
	topic string
	event *pkgkafka.Event
}

type fakePublisher struct {
	err      error
	captured []capturedEvent
}

func (p *fakePublisher) Publish(_ context.Context, topic string, event *pkgkafka.Event) error {
	if p.err != nil {
		return p.err
	}
	p.captured = append(p.captured, capturedEvent{topic: topic, event: event})
	return nil
}

func TestPublishBasketCreated(t *testing.T) {
	pub := &fakePublisher{}
	producer := NewProducer(pub, newTestLogger())

	basket := &domain.Basket{ID: "basket-001", UserID: "user-001"}
	require.NoError(t, producer.PublishBasketCreated(context.Background(), basket))

	require.Len(t, pub.captured, 1)
	assert.Equal(t, TopicBasketCreated, pub.captured[0].topic)
	assert.Equal(t, EventTypeBasketCreated, pub.captured[0].event.EventType)
	assert.Equal(t, "basket-001", pub.captured[0].event.AggregateID)

	var data BasketCreatedData
	require.NoError(t, pub.captured[0].event.UnmarshalData(&data))
	assert.Equal(t, "user-001", data.UserID)
}

func TestPublishItemAdded(t *testing.T) {
	pub := &fakePublisher{}
	producer := NewProducer(pub, newTestLogger())

	item := &domain.Item{ID: "book-001", Name: "Dune", Quantity: 5, UnitPrice: decimal.RequireFromString("9.99")}
	require.NoError(t, producer.PublishItemAdded(context.Background(), "basket-001", item, 2))

	require.Len(t, pub.captured, 1)
	var data ItemChangedData
	require.NoError(t, pub.captured[0].event.UnmarshalData(&data))
	assert.Equal(t, 2, data.Amount)
	assert.Equal(t, 5, data.Quantity)
	assert.Equal(t, "9.99", data.UnitPrice)
}

func TestPublishItemRemoved(t *testing.T) {
	pub := &fakePublisher{}
	producer := NewProducer(pub, newTestLogger())

	require.NoError(t, producer.PublishItemRemoved(context.Background(), "basket-001", "book-001", 2, 0))

	require.Len(t, pub.captured, 1)
	assert.Equal(t, TopicItemRemoved, pub.captured[0].topic)
	var data ItemChangedData
	require.NoError(t, pub.captured[0].event.UnmarshalData(&data))
	assert.Equal(t, 0, data.Quantity)
}

func TestPublishPropagatesBrokerError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	producer := NewProducer(pub, newTestLogger())

	err := producer.PublishBasketDeleted(context.Background(), "basket-001")
	assert.Error(t, err)
}
