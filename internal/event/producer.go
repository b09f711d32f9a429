package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RiBaSoOrg/BasketService/internal/domain"
	pkgkafka "github.com/RiBaSoOrg/BasketService/pkg/kafka"
)

// Kafka topic constants for basket domain events.
const (
	TopicBasketCreated = "bookstore.basket.created"
	TopicBasketDeleted = "bookstore.basket.deleted"
	TopicItemAdded     = "bookstore.basket.item_added"
	TopicItemRemoved   = "bookstore.basket.item_removed"
)

// Event type constants carried in the envelope.
const (
	EventTypeBasketCreated = "basket.created"
	EventTypeBasketDeleted = "basket.deleted"
	EventTypeItemAdded     = "basket.item_added"
	EventTypeItemRemoved   = "basket.item_removed"
)

// Aggregate type constant.
const AggregateTypeBasket = "basket"

// SourceBasketService identifies events originating from this service.
const SourceBasketService = "basket-service"

// BasketCreatedData is the payload for a basket.created event.
type BasketCreatedData struct {
	BasketID string `json:"basket_id"`
	UserID   string `json:"user_id"`
}

// BasketDeletedData is the payload for a basket.deleted event.
type BasketDeletedData struct {
	BasketID string `json:"basket_id"`
}

// ItemChangedData is the payload for item_added and item_removed events.
type ItemChangedData struct {
	BasketID  string `json:"basket_id"`
	ItemID    string `json:"item_id"`
	Name      string `json:"name,omitempty"`
	Amount    int    `json:"amount"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price,omitempty"`
}

// kafkaPublisher abstracts the Kafka producer for testing.
type kafkaPublisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes basket domain events to Kafka. Publishing is best
// effort: callers log failures and never fail the originating operation.
type Producer struct {
	kafka  kafkaPublisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the basket service.
func NewProducer(kafka kafkaPublisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishBasketCreated publishes a basket.created event.
func (p *Producer) PublishBasketCreated(ctx context.Context, basket *domain.Basket) error {
	data := BasketCreatedData{
		BasketID: basket.ID,
		UserID:   basket.UserID,
	}
	return p.publish(ctx, TopicBasketCreated, EventTypeBasketCreated, basket.ID, data)
}

// PublishBasketDeleted publishes a basket.deleted event.
func (p *Producer) PublishBasketDeleted(ctx context.Context, basketID string) error {
	data := BasketDeletedData{BasketID: basketID}
	return p.publish(ctx, TopicBasketDeleted, EventTypeBasketDeleted, basketID, data)
}

// PublishItemAdded publishes a basket.item_added event with the item's state
// after the mutation.
func (p *Producer) PublishItemAdded(ctx context.Context, basketID string, item *domain.Item, amount int) error {
	data := ItemChangedData{
		BasketID:  basketID,
		ItemID:    item.ID,
		Name:      item.Name,
		Amount:    amount,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice.StringFixed(2),
	}
	return p.publish(ctx, TopicItemAdded, EventTypeItemAdded, basketID, data)
}

// PublishItemRemoved publishes a basket.item_removed event. Quantity is the
// remaining quantity, zero when the item left the basket entirely.
func (p *Producer) PublishItemRemoved(ctx context.Context, basketID, itemID string, amount, remaining int) error {
	data := ItemChangedData{
		BasketID: basketID,
		ItemID:   itemID,
		Amount:   amount,
		Quantity: remaining,
	}
	return p.publish(ctx, TopicItemRemoved, EventTypeItemRemoved, basketID, data)
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID string, data any) error {
	evt, err := pkgkafka.NewEvent(eventType, aggregateID, AggregateTypeBasket, SourceBasketService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "basket event published",
		slog.String("topic", topic),
		slog.String("event_type", eventType),
		slog.String("basket_id", aggregateID),
	)
	return nil
}
