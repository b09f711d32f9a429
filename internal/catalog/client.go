package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/RiBaSoOrg/BasketService/internal/domain"
	"github.com/RiBaSoOrg/BasketService/pkg/kafka"
)

// ErrNotFound is returned when the catalog explicitly answered that the book
// does not exist. ErrTimedOut (registry.go) is returned when no reply arrived
// before the configured deadline.
var ErrNotFound = errors.New("catalog: book not found")

// ErrUnavailable is returned when the exchange could not be attempted at all:
// the circuit breaker is open or the request could not be published.
var ErrUnavailable = errors.New("catalog: lookup unavailable")

// publisher abstracts the Kafka producer for testing.
type publisher interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// ClientConfig holds the lookup bridge configuration. Timeout bounds the
// whole request/reply exchange and is a service-wide constant, not a per-call
// parameter.
type ClientConfig struct {
	RequestTopic string
	Timeout      time.Duration
	Source       string
}

// Client is the catalog lookup bridge. It makes the asynchronous
// request/reply exchange over the broker appear as a single bounded
// synchronous call: register a correlation token, publish the request, await
// the reply through the registry, and always unregister the token before
// returning.
type Client struct {
	publisher publisher
	registry  *Registry
	cache     *RecordCache
	breaker   *gobreaker.CircuitBreaker[*domain.CatalogRecord]
	cfg       ClientConfig
	logger    *slog.Logger
}

// NewClient creates a lookup bridge. cache may be nil to disable caching.
func NewClient(pub publisher, registry *Registry, cache *RecordCache, cfg ClientConfig, logger *slog.Logger) *Client {
	c := &Client{
		publisher: pub,
		registry:  registry,
		cache:     cache,
		cfg:       cfg,
		logger:    logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker[*domain.CatalogRecord](gobreaker.Settings{
		Name:        "catalog-lookup",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		// An explicit not-found answer is a healthy exchange, not a failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("catalog lookup breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return c
}

// Lookup resolves a book against the catalog. It returns ErrNotFound for an
// explicit not-found reply, ErrTimedOut when no reply arrived in time, and
// ErrUnavailable when the breaker is open or publishing failed.
func (c *Client) Lookup(ctx context.Context, bookID string) (*domain.CatalogRecord, error) {
	if c.cache != nil {
		record, err := c.cache.Get(ctx, bookID)
		if err != nil {
			c.logger.WarnContext(ctx, "catalog cache read failed",
				slog.String("book_id", bookID),
				slog.String("error", err.Error()),
			)
		} else if record != nil {
			lookupsTotal.WithLabelValues(outcomeCacheHit).Inc()
			return record, nil
		}
	}

	start := time.Now()
	record, err := c.breaker.Execute(func() (*domain.CatalogRecord, error) {
		return c.exchange(ctx, bookID)
	})
	lookupDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			lookupsTotal.WithLabelValues(outcomeNotFound).Inc()
		case errors.Is(err, ErrTimedOut):
			lookupsTotal.WithLabelValues(outcomeTimeout).Inc()
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			lookupsTotal.WithLabelValues(outcomeCircuitOpen).Inc()
			return nil, fmt.Errorf("%w: circuit open", ErrUnavailable)
		default:
			lookupsTotal.WithLabelValues(outcomeError).Inc()
		}
		return nil, err
	}

	lookupsTotal.WithLabelValues(outcomeResolved).Inc()

	if c.cache != nil {
		if err := c.cache.Set(ctx, record); err != nil {
			c.logger.WarnContext(ctx, "catalog cache write failed",
				slog.String("book_id", bookID),
				slog.String("error", err.Error()),
			)
		}
	}

	return record, nil
}

// exchange performs one request/reply round trip. The token is unregistered
// on every exit path so the registry never leaks entries.
func (c *Client) exchange(ctx context.Context, bookID string) (*domain.CatalogRecord, error) {
	token := c.registry.Register()
	defer c.registry.Unregister(token)

	event, err := kafka.NewEvent(EventTypeBookRequested, bookID, AggregateTypeBook, c.cfg.Source, BookRequestData{BookID: bookID})
	if err != nil {
		return nil, fmt.Errorf("create lookup request: %w", err)
	}
	event.WithCorrelationID(token)

	if err := c.publisher.Publish(ctx, c.cfg.RequestTopic, event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.logger.DebugContext(ctx, "catalog lookup request published",
		slog.String("book_id", bookID),
		slog.String("correlation_id", token),
	)

	res, err := c.registry.Await(ctx, token, c.cfg.Timeout)
	if err != nil {
		return nil, err
	}

	if res.NotFound {
		return nil, ErrNotFound
	}
	return res.Record, nil
}
