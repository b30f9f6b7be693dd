package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// FeedMessage is the envelope published on the order feed channel. Data
// carries the full domain event payload.
type FeedMessage struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	OrderID    uuid.UUID       `json:"order_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// RedisOrderFeed fans order events out to back-office subscribers through a
// per-tenant Redis channel. It subscribes to the in-process event bus on the
// publishing side; SSE handlers consume the channel on the reading side, so
// the feed works across replicas.
type RedisOrderFeed struct {
	client        *redis.Client
	channelPrefix string
	logger        *zap.Logger
}

// NewRedisOrderFeed creates a new order feed backed by Redis pub/sub
func NewRedisOrderFeed(client *redis.Client, logger *zap.Logger) *RedisOrderFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisOrderFeed{
		client:        client,
		channelPrefix: "orders:feed:",
		logger:        logger,
	}
}

// EventTypes returns the order lifecycle events carried on the feed
func (f *RedisOrderFeed) EventTypes() []string {
	return []string{
		order.EventTypeOrderCreated,
		order.EventTypeOrderPaid,
		order.EventTypeOrderStatusChanged,
	}
}

// Handle publishes the event on the tenant's feed channel. Publishing is
// fire-and-forget: a Redis outage must not fail the business operation that
// raised the event.
func (f *RedisOrderFeed) Handle(ctx context.Context, event shared.DomainEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal feed event: %w", err)
	}

	msg := FeedMessage{
		ID:         event.EventID(),
		Type:       event.EventType(),
		OrderID:    event.AggregateID(),
		OccurredAt: event.OccurredAt(),
		Data:       data,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal feed message: %w", err)
	}

	if err := f.client.Publish(ctx, f.channel(event.TenantID()), payload).Err(); err != nil {
		f.logger.Warn("Failed to publish order feed message",
			zap.String("event_type", event.EventType()),
			zap.String("tenant_id", event.TenantID().String()),
			zap.Error(err))
	}
	return nil
}

// Subscribe opens a subscription on the tenant's feed channel. The caller
// owns the returned PubSub and must Close it.
func (f *RedisOrderFeed) Subscribe(ctx context.Context, tenantID uuid.UUID) *redis.PubSub {
	return f.client.Subscribe(ctx, f.channel(tenantID))
}

func (f *RedisOrderFeed) channel(tenantID uuid.UUID) string {
	return f.channelPrefix + tenantID.String()
}

var _ shared.EventHandler = (*RedisOrderFeed)(nil)
