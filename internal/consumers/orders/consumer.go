package orders

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

const ordersConsumerName = "orders-notifier"

type idempotencyChecker interface {
	Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type payloadDecoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (any, error)
}

// NewDecoders registers the payload versions this consumer understands.
func NewDecoders() *registry.DecoderRegistry {
	decoders := registry.NewDecoderRegistry()
	registry.RegisterJSON(decoders, enums.EventOrderCreated, 1, func(event *payloads.OrderCreatedEvent) error {
		if event.OrderID == uuid.Nil {
			return fmt.Errorf("order_id missing")
		}
		return nil
	})
	return decoders
}

// Consumer announces placed orders, de-duplicating deliveries through Redis.
type Consumer struct {
	decoders    payloadDecoder
	manager     idempotencyChecker
	logg        *logger.Logger
	eventFilter map[enums.OutboxEventType]struct{}
}

// NewConsumer builds an orders consumer.
func NewConsumer(decoders payloadDecoder, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if decoders == nil {
		return nil, fmt.Errorf("payload decoders required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		decoders: decoders,
		manager:  manager,
		logg:     logg,
		eventFilter: map[enums.OutboxEventType]struct{}{
			enums.EventOrderCreated: {},
		},
	}, nil
}

// Handle decodes a delivered message. A nil return acknowledges it; malformed
// messages are logged and acknowledged since redelivery cannot fix them.
func (c *Consumer) Handle(ctx context.Context, attributes map[string]string, data []byte) error {
	eventType := enums.OutboxEventType(attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_type":   eventType,
		"aggregate_id": attributes["aggregate_id"],
	})

	envelope, err := outbox.DecodeEnvelope(data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return nil
	}
	return c.Process(ctx, eventType, envelope)
}

// Process handles one envelope if the event type is supported.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if _, ok := c.eventFilter[eventType]; !ok {
		c.logg.Info(logCtx, "event not handled by orders consumer")
		return nil
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return nil
	}

	claimed, err := c.manager.Claim(ctx, ordersConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if !claimed {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	version := envelope.Version
	if version == 0 {
		version = 1
	}
	decoded, err := c.decoders.Decode(eventType, version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode payload", err)
		return nil
	}

	event, ok := decoded.(*payloads.OrderCreatedEvent)
	if !ok {
		_ = c.manager.Release(ctx, ordersConsumerName, eventID)
		return fmt.Errorf("unexpected payload %T for %s", decoded, eventType)
	}

	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
		"order_id":    event.OrderID.String(),
		"customer_id": event.CustomerID.String(),
		"user_id":     event.UserID.String(),
		"item_count":  event.ItemCount,
		"total":       event.Total,
		"placed_at":   event.PlacedAt,
	}), "order created")
	return nil
}
