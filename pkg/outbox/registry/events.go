package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

// EventDescriptor is everything the publisher knows about one event type.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	decode        func(json.RawMessage) (any, error)
}

// ResolvedEvent is an outbox row that passed validation, with its payload decoded.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// EventRegistry is the publisher's routing table.
type EventRegistry struct {
	byType map[enums.OutboxEventType]EventDescriptor
}

// NewEventRegistry routes order events to ordersTopic, which is a Pub/Sub
// topic id or a Kafka topic depending on the sink in use.
func NewEventRegistry(ordersTopic string) (*EventRegistry, error) {
	if ordersTopic == "" {
		return nil, errors.New("orders topic is required")
	}
	r := &EventRegistry{byType: map[enums.OutboxEventType]EventDescriptor{}}
	route[payloads.OrderCreatedEvent](r, enums.EventOrderCreated, enums.AggregateOrder, ordersTopic)
	return r, nil
}

func route[T any](r *EventRegistry, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, topic string) {
	r.byType[eventType] = EventDescriptor{
		EventType:     eventType,
		AggregateType: aggregate,
		Topic:         topic,
		decode: func(raw json.RawMessage) (any, error) {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, err
			}
			return &v, nil
		},
	}
}

// Resolve checks that row is routable and decodes its payload. Every error it
// returns is a NonRetryableError: the row itself is wrong, not the network.
func (r *EventRegistry) Resolve(row models.OutboxEvent) (*ResolvedEvent, error) {
	resolved, err := r.resolve(row)
	if err != nil {
		return nil, NewNonRetryableError(err)
	}
	return resolved, nil
}

func (r *EventRegistry) resolve(row models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.byType[row.EventType]
	switch {
	case !ok:
		return nil, fmt.Errorf("unsupported event type %s", row.EventType)
	case desc.AggregateType != row.AggregateType:
		return nil, fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, row.AggregateType)
	case row.AggregateID == uuid.Nil:
		return nil, errors.New("missing aggregate_id")
	}

	envelope, err := outbox.DecodeEnvelope(row.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if data := bytes.TrimSpace(envelope.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("payload missing for %s", row.EventType)
	}
	payload, err := desc.decode(envelope.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", row.EventType, err)
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}
