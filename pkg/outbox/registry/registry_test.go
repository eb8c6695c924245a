package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

func envelopeOf(t *testing.T, data string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(data),
	})
	require.NoError(t, err)
	return raw
}

func orderRow(t *testing.T, id uuid.UUID, data string) models.OutboxEvent {
	return models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   id,
		Payload:       envelopeOf(t, data),
	}
}

func TestResolveOrderCreated(t *testing.T) {
	reg, err := NewEventRegistry("orders-topic")
	require.NoError(t, err)

	orderID := uuid.New()
	resolved, err := reg.Resolve(orderRow(t, orderID, fmt.Sprintf(`{"order_id":%q,"item_count":2,"total":"30.00"}`, orderID)))
	require.NoError(t, err)

	assert.Equal(t, "orders-topic", resolved.Descriptor.Topic)
	assert.NotEmpty(t, resolved.Envelope.EventID)
	payload, ok := resolved.Payload.(*payloads.OrderCreatedEvent)
	require.True(t, ok, "%T", resolved.Payload)
	assert.Equal(t, orderID, payload.OrderID)
	assert.Equal(t, "30.00", payload.Total)
	assert.Equal(t, 2, payload.ItemCount)
}

func TestNewEventRegistryRequiresTopic(t *testing.T) {
	_, err := NewEventRegistry("")
	assert.Error(t, err)
}

func TestResolveRejectsAsNonRetryable(t *testing.T) {
	reg, err := NewEventRegistry("orders-topic")
	require.NoError(t, err)

	unknown := orderRow(t, uuid.New(), `{}`)
	unknown.EventType = "order_shipped"
	mismatched := orderRow(t, uuid.New(), `{}`)
	mismatched.AggregateType = "cart"
	broken := orderRow(t, uuid.New(), `{}`)
	broken.Payload = json.RawMessage(`{"version":`)

	for name, row := range map[string]models.OutboxEvent{
		"unknown event":        unknown,
		"aggregate mismatch":   mismatched,
		"missing aggregate id": orderRow(t, uuid.Nil, `{}`),
		"null payload":         orderRow(t, uuid.New(), `null`),
		"wrong payload shape":  orderRow(t, uuid.New(), `{"item_count":"two"}`),
		"broken envelope":      broken,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := reg.Resolve(row)
			require.Error(t, err)
			assert.True(t, IsNonRetryable(err))
		})
	}
}

func TestNonRetryableError(t *testing.T) {
	cause := errors.New("topic gone")
	wrapped := fmt.Errorf("send: %w", NewNonRetryableError(cause))
	assert.True(t, IsNonRetryable(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.False(t, IsNonRetryable(cause))
	assert.Equal(t, "non-retryable error", NonRetryableError{}.Error())
}

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	RegisterJSON(reg, enums.EventOrderCreated, 1, func(e *payloads.OrderCreatedEvent) error {
		if e.OrderID == uuid.Nil {
			return errors.New("order_id missing")
		}
		return nil
	})

	id := uuid.New()
	out, err := reg.Decode(enums.EventOrderCreated, 1, json.RawMessage(fmt.Sprintf(`{"order_id":%q}`, id)))
	require.NoError(t, err)
	assert.Equal(t, id, out.(*payloads.OrderCreatedEvent).OrderID)

	_, err = reg.Decode(enums.EventOrderCreated, 1, json.RawMessage(`{}`))
	assert.EqualError(t, err, "order_id missing")

	_, err = reg.Decode(enums.EventOrderCreated, 2, json.RawMessage(`{}`))
	assert.Error(t, err, "unregistered version")
}
