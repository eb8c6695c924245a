package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func newOrderEvent(aggregateID uuid.UUID) DomainEvent {
	return DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   aggregateID,
		Actor:         &ActorRef{UserID: uuid.New()},
		Data:          map[string]string{"order_id": aggregateID.String()},
	}
}

func TestServiceEmitWritesEnvelope(t *testing.T) {
	client := dbtest.Open(t)
	svc := NewService(NewRepository(client.DB()), logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))

	orderID := uuid.New()
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, newOrderEvent(orderID))
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, client.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, orderID, rows[0].AggregateID)
	assert.Nil(t, rows[0].PublishedAt)

	envelope, err := DecodeEnvelope(rows[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.JSONEq(t, `{"order_id":"`+orderID.String()+`"}`, string(envelope.Data))
}

func TestServiceEmitRequiresTx(t *testing.T) {
	svc := NewService(&Repository{}, nil)
	require.Error(t, svc.Emit(context.Background(), nil, newOrderEvent(uuid.New())))
}

func TestServiceEmitRolledBackWithTx(t *testing.T) {
	client := dbtest.Open(t)
	svc := NewService(NewRepository(client.DB()), nil)

	boom := errors.New("boom")
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, newOrderEvent(uuid.New())); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestServiceEmitIfNotExists(t *testing.T) {
	client := dbtest.Open(t)
	svc := NewService(NewRepository(client.DB()), nil)

	orderID := uuid.New()
	for i := 0; i < 2; i++ {
		err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
			return svc.EmitIfNotExists(context.Background(), tx, newOrderEvent(orderID))
		})
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())

	payload := json.RawMessage(`{"version":1}`)
	first := models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: payload}
	second := models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: payload, AttemptCount: 3}
	dbtest.MustCreate(t, client.DB(), &first, &second)

	rows, err := repo.FetchUnpublishedForPublish(client.DB(), 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1, "rows at the attempt ceiling are skipped")
	assert.Equal(t, first.ID, rows[0].ID)

	require.NoError(t, repo.MarkFailedTx(client.DB(), first.ID, errors.New(strings.Repeat("x", 2000))))
	var failed models.OutboxEvent
	require.NoError(t, client.DB().First(&failed, "id = ?", first.ID).Error)
	assert.Equal(t, 1, failed.AttemptCount)
	require.NotNil(t, failed.LastError)
	assert.Len(t, *failed.LastError, maxLastErrorLen)

	require.NoError(t, repo.MarkPublishedTx(client.DB(), first.ID))
	rows, err = repo.FetchUnpublishedForPublish(client.DB(), 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second.ID, rows[0].ID)

	require.NoError(t, repo.MarkTerminalTx(client.DB(), second.ID, errors.New("bad payload"), 3))
	rows, err = repo.FetchUnpublishedForPublish(client.DB(), 10, 3)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDLQRepository(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewDLQRepository(client.DB())

	msg := strings.Repeat("e", 1500)
	entry := models.OutboxDLQ{
		EventID:       uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonNonRetryable,
		ErrorMessage:  &msg,
	}
	require.NoError(t, repo.InsertTx(client.DB(), entry))

	rows, err := repo.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, entry.EventID, rows[0].EventID)
	assert.Len(t, *rows[0].ErrorMessage, maxDLQErrorLen)

	n, err := repo.CountSince(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.CountSince(context.Background(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRepositoryDeletePublishedBefore(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())

	now := time.Now().UTC()
	old := now.AddDate(0, 0, -40)
	recent := now.AddDate(0, 0, -1)
	payload := json.RawMessage(`{}`)
	stale := models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: payload, PublishedAt: &old}
	fresh := models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: payload, PublishedAt: &recent}
	pending := models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: payload}
	dbtest.MustCreate(t, client.DB(), &stale, &fresh, &pending)

	deleted, err := repo.DeletePublishedBefore(context.Background(), nil, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []models.OutboxEvent
	require.NoError(t, client.DB().Order("created_at").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	for _, row := range remaining {
		assert.NotEqual(t, stale.ID, row.ID)
	}
}
