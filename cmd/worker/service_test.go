package main

import (
	"context"
	"errors"
	"io"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/kafka"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type okPinger struct{ err error }

func (p okPinger) Ping(context.Context) error { return p.err }

type recordingHandler struct {
	attrs []map[string]string
	err   error
}

func (h *recordingHandler) Handle(_ context.Context, attributes map[string]string, _ []byte) error {
	h.attrs = append(h.attrs, attributes)
	return h.err
}

type stubReader struct {
	msgs      []kafkago.Message
	committed int
}

func (r *stubReader) Ping(context.Context) error { return nil }

func (r *stubReader) Consume(ctx context.Context, h kafka.Handler) error {
	for _, msg := range r.msgs {
		if err := h(ctx, msg); err == nil {
			r.committed++
		}
	}
	return context.Canceled
}

func newWorker(t *testing.T, src source, h messageHandler, redisErr error) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:  &config.Config{},
		Logger:  logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard}),
		DB:      okPinger{},
		Redis:   okPinger{err: redisErr},
		Source:  src,
		Handler: h,
	})
	require.NoError(t, err)
	return svc
}

func TestKafkaSourceForwardsHeaders(t *testing.T) {
	reader := &stubReader{msgs: []kafkago.Message{{
		Value:   []byte(`{}`),
		Headers: kafka.HeadersFromMap(map[string]string{"event_type": "order_created"}),
	}}}
	handler := &recordingHandler{}

	err := (&kafkaSource{reader: reader}).Run(context.Background(), handler)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, handler.attrs, 1)
	assert.Equal(t, "order_created", handler.attrs[0]["event_type"])
	assert.Equal(t, 1, reader.committed)
}

func TestKafkaSourceLeavesFailedMessagesUncommitted(t *testing.T) {
	reader := &stubReader{msgs: []kafkago.Message{{Value: []byte(`{}`)}}}
	handler := &recordingHandler{err: errors.New("redis down")}

	_ = (&kafkaSource{reader: reader}).Run(context.Background(), handler)
	assert.Zero(t, reader.committed)
}

func TestWorkerStopsWhenDependencyIsDown(t *testing.T) {
	svc := newWorker(t, &kafkaSource{reader: &stubReader{}}, &recordingHandler{}, errors.New("no redis"))

	err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestNewServiceRequiresSource(t *testing.T) {
	_, err := NewService(ServiceParams{
		Config:  &config.Config{},
		Logger:  logger.New(logger.Options{Output: io.Discard}),
		DB:      okPinger{},
		Redis:   okPinger{},
		Handler: &recordingHandler{},
	})
	assert.Error(t, err)
}
