package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

// Handler processes one message. Returning nil commits its offset.
type Handler func(ctx context.Context, msg kafka.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Reader consumes a topic as part of a consumer group with manual commits.
type Reader struct {
	r       messageReader
	brokers []string
}

// NewReader subscribes the configured consumer group to topic.
func NewReader(cfg config.KafkaConfig, topic string) (*Reader, error) {
	brokers := cleanBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errNoBrokers
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	if cfg.ConsumerGroup == "" {
		return nil, errors.New("kafka consumer group is required")
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        cfg.ConsumerGroup,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
	return &Reader{r: r, brokers: brokers}, nil
}

// Consume fetches messages until ctx is done. A handler error leaves the offset
// uncommitted so the message is redelivered after a rebalance or restart.
func (r *Reader) Consume(ctx context.Context, h Handler) error {
	for {
		msg, err := r.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("fetching message: %w", err)
		}
		if err := h(ctx, msg); err != nil {
			continue
		}
		if err := r.r.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("committing offset %d: %w", msg.Offset, err)
		}
	}
}

// Ping dials the first reachable broker.
func (r *Reader) Ping(ctx context.Context) error {
	return pingBrokers(ctx, r.brokers)
}

func (r *Reader) Close() error {
	if r == nil || r.r == nil {
		return nil
	}
	return r.r.Close()
}
