package main

import (
	"context"
	"fmt"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/kafka"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
	"github.com/angelmondragon/storefront-backend/pkg/pubsub"
)

type pubsubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

// pubsubSink keeps one publisher per topic so batching and flow control are reused.
type pubsubSink struct {
	client     pubsubClient
	mu         sync.Mutex
	publishers map[string]*gcppubsub.Publisher
}

func newPubSubSink(client pubsubClient) *pubsubSink {
	return &pubsubSink{client: client, publishers: map[string]*gcppubsub.Publisher{}}
}

func (p *pubsubSink) Name() string { return config.EventSinkPubSub }

func (p *pubsubSink) Ping(ctx context.Context) error { return p.client.Ping(ctx) }

func (p *pubsubSink) publisher(topic string) *gcppubsub.Publisher {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pub, ok := p.publishers[topic]; ok {
		return pub
	}
	pub := p.client.Publisher(topic)
	if pub != nil {
		p.publishers[topic] = pub
	}
	return pub
}

func (p *pubsubSink) Publish(ctx context.Context, topic string, msg message) error {
	pub := p.publisher(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}
	result := pub.Publish(ctx, &gcppubsub.Message{
		Data:       msg.Data,
		Attributes: msg.Attributes,
	})
	_, err := result.Get(ctx)
	return err
}

// Close flushes every cached publisher.
func (p *pubsubSink) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for topic, pub := range p.publishers {
		pub.Stop()
		delete(p.publishers, topic)
	}
	return nil
}

type kafkaWriter interface {
	Ping(context.Context) error
	Write(ctx context.Context, topic string, msgs ...kafkago.Message) error
}

type kafkaSink struct {
	writer kafkaWriter
}

func (k *kafkaSink) Name() string { return config.EventSinkKafka }

func (k *kafkaSink) Ping(ctx context.Context) error { return k.writer.Ping(ctx) }

func (k *kafkaSink) Publish(ctx context.Context, topic string, msg message) error {
	return k.writer.Write(ctx, topic, kafkago.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Data,
		Headers: kafka.HeadersFromMap(msg.Attributes),
	})
}

// openSink builds the configured sink, the topic events are routed to, and a
// closer releasing every client it opened.
func openSink(ctx context.Context, cfg *config.Config, logg *logger.Logger) (sink, string, func() error, error) {
	if cfg.Outbox.UsesKafka() {
		writer, err := kafka.NewWriter(ctx, cfg.Kafka, logg)
		if err != nil {
			return nil, "", nil, fmt.Errorf("bootstrap kafka: %w", err)
		}
		return &kafkaSink{writer: writer}, cfg.Kafka.OrdersTopic, writer.Close, nil
	}

	client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, pubsub.RolePublish, logg)
	if err != nil {
		return nil, "", nil, fmt.Errorf("bootstrap pubsub: %w", err)
	}
	s := newPubSubSink(client)
	closer := func() error {
		return multierr.Combine(s.Close(), client.Close())
	}
	return s, cfg.PubSub.OrdersTopic, closer, nil
}
