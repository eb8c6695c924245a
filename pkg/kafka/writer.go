package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const dialTimeout = 5 * time.Second

var errNoBrokers = errors.New("kafka brokers are required")

// Writer publishes synchronously so callers can mark outbox rows only after the broker acked.
type Writer struct {
	w       *kafka.Writer
	brokers []string
}

// NewWriter builds a writer that routes by message key across partitions.
func NewWriter(ctx context.Context, cfg config.KafkaConfig, logg *logger.Logger) (*Writer, error) {
	brokers := cleanBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errNoBrokers
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: false,
		BatchTimeout:           10 * time.Millisecond,
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "brokers", strings.Join(brokers, ",")), "kafka writer initialized")
	}
	return &Writer{w: w, brokers: brokers}, nil
}

// Write sends messages to topic and blocks until the brokers acknowledge them.
func (w *Writer) Write(ctx context.Context, topic string, msgs ...kafka.Message) error {
	if w == nil || w.w == nil {
		return errors.New("kafka writer not initialized")
	}
	for i := range msgs {
		msgs[i].Topic = topic
	}
	if err := w.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("writing to %s: %w", topic, err)
	}
	return nil
}

// Ping dials the first reachable broker.
func (w *Writer) Ping(ctx context.Context) error {
	if w == nil {
		return errors.New("kafka writer not initialized")
	}
	return pingBrokers(ctx, w.brokers)
}

// Close flushes pending writes and releases the connections.
func (w *Writer) Close() error {
	if w == nil || w.w == nil {
		return nil
	}
	return w.w.Close()
}

// HeadersFromMap converts message attributes into Kafka headers in a stable order.
func HeadersFromMap(attrs map[string]string) []kafka.Header {
	if len(attrs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(attrs[k])})
	}
	return headers
}

// HeadersToMap is the inverse of HeadersFromMap. Later duplicates win.
func HeadersToMap(headers []kafka.Header) map[string]string {
	attrs := make(map[string]string, len(headers))
	for _, h := range headers {
		attrs[h.Key] = string(h.Value)
	}
	return attrs
}

func pingBrokers(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return errNoBrokers
	}
	dialer := &kafka.Dialer{Timeout: dialTimeout, DualStack: true}
	var lastErr error
	for _, broker := range brokers {
		conn, err := dialer.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("no kafka broker reachable: %w", lastErr)
}

func cleanBrokers(brokers []string) []string {
	out := make([]string, 0, len(brokers))
	for _, b := range brokers {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(b); err != nil {
			b = net.JoinHostPort(b, "9092")
		}
		out = append(out, b)
	}
	return out
}
