package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

const (
	sendTimeout = 15 * time.Second
	drainJob    = "outbox_publish_batch"
)

type txDB interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// message is what a sink puts on the wire. Key drives partitioning or ordering.
type message struct {
	Key        string
	Data       []byte
	Attributes map[string]string
}

// sink blocks until the broker has acknowledged msg.
type sink interface {
	Name() string
	Ping(context.Context) error
	Publish(ctx context.Context, topic string, msg message) error
}

type eventCounter interface {
	Inc(sink, result string)
}

type jobRecorder interface {
	Observe(job string, elapsed time.Duration, err error)
}

type RelayParams struct {
	Outbox        config.OutboxConfig
	Logger        *logger.Logger
	DB            txDB
	Sink          sink
	Repository    outboxRepository
	Registry      registryResolver
	DLQRepository dlqRepository
	Events        eventCounter
	Jobs          jobRecorder
}

// Relay drains unpublished order events from the outbox table into a broker.
// Rows are claimed with SKIP LOCKED, so several relays can share one table.
type Relay struct {
	logg        *logger.Logger
	db          txDB
	rows        outboxRepository
	sink        sink
	resolver    registryResolver
	dlq         dlqRepository
	events      eventCounter
	jobs        jobRecorder
	batchSize   int
	maxAttempts int
	pace        *pacer
}

func NewRelay(p RelayParams) (*Relay, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.DB == nil:
		return nil, errors.New("database client is required")
	case p.Sink == nil:
		return nil, errors.New("event sink is required")
	case p.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case p.Registry == nil:
		return nil, errors.New("event registry is required")
	case p.DLQRepository == nil:
		return nil, errors.New("dlq repository is required")
	}

	r := &Relay{
		logg:        p.Logger,
		db:          p.DB,
		rows:        p.Repository,
		sink:        p.Sink,
		resolver:    p.Registry,
		dlq:         p.DLQRepository,
		events:      p.Events,
		jobs:        p.Jobs,
		batchSize:   orDefault(p.Outbox.BatchSize, 50),
		maxAttempts: orDefault(p.Outbox.MaxAttempts, 10),
		pace:        newPacer(time.Duration(orDefault(p.Outbox.PollIntervalMS, 500)) * time.Millisecond),
	}
	if r.events == nil {
		r.events = (*metrics.OutboxMetrics)(nil)
	}
	if r.jobs == nil {
		r.jobs = (*metrics.JobMetrics)(nil)
	}
	return r, nil
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func (r *Relay) ready(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		r.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := r.sink.Ping(ctx); err != nil {
		r.logg.Error(ctx, r.sink.Name()+" ping failed", err)
		return fmt.Errorf("%s ping failed: %w", r.sink.Name(), err)
	}
	return nil
}

// Run drains batches back to back while there is work, idles on the poll
// interval when the table is empty and backs off after a failed batch.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.ready(ctx); err != nil {
		return err
	}

	for ctx.Err() == nil {
		started := time.Now()
		handled, err := r.drain(ctx)

		switch {
		case err != nil:
			r.jobs.Observe(drainJob, time.Since(started), err)
			r.logg.Error(ctx, "outbox drain failed", err)
			if werr := r.pace.wait(ctx, r.pace.failed()); werr != nil {
				return werr
			}
		case handled > 0:
			r.jobs.Observe(drainJob, time.Since(started), nil)
			r.pace.reset()
		default:
			r.pace.reset()
			if werr := r.pace.wait(ctx, r.pace.idle()); werr != nil {
				return werr
			}
		}
	}
	return ctx.Err()
}

// drain handles one claimed batch inside a single transaction and reports how many rows it saw.
func (r *Relay) drain(ctx context.Context) (int, error) {
	var handled int
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		batch, err := r.rows.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return fmt.Errorf("claim batch: %w", err)
		}
		handled = len(batch)
		for _, row := range batch {
			if err := r.deliver(ctx, tx, row); err != nil {
				return err
			}
		}
		return nil
	})
	return handled, err
}

// deliver returns an error only when bookkeeping fails. Broker failures are recorded on the row.
func (r *Relay) deliver(ctx context.Context, tx *gorm.DB, row models.OutboxEvent) error {
	resolved, err := r.resolver.Resolve(row)
	if err != nil {
		return r.park(ctx, tx, row, "", enums.OutboxDLQReasonNonRetryable, err)
	}
	topic := resolved.Descriptor.Topic

	sendErr := r.send(ctx, row, resolved)
	if sendErr == nil {
		if err := r.rows.MarkPublishedTx(tx, row.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", row.ID, err)
		}
		r.events.Inc(r.sink.Name(), metrics.OutboxPublished)
		r.logg.Info(r.logCtx(ctx, row, topic), "order event published")
		return nil
	}

	if registry.IsNonRetryable(sendErr) {
		return r.park(ctx, tx, row, topic, enums.OutboxDLQReasonNonRetryable, sendErr)
	}
	if row.AttemptCount+1 >= r.maxAttempts {
		return r.park(ctx, tx, row, topic, enums.OutboxDLQReasonMaxAttempts,
			fmt.Errorf("gave up after %d attempts: %w", row.AttemptCount+1, sendErr))
	}

	logCtx := r.logg.WithField(r.logCtx(ctx, row, topic), "error", sendErr.Error())
	r.logg.Warn(logCtx, "order event publish failed; will retry")
	r.events.Inc(r.sink.Name(), metrics.OutboxRetry)
	if err := r.rows.MarkFailedTx(tx, row.ID, sendErr); err != nil {
		return fmt.Errorf("mark failed %s: %w", row.ID, err)
	}
	return nil
}

func (r *Relay) send(ctx context.Context, row models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	if topic == "" {
		return registry.NewNonRetryableError(fmt.Errorf("no topic for %s", row.EventType))
	}
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return r.sink.Publish(sendCtx, topic, message{
		Key:        row.AggregateID.String(),
		Data:       row.Payload,
		Attributes: headers(row, resolved.Envelope.EventID),
	})
}

// headers travel next to the payload so consumers can route and dedupe without decoding it.
func headers(row models.OutboxEvent, eventID string) map[string]string {
	return map[string]string{
		"event_id":       eventID,
		"event_type":     string(row.EventType),
		"aggregate_type": string(row.AggregateType),
		"aggregate_id":   row.AggregateID.String(),
		"created_at":     row.CreatedAt.Format(time.RFC3339Nano),
	}
}

// park copies the row into the DLQ and takes it out of the publish queue.
func (r *Relay) park(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, topic string, reason enums.OutboxDLQErrorReason, cause error) error {
	logCtx := r.logg.WithFields(r.logCtx(ctx, row, topic), map[string]any{
		"error_reason": reason,
		"error":        cause.Error(),
	})
	r.logg.Warn(logCtx, "order event moved to dlq")

	msg := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       row.ID,
		EventType:     row.EventType,
		AggregateType: row.AggregateType,
		AggregateID:   row.AggregateID,
		Payload:       row.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  row.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := r.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", row.ID, err)
	}
	if err := r.rows.MarkTerminalTx(tx, row.ID, cause, r.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", row.ID, err)
	}
	r.events.Inc(r.sink.Name(), metrics.OutboxDLQ)
	return nil
}

func (r *Relay) logCtx(ctx context.Context, row models.OutboxEvent, topic string) context.Context {
	fields := map[string]any{
		"outbox_id":     row.ID.String(),
		"event_type":    row.EventType,
		"order_id":      row.AggregateID.String(),
		"attempt_count": row.AttemptCount,
		"sink":          r.sink.Name(),
	}
	if topic != "" {
		fields["topic"] = topic
	}
	return r.logg.WithFields(ctx, fields)
}
