package enums

// OutboxAggregateType is the aggregate_type column of outbox_events.
type OutboxAggregateType string

const AggregateOrder OutboxAggregateType = "order"

func (a OutboxAggregateType) IsValid() bool {
	_, err := ParseOutboxAggregateType(string(a))
	return err == nil
}

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parse("aggregate type", []OutboxAggregateType{AggregateOrder}, value)
}

// OutboxEventType is the event_type column of outbox_events.
type OutboxEventType string

const EventOrderCreated OutboxEventType = "order_created"

func (e OutboxEventType) IsValid() bool {
	_, err := ParseOutboxEventType(string(e))
	return err == nil
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse("event type", []OutboxEventType{EventOrderCreated}, value)
}

// OutboxDLQErrorReason says why a row was moved to the dead letter table.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	_, err := parse("dlq reason", []OutboxDLQErrorReason{OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable}, string(r))
	return err == nil
}
