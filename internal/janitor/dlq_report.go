package janitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type parkedEvents interface {
	CountSince(ctx context.Context, since time.Time) (int64, error)
	Recent(ctx context.Context, limit int) ([]models.OutboxDLQ, error)
}

// DLQReport warns about events the publisher parked since the previous sweep.
// It only reads; parked rows stay until an operator replays or drops them.
type DLQReport struct {
	logg   *logger.Logger
	dlq    parkedEvents
	window time.Duration
	sample int
	now    func() time.Time
}

func NewDLQReport(logg *logger.Logger, dlq parkedEvents, window time.Duration) (*DLQReport, error) {
	switch {
	case logg == nil:
		return nil, errors.New("logger required")
	case dlq == nil:
		return nil, errors.New("dlq repository required")
	case window <= 0:
		return nil, errors.New("report window must be positive")
	}
	return &DLQReport{logg: logg, dlq: dlq, window: window, sample: 5, now: time.Now}, nil
}

func (d *DLQReport) Name() string { return "outbox_dlq_report" }

func (d *DLQReport) Run(ctx context.Context) error {
	since := d.now().UTC().Add(-d.window)
	n, err := d.dlq.CountSince(ctx, since)
	if err != nil {
		return fmt.Errorf("count parked events: %w", err)
	}
	if n == 0 {
		return nil
	}

	rows, err := d.dlq.Recent(ctx, d.sample)
	if err != nil {
		return fmt.Errorf("sample parked events: %w", err)
	}
	ids := make([]string, 0, len(rows))
	reasons := map[string]int{}
	for _, row := range rows {
		ids = append(ids, row.EventID.String())
		reasons[string(row.ErrorReason)]++
	}
	d.logg.Warn(d.logg.WithFields(ctx, map[string]any{
		"parked_since":   since,
		"parked_count":   n,
		"sample_ids":     ids,
		"sample_reasons": reasons,
	}), "outbox events parked in dlq")
	return nil
}
