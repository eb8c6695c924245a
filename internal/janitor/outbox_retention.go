package janitor

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const defaultRetentionDays = 30

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type publishedPruner interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// OutboxRetention drops outbox rows that were published more than RetentionDays ago.
// Unpublished and parked rows are never touched.
type OutboxRetention struct {
	logg          *logger.Logger
	tx            txRunner
	repo          publishedPruner
	retentionDays int
	now           func() time.Time
}

func NewOutboxRetention(logg *logger.Logger, tx txRunner, repo publishedPruner, retentionDays int) (*OutboxRetention, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	return &OutboxRetention{
		logg:          logg,
		tx:            tx,
		repo:          repo,
		retentionDays: retentionDays,
		now:           time.Now,
	}, nil
}

func (j *OutboxRetention) Name() string { return "outbox_retention" }

func (j *OutboxRetention) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retentionDays)

	var deleted int64
	err := j.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.repo.DeletePublishedBefore(ctx, tx, cutoff)
		deleted = n
		return err
	})
	if err != nil {
		return fmt.Errorf("prune published outbox rows: %w", err)
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "outbox retention pruned")
	return nil
}
