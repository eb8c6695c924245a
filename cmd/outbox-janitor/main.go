package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/internal/boot"
	"github.com/angelmondragon/storefront-backend/internal/janitor"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

func main() {
	proc, err := boot.Start("outbox-janitor")
	if err != nil {
		os.Exit(1)
	}
	ctx, stop := proc.Signals(nil)
	defer stop()
	proc.Exit(ctx, run(ctx, proc))
}

func run(ctx context.Context, proc *boot.Process) error {
	cfg, logg := proc.Config, proc.Log

	dbClient, err := proc.Database(ctx)
	if err != nil {
		return err
	}
	redisClient, err := proc.Redis(ctx)
	if err != nil {
		return err
	}

	// The lease outlives one interval so a slow sweep is never doubled up.
	lock, err := janitor.NewRedisLock(redisClient, redisClient.LockKey("outbox-janitor"), cfg.Outbox.JanitorInterval+cfg.Outbox.JanitorInterval/24)
	if err != nil {
		return err
	}

	retention, err := janitor.NewOutboxRetention(logg, dbClient, outbox.NewRepository(dbClient.DB()), cfg.Outbox.RetentionDays)
	if err != nil {
		return err
	}

	dlqReport, err := janitor.NewDLQReport(logg, outbox.NewDLQRepository(dbClient.DB()), cfg.Outbox.JanitorInterval)
	if err != nil {
		return err
	}

	service, err := janitor.NewService(janitor.ServiceParams{
		Logger:   logg,
		Lock:     lock,
		Tasks:    []janitor.Task{retention, dlqReport},
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Outbox.JanitorInterval,
	})
	if err != nil {
		return err
	}

	logg.Info(ctx, "outbox-janitor.started")
	return service.Run(ctx)
}
