package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const defaultInterval = 24 * time.Hour

// Task is one housekeeping step run per sweep.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

type taskRecorder interface {
	Observe(job string, elapsed time.Duration, err error)
}

type ServiceParams struct {
	Logger   *logger.Logger
	Lock     Lock
	Tasks    []Task
	Metrics  taskRecorder
	Interval time.Duration
}

// Service sweeps its tasks on a fixed cadence while holding a shared lock.
type Service struct {
	logg     *logger.Logger
	lock     Lock
	tasks    []Task
	metrics  taskRecorder
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	tasks := make([]Task, 0, len(params.Tasks))
	for _, t := range params.Tasks {
		if t != nil {
			tasks = append(tasks, t)
		}
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("at least one task required")
	}
	recorder := params.Metrics
	if recorder == nil {
		recorder = (*metrics.JobMetrics)(nil)
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		lock:     params.Lock,
		tasks:    tasks,
		metrics:  recorder,
		interval: interval,
	}, nil
}

// Run sweeps once immediately, then on every tick until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	s.sweepAndLog(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *Service) sweepAndLog(ctx context.Context) {
	if err := s.sweep(ctx); err != nil {
		s.logg.Error(ctx, "janitor sweep failed", err)
	}
}

func (s *Service) sweep(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another janitor holds the lock; skipping sweep")
		return nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "failed to release janitor lock", err)
		}
	}()

	for _, t := range s.tasks {
		s.runTask(ctx, t)
	}
	return nil
}

// runTask isolates failures so one broken task never starves the others.
func (s *Service) runTask(ctx context.Context, t Task) {
	taskCtx := s.logg.WithField(ctx, "task", t.Name())
	start := time.Now()
	err := t.Run(taskCtx)
	elapsed := time.Since(start)
	s.metrics.Observe(t.Name(), elapsed, err)

	taskCtx = s.logg.WithField(taskCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(taskCtx, "janitor task failed", err)
		return
	}
	s.logg.Info(taskCtx, "janitor task done")
}
