package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/bloomcart-backend/pkg/logger"
	"github.com/angelmondragon/bloomcart-backend/pkg/metrics"
)

const defaultTick = time.Minute

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	// Tick defaults to the shortest job interval.
	Tick time.Duration
}

// Service wakes every tick and runs the due jobs under the shared lock.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	tick     time.Duration
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Lock == nil {
		return nil, errors.New("lock required")
	}
	if params.Registry == nil || params.Registry.Len() == 0 {
		return nil, errors.New("no cron jobs registered")
	}
	tick := params.Tick
	if tick <= 0 {
		tick = params.Registry.MinInterval()
	}
	if tick <= 0 {
		tick = defaultTick
	}
	return &Service{
		logg:     params.Logger,
		registry: params.Registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		tick:     tick,
		now:      time.Now,
	}, nil
}

// Run checks for due jobs immediately and then every tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithField(ctx, "tick", s.tick.String())
	s.runDue(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// RunOnce runs every registered job, due or not, and returns their combined failures.
func (s *Service) RunOnce(ctx context.Context) error {
	return s.runLocked(ctx, s.registry.Jobs())
}

func (s *Service) runDue(ctx context.Context) {
	if err := s.runLocked(ctx, s.registry.Due(s.now())); err != nil {
		s.logg.Error(ctx, "cron jobs failed", err)
	}
}

func (s *Service) runLocked(ctx context.Context, jobs []Job) error {
	if len(jobs) == 0 {
		return nil
	}
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !locked {
		holder, herr := s.lock.Holder(ctx)
		if herr != nil {
			holder = "unknown"
		}
		s.logg.Info(s.logg.WithField(ctx, "lock_holder", holder), "cron lock held elsewhere, skipping")
		return nil
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "failed to release cron lock", err)
		}
	}()

	var errs error
	for _, job := range jobs {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		errs = multierr.Append(errs, s.runJob(ctx, job))
	}
	return errs
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})

	started := s.now()
	s.registry.MarkRan(name, started)
	err := job.Run(jobCtx)
	finished := s.now()

	s.metrics.ObserveDuration(name, finished.Sub(started))
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", finished.Sub(started).Milliseconds())
	if err != nil {
		s.metrics.IncFailure(name)
		s.logg.Error(jobCtx, "cron job failed", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	s.metrics.IncSuccess(name, finished)
	s.logg.Info(jobCtx, "cron job complete")
	return nil
}
