package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/carins/carins-backend/pkg/logger"
	"github.com/carins/carins-backend/pkg/metrics"
)

const day = 24 * time.Hour

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	// Lock is optional; nil runs every cycle unguarded.
	Lock    Lock
	Metrics *metrics.CronJobMetrics
	// RunAt is the local time of day, as an offset from midnight, of the daily run.
	RunAt      time.Duration
	RunOnStart bool
}

// Service executes registered cron jobs once per local calendar day.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronJobMetrics
	runAt      time.Duration
	runOnStart bool

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.RunAt < 0 || params.RunAt >= day {
		return nil, fmt.Errorf("run-at offset %s must be within one day", params.RunAt)
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	return &Service{
		logg:       params.Logger,
		registry:   registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		runAt:      params.RunAt,
		runOnStart: params.RunOnStart,
		now:        time.Now,
		after:      time.After,
	}, nil
}

// Run starts the cron loop until the context is canceled. A day whose tick
// is missed while the process is down is not caught up.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.runOnStart {
		if err := s.runCycle(ctx); err != nil {
			s.logg.Error(ctx, "start-up run failed", err)
		}
	}

	for {
		next := nextRun(s.now(), s.runAt)
		s.logg.Debug(s.logg.WithField(ctx, "next_run", next.Format(time.RFC3339)), "cron sleeping until next run")

		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-s.after(next.Sub(s.now())):
			if err := s.runCycle(ctx); err != nil {
				s.logg.Error(ctx, "scheduled run failed", err)
			}
		}
	}
}

// RunOnce executes a single cycle, honouring the lock.
func (s *Service) RunOnce(ctx context.Context) error {
	return s.runCycle(ctx)
}

// nextRun returns the first instant strictly after now whose wall clock, in
// now's location, reads offset past midnight.
func nextRun(now time.Time, offset time.Duration) time.Time {
	secs := int(offset / time.Second)
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, secs, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, secs, 0, now.Location())
	}
	return next
}

func (s *Service) runCycle(ctx context.Context) error {
	if s.lock != nil {
		locked, err := s.lock.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("lock acquire: %w", err)
		}
		if !locked {
			s.logg.Info(ctx, "another cron instance is running; skipping this cycle")
			return nil
		}
		defer func() {
			if relErr := s.lock.Release(ctx); relErr != nil {
				s.logg.Error(ctx, "failed to release cron lock", relErr)
			}
		}()
	}

	s.logg.Info(ctx, "scheduled run starting")
	for _, job := range s.registry.Jobs() {
		s.runJob(ctx, job)
	}
	s.logg.Info(ctx, "scheduled run complete")
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	jobCtx = s.logg.WithField(jobCtx, "event", "cron.job")
	s.logg.Info(jobCtx, "job start")
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.metrics.ObserveDuration(job.Name(), duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.IncFailure(job.Name())
		return
	}
	s.logg.Info(jobCtx, "job completed")
	s.metrics.IncSuccess(job.Name())
}
