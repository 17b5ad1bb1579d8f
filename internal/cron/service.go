package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/tradecert/tradecert-backend/pkg/logger"
	"github.com/tradecert/tradecert-backend/pkg/metrics"
)

const defaultInterval = time.Hour

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.JobMetrics
	Interval time.Duration
}

// Service runs every registered job once per interval while holding Lock.
// A failing job does not stop the jobs after it.
type Service struct {
	logg     *logger.Logger
	jobs     []Job
	lock     Lock
	metrics  *metrics.JobMetrics
	interval time.Duration
}

// JobResult is the outcome of one job in a cycle.
type JobResult struct {
	Job      string
	Duration time.Duration
	Err      error
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("registry required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		jobs:     params.Registry.Jobs(),
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run runs a cycle immediately and then on every tick until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logg.Error(ctx, "cron.cycle_failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron.stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce runs a single cycle. It returns nil results when another worker
// holds the lock.
func (s *Service) RunOnce(ctx context.Context) ([]JobResult, error) {
	held, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("cron lock: %w", err)
	}
	if !held {
		s.logg.Info(ctx, "cron.skipped_lock_held")
		return nil, nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "cron.lock_release_failed", err)
		}
	}()

	results := make([]JobResult, 0, len(s.jobs))
	for _, job := range s.jobs {
		results = append(results, s.runJob(ctx, job))
	}
	return results, nil
}

func (s *Service) runJob(ctx context.Context, job Job) JobResult {
	name := job.Name()
	jobCtx := s.logg.WithField(ctx, "job", name)

	start := time.Now()
	err := job.Run(jobCtx)
	res := JobResult{Job: name, Duration: time.Since(start), Err: err}

	s.metrics.Record(name, res.Duration, err)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", res.Duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "cron.job_failed", err)
		return res
	}
	s.logg.Info(jobCtx, "cron.job_done")
	return res
}
