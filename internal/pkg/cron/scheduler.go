package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is a unit of background work run on a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run. Zero means the run is bounded only by the
	// scheduler's context.
	Timeout time.Duration
	Fn      func(ctx context.Context) error
}

// Scheduler runs registered jobs on their intervals until its context ends.
// A job never overlaps with itself.
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger
	mu     sync.Mutex
}

// NewScheduler creates a new cron scheduler
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		jobs:   make([]Job, 0),
		logger: logger,
	}
}

// AddJob adds a job to the scheduler. Jobs added after Run has started are
// picked up on the next Run only.
func (s *Scheduler) AddJob(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, job)
	s.logger.Info("Cron job registered", "name", job.Name, "interval", job.Interval)
}

// Jobs returns a copy of the registered jobs.
func (s *Scheduler) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// Run starts every job and blocks until ctx is done and all in-flight runs
// have returned. Each job runs once immediately, then on every tick.
func (s *Scheduler) Run(ctx context.Context) error {
	jobs := s.Jobs()

	var wg sync.WaitGroup
	for _, job := range jobs {
		if job.Interval <= 0 {
			s.logger.Warn("Cron job skipped, non-positive interval", "name", job.Name)
			continue
		}
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.loop(ctx, job)
		}(job)
	}

	s.logger.Info("Cron scheduler started", "job_count", len(jobs))
	<-ctx.Done()
	s.logger.Info("Stopping cron scheduler...")
	wg.Wait()
	s.logger.Info("Cron scheduler stopped")
	return nil
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.execute(ctx, job)

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Cron job stopping", "name", job.Name)
			return
		case <-ticker.C:
			s.execute(ctx, job)
		}
	}
}

// execute runs a job and logs the result. A panicking job is logged and
// does not take the scheduler down.
func (s *Scheduler) execute(ctx context.Context, job Job) (err error) {
	start := time.Now()
	s.logger.Debug("Cron job starting", "name", job.Name)

	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Cron job panicked", "name", job.Name, "panic", r)
			err = fmt.Errorf("cron job %s panicked: %v", job.Name, r)
		}
	}()

	if err = job.Fn(ctx); err != nil {
		s.logger.Error("Cron job failed", "name", job.Name, "error", err, "duration", time.Since(start))
	} else {
		s.logger.Debug("Cron job completed", "name", job.Name, "duration", time.Since(start))
	}
	return err
}

// RunOnce runs all jobs once, sequentially, and returns the number of failed runs.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	failed := 0
	for _, job := range s.Jobs() {
		if err := s.execute(ctx, job); err != nil {
			failed++
		}
	}
	return failed
}
