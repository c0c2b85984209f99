package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/virtual-ta/internal/core/domain"
	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

// Job is a named periodic task
type Job struct {
	Name     string
	Schedule string // standard five-field cron expression or a descriptor such as "@every 6h"
	Run      func(ctx context.Context) error
}

// Scheduler runs periodic scrape refreshes and reindexing.
//
// For multi-instance deployments, configure a DistributedLock so each job
// runs on one instance per tick.
type Scheduler struct {
	cron   *cron.Cron
	lock   driven.DistributedLock
	logger *slog.Logger
	jobs   map[string]Job

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc

	lockTTL time.Duration
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Jobs    []Job
	Lock    driven.DistributedLock // Optional
	Logger  *slog.Logger
	LockTTL time.Duration // default: 10m
}

// NewScheduler creates a scheduler and validates every job schedule.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 10 * time.Minute
	}

	s := &Scheduler{
		cron:    cron.New(),
		lock:    cfg.Lock,
		logger:  logger,
		jobs:    make(map[string]Job, len(cfg.Jobs)),
		lockTTL: lockTTL,
	}
	for _, job := range cfg.Jobs {
		if _, err := cron.ParseStandard(job.Schedule); err != nil {
			return nil, fmt.Errorf("%w: job %s schedule %q: %v", domain.ErrInvalidInput, job.Name, job.Schedule, err)
		}
		s.jobs[job.Name] = job
	}
	return s, nil
}

// Start registers the jobs and starts the cron loop.
// Jobs run until Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	for _, job := range s.jobs {
		if _, err := s.cron.AddFunc(job.Schedule, func() { s.runJob(ctx, job) }); err != nil {
			cancel()
			return fmt.Errorf("schedule job %s: %w", job.Name, err)
		}
		s.logger.Info("scheduled job", "job", job.Name, "schedule", job.Schedule)
	}

	s.cancel = cancel
	s.running = true
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunNow runs a job immediately, honouring the distributed lock.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: job %s", domain.ErrNotFound, name)
	}
	return s.runJob(ctx, job)
}

// runJob acquires the job's lock, if configured, and runs it.
// Returns ErrLockNotAcquired when another instance holds the lock.
func (s *Scheduler) runJob(ctx context.Context, job Job) error {
	lockName := "vta:job:" + job.Name

	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, lockName, s.lockTTL)
		if err != nil {
			s.logger.Warn("failed to acquire job lock", "job", job.Name, "error", err)
			return fmt.Errorf("acquire lock for %s: %w", job.Name, err)
		}
		if !acquired {
			s.logger.Debug("job lock held by another instance, skipping", "job", job.Name)
			return domain.ErrLockNotAcquired
		}
		defer func() {
			// ctx may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.lock.Release(releaseCtx, lockName); err != nil {
				s.logger.Warn("failed to release job lock", "job", job.Name, "error", err)
			}
		}()
	}

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("job failed", "job", job.Name, "duration", time.Since(start), "error", err)
		return err
	}
	s.logger.Info("job finished", "job", job.Name, "duration", time.Since(start))
	return nil
}
