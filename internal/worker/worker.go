// Package worker polls the resolution job queue and runs the Pipeline
// Supervisor for each claimed job, adaptively backing off when the queue is
// idle and picking back up the moment work appears.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/pubscope/internal/models"
)

// Supervisor runs the full step sequence for one job. Satisfied by
// *pipeline.Supervisor; declared as an interface here so the worker package
// doesn't need to import pipeline's step-library dependency graph.
type Supervisor interface {
	Run(ctx context.Context, jobID string) error
}

// JobClaimer is the narrow slice of repository.JobRepository the worker
// needs: atomically dequeuing the next pending job.
type JobClaimer interface {
	ClaimPending(ctx context.Context) (*models.ResolutionJob, error)
}

// Config holds worker configuration.
type Config struct {
	PollInterval        time.Duration // Base poll interval (minimum, reset after finding a job)
	MaxPollInterval     time.Duration // Maximum poll interval for backoff (default 30s)
	Concurrency         int
	ShutdownGracePeriod time.Duration // Max time to wait for running jobs during shutdown
	JobTimeout          time.Duration // Whole-job wall-clock deadline (default 600s)
}

// Worker processes resolution jobs in the background.
type Worker struct {
	jobs                JobClaimer
	supervisor          Supervisor
	basePollInterval    time.Duration
	maxPollInterval     time.Duration
	concurrency         int
	shutdownGracePeriod time.Duration
	jobTimeout          time.Duration
	stop                chan struct{}
	wg                  sync.WaitGroup
	activeJobs          int64
	activeJobsMu        sync.Mutex
	logger              *slog.Logger
}

// New creates a new worker.
func New(jobs JobClaimer, supervisor Supervisor, cfg Config, logger *slog.Logger) *Worker {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 1 * time.Second
	}
	if cfg.MaxPollInterval == 0 {
		cfg.MaxPollInterval = 30 * time.Second
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 3
	}
	if cfg.ShutdownGracePeriod == 0 {
		cfg.ShutdownGracePeriod = 5 * time.Minute
	}
	if cfg.JobTimeout == 0 {
		cfg.JobTimeout = 600 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		jobs:                jobs,
		supervisor:          supervisor,
		basePollInterval:    cfg.PollInterval,
		maxPollInterval:     cfg.MaxPollInterval,
		concurrency:         cfg.Concurrency,
		shutdownGracePeriod: cfg.ShutdownGracePeriod,
		jobTimeout:          cfg.JobTimeout,
		stop:                make(chan struct{}),
		logger:              logger.With("component", "worker"),
	}
}

// Start begins processing jobs across Concurrency goroutines.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("starting",
		"concurrency", w.concurrency,
		"base_poll_interval", w.basePollInterval,
		"max_poll_interval", w.maxPollInterval,
		"job_timeout", w.jobTimeout,
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.runWorker(ctx, i)
	}
}

// ActiveJobs returns the number of jobs currently being processed.
func (w *Worker) ActiveJobs() int64 {
	w.activeJobsMu.Lock()
	defer w.activeJobsMu.Unlock()
	return w.activeJobs
}

// Stop gracefully stops the worker, waiting for active jobs to complete.
func (w *Worker) Stop() {
	w.logger.Info("stopping, waiting for active jobs to complete", "grace_period", w.shutdownGracePeriod)
	close(w.stop)

	deadline := time.Now().Add(w.shutdownGracePeriod)
	pollInterval := 500 * time.Millisecond

	for time.Now().Before(deadline) {
		w.activeJobsMu.Lock()
		active := w.activeJobs
		w.activeJobsMu.Unlock()

		if active == 0 {
			w.logger.Info("all active jobs completed")
			break
		}

		w.logger.Info("waiting for active jobs", "active_jobs", active, "remaining", time.Until(deadline).Round(time.Second))
		time.Sleep(pollInterval)
	}

	w.activeJobsMu.Lock()
	remaining := w.activeJobs
	w.activeJobsMu.Unlock()
	if remaining > 0 {
		w.logger.Warn("shutdown grace period exceeded, some jobs may be interrupted", "remaining_jobs", remaining)
	}

	w.wg.Wait()
	w.logger.Info("stopped")
}

func (w *Worker) runWorker(ctx context.Context, workerID int) {
	defer w.wg.Done()

	currentInterval := w.basePollInterval
	timer := time.NewTimer(currentInterval)
	defer timer.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
			found := w.processNextJob(ctx, workerID)
			if found {
				currentInterval = w.basePollInterval
			} else {
				currentInterval = currentInterval * 2
				if currentInterval > w.maxPollInterval {
					currentInterval = w.maxPollInterval
				}
			}
			timer.Reset(currentInterval)
		}
	}
}

// processNextJob claims and runs the next pending job to completion under
// the job-level wall-clock deadline. Returns true if a job was found.
func (w *Worker) processNextJob(ctx context.Context, workerID int) bool {
	job, err := w.jobs.ClaimPending(ctx)
	if err != nil {
		w.logger.Error("failed to claim job", "worker_id", workerID, "error", err)
		return false
	}
	if job == nil {
		return false
	}

	w.activeJobsMu.Lock()
	w.activeJobs++
	w.activeJobsMu.Unlock()
	defer func() {
		w.activeJobsMu.Lock()
		w.activeJobs--
		w.activeJobsMu.Unlock()
	}()

	w.logger.Info("processing job", "worker_id", workerID, "job_id", job.ID, "canonical_url", job.CanonicalURL)

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	if err := w.supervisor.Run(jobCtx, job.ID); err != nil {
		w.logger.Error("job failed", "worker_id", workerID, "job_id", job.ID, "error", err)
		return true
	}

	w.logger.Info("completed job", "worker_id", workerID, "job_id", job.ID)
	return true
}
