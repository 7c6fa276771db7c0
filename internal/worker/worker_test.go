package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/pubscope/internal/models"
)

// fakeJobs is a minimal in-memory stand-in for repository.JobRepository,
// implementing only the JobClaimer slice the worker depends on.
type fakeJobs struct {
	mu      sync.Mutex
	pending []*models.ResolutionJob
}

func newFakeJobs(n int) *fakeJobs {
	f := &fakeJobs{}
	for i := 0; i < n; i++ {
		f.pending = append(f.pending, &models.ResolutionJob{
			ID:           ulid.Make().String(),
			CanonicalURL: "https://example.com/article",
			Status:       models.JobStatusPending,
		})
	}
	return f
}

func (f *fakeJobs) ClaimPending(ctx context.Context) (*models.ResolutionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return nil, nil
	}
	job := f.pending[0]
	f.pending = f.pending[1:]
	job.Status = models.JobStatusRunning
	return job, nil
}

type fakeSupervisor struct {
	ran      int64
	delay    time.Duration
	failWith error
}

func (s *fakeSupervisor) Run(ctx context.Context, jobID string) error {
	atomic.AddInt64(&s.ran, 1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.failWith
}

func newTestWorker(jobs *fakeJobs, sup Supervisor) *Worker {
	return New(jobs, sup, Config{
		PollInterval:        5 * time.Millisecond,
		MaxPollInterval:     20 * time.Millisecond,
		Concurrency:         2,
		ShutdownGracePeriod: time.Second,
	}, nil)
}

func TestWorker_ProcessesClaimedJobs(t *testing.T) {
	jobs := newFakeJobs(3)
	sup := &fakeSupervisor{}
	w := newTestWorker(jobs, sup)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	w.Start(ctx)

	deadline := time.Now().Add(1500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if atomic.LoadInt64(&sup.ran) == 3 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := atomic.LoadInt64(&sup.ran); got != 3 {
		t.Fatalf("ran = %d, want 3", got)
	}

	w.Stop()
}

func TestWorker_BackoffWhenIdle(t *testing.T) {
	jobs := newFakeJobs(0)
	sup := &fakeSupervisor{}
	w := New(jobs, sup, Config{
		PollInterval:        10 * time.Millisecond,
		MaxPollInterval:     40 * time.Millisecond,
		Concurrency:         1,
		ShutdownGracePeriod: time.Second,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	w.Start(ctx)
	time.Sleep(150 * time.Millisecond)
	w.Stop()

	if atomic.LoadInt64(&sup.ran) != 0 {
		t.Fatalf("expected no jobs to run against an empty queue")
	}
}

func TestWorker_JobTimeoutEnforced(t *testing.T) {
	jobs := newFakeJobs(1)
	sup := &fakeSupervisor{delay: 200 * time.Millisecond}
	w := New(jobs, sup, Config{
		PollInterval:        5 * time.Millisecond,
		MaxPollInterval:     20 * time.Millisecond,
		Concurrency:         1,
		ShutdownGracePeriod: time.Second,
		JobTimeout:          20 * time.Millisecond,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	w.Start(ctx)
	time.Sleep(100 * time.Millisecond)
	w.Stop()

	if atomic.LoadInt64(&sup.ran) != 1 {
		t.Fatalf("expected the single job to have been attempted once")
	}
}

func TestWorker_GracefulStopWaitsForActiveJobs(t *testing.T) {
	jobs := newFakeJobs(1)
	sup := &fakeSupervisor{delay: 50 * time.Millisecond}
	w := New(jobs, sup, Config{
		PollInterval:        5 * time.Millisecond,
		Concurrency:         1,
		ShutdownGracePeriod: time.Second,
	}, nil)

	ctx := context.Background()
	w.Start(ctx)
	time.Sleep(15 * time.Millisecond)

	start := time.Now()
	w.Stop()
	if time.Since(start) < 30*time.Millisecond {
		t.Fatalf("Stop returned before the active job finished")
	}
	if w.ActiveJobs() != 0 {
		t.Fatalf("ActiveJobs() = %d after Stop, want 0", w.ActiveJobs())
	}
}

func TestWorker_SupervisorErrorDoesNotStallQueue(t *testing.T) {
	jobs := newFakeJobs(2)
	sup := &fakeSupervisor{failWith: errors.New("boom")}
	w := newTestWorker(jobs, sup)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	w.Start(ctx)

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if atomic.LoadInt64(&sup.ran) == 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := atomic.LoadInt64(&sup.ran); got != 2 {
		t.Fatalf("ran = %d, want 2 even though the supervisor errors", got)
	}
	w.Stop()
}
