package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RunnerConfig holds configuration for the task runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs.
	// If zero or negative, defaults to 1.
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory job queue.
	// If zero or negative, defaults to 1.
	QueueSize int
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount: 4,
		QueueSize:   64,
	}
}

// Runner manages background job processing with a fixed worker pool
type Runner struct {
	queue      *queue
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     RunnerConfig
	logger     *slog.Logger
	observer   Observer

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewRunner creates a new Runner. A nil observer discards events.
func NewRunner(config RunnerConfig, logger *slog.Logger, observer Observer) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
		config.WorkerCount = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		queue:      newQueue(config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
		observer:   observer,
	}
}

// Submit adds a job to the queue without blocking. It returns ErrQueueFull
// when the buffer is at capacity and ErrRunnerStopped after Stop.
func (r *Runner) Submit(ctx context.Context, job Job) error {
	if err := r.queue.enqueue(job); err != nil {
		return err
	}

	r.observer.JobSubmitted(job.Type())
	r.observer.QueueDepth(r.queue.len())

	r.logger.DebugContext(ctx, "job enqueued",
		"task_id", job.ID(),
		"task_type", job.Type(),
		"queue_len", r.queue.len(),
		"queue_cap", r.config.QueueSize)
	return nil
}

// Start launches the worker goroutines. Calling it more than once has no
// further effect.
func (r *Runner) Start() error {
	if r.ctx.Err() != nil {
		return ErrRunnerStopped
	}

	r.startOnce.Do(func() {
		for i := 0; i < r.config.WorkerCount; i++ {
			r.wg.Add(1)
			go r.worker(i)
		}
		r.logger.Info("task runner started",
			"worker_count", r.config.WorkerCount,
			"queue_size", r.config.QueueSize)
	})
	return nil
}

// Stop rejects new jobs, signals workers to exit and waits for in-flight
// jobs to return. Jobs still queued are abandoned. Stop is idempotent.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.queue.close()
		r.cancelFunc()
		r.wg.Wait()
		r.logger.Info("task runner stopped", "abandoned_jobs", r.queue.len())
	})
}

// worker processes jobs from the queue
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case job := <-r.queue.jobs:
			r.observer.QueueDepth(r.queue.len())
			r.process(job, id)
		}
	}
}

// process handles execution of a single job. A panicking job is recorded as
// an error and never takes its worker down.
func (r *Runner) process(job Job, workerID int) {
	logger := r.logger.With(
		"task_id", job.ID(),
		"task_type", job.Type(),
		"worker_id", workerID,
	)
	started := time.Now()

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("job panicked: %v", rec)
			}
		}()
		logger.Info("processing task")
		return job.Execute(r.ctx)
	}()

	elapsed := time.Since(started)

	switch {
	case err == nil:
		logger.Info("task completed successfully", "duration_ms", elapsed.Milliseconds())
		r.observer.JobFinished(job.Type(), OutcomeCompleted, elapsed)
	case errors.Is(err, context.Canceled):
		logger.Warn("task interrupted by shutdown", "error", err)
		r.observer.JobFinished(job.Type(), OutcomeInterrupted, elapsed)
	default:
		logger.Error("task execution failed", "error", err)
		r.observer.JobFinished(job.Type(), OutcomeError, elapsed)
	}
}
