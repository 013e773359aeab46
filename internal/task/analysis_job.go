package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/renal-ai-api/internal/platform/models"
	"github.com/phrazzld/renal-ai-api/internal/store"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// AnalysisJobConfig carries everything an AnalysisJob needs.
type AnalysisJobConfig struct {
	TaskID     string
	Handler    Handler
	Slide      models.Slide
	Parameters map[string]any
	Tasks      store.TaskStore
	Analyzer   Analyzer
	Logger     *slog.Logger
	// Sleep defaults to a timer that honors context cancellation.
	Sleep SleepFunc
}

// AnalysisJob drives one analysis task from processing to a terminal state.
// It is the only writer of its task once submitted.
type AnalysisJob struct {
	cfg AnalysisJobConfig
}

var _ Job = (*AnalysisJob)(nil)

// NewAnalysisJob creates a job for an already registered task.
func NewAnalysisJob(cfg AnalysisJobConfig) *AnalysisJob {
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Parameters == nil {
		cfg.Parameters = map[string]any{}
	}
	return &AnalysisJob{cfg: cfg}
}

// ID implements Job.
func (j *AnalysisJob) ID() string { return j.cfg.TaskID }

// Type implements Job.
func (j *AnalysisJob) Type() string { return j.cfg.Handler.Type.String() }

// Execute walks the handler's checkpoints, computes the result and records
// it. Every failure, including a panic, becomes a terminal error on the task
// and is also returned. If ctx is cancelled while waiting, Execute returns
// the context error and leaves the task untouched.
func (j *AnalysisJob) Execute(ctx context.Context) (err error) {
	// Registry writes must not be cut short by shutdown once started.
	writeCtx := context.WithoutCancel(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			err = j.fail(writeCtx, fmt.Errorf("analysis panicked: %v", rec))
		}
	}()

	h := j.cfg.Handler
	for _, cp := range h.Checkpoints {
		if err := j.cfg.Sleep(ctx, cp.Delay); err != nil {
			return err
		}
		if err := j.cfg.Tasks.UpdateProgress(writeCtx, j.cfg.TaskID, cp.Progress); err != nil {
			return j.fail(writeCtx, fmt.Errorf("record progress %d: %w", cp.Progress, err))
		}
	}

	if err := j.cfg.Sleep(ctx, h.Settle); err != nil {
		return err
	}

	out, err := h.Compute(ctx, j.cfg.Analyzer, j.cfg.Slide, j.cfg.Parameters)
	if err != nil {
		return j.fail(writeCtx, err)
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return j.fail(writeCtx, fmt.Errorf("encode result: %w", err))
	}

	if err := j.cfg.Tasks.Complete(writeCtx, j.cfg.TaskID, raw); err != nil {
		return j.fail(writeCtx, fmt.Errorf("record completion: %w", err))
	}
	return nil
}

// fail records cause on the task and returns it.
func (j *AnalysisJob) fail(ctx context.Context, cause error) error {
	if err := j.cfg.Tasks.Fail(ctx, j.cfg.TaskID, cause.Error()); err != nil {
		j.cfg.Logger.ErrorContext(ctx, "failed to record task error",
			"task_id", j.cfg.TaskID,
			"cause", cause,
			"error", err)
	}
	return cause
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
