package store

import (
	"context"
	"encoding/json"

	"github.com/phrazzld/renal-ai-api/internal/domain"
)

// MaxTaskIDAttempts bounds how many fresh ids Create tries before giving up
// on a collision.
const MaxTaskIDAttempts = 3

// TaskStore is the analysis task registry.
//
// Create and Delete are called by the dispatcher only. UpdateProgress,
// Complete and Fail are called by the job that owns the task. None of the
// mutating methods can move a task out of a terminal state; they return
// ErrTaskTerminal instead.
type TaskStore interface {
	// Create allocates a fresh task id and inserts a processing task with
	// zero progress.
	Create(ctx context.Context, analysisType domain.AnalysisType, fileID, owner string) (*domain.Task, error)

	// Get returns a snapshot of the task. Returns ErrTaskNotFound if absent.
	Get(ctx context.Context, taskID string) (*domain.Task, error)

	// UpdateProgress records a progress checkpoint. Lower values are ignored.
	UpdateProgress(ctx context.Context, taskID string, progress int) error

	// Complete marks the task completed with the given result document.
	Complete(ctx context.Context, taskID string, result json.RawMessage) error

	// Fail marks the task as errored with a human readable message.
	Fail(ctx context.Context, taskID string, message string) error

	// Delete removes a task. Only used to roll back a task that could not be
	// scheduled.
	Delete(ctx context.Context, taskID string) error
}
