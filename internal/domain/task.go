package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of an analysis task
type TaskStatus string

// Possible task status values
const (
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusError      TaskStatus = "error"
)

const (
	// taskIDPrefix is prepended to every generated task identifier
	taskIDPrefix = "task_"

	// taskIDHexLength is the number of random hex characters in a task identifier
	taskIDHexLength = 8

	// MaxProgress is the progress value of a finished task
	MaxProgress = 100
)

// ErrTaskTerminal is returned when a mutation targets a task that has already
// reached completed or error.
var ErrTaskTerminal = errors.New("task already finished")

// IsTerminal reports whether no further transitions are allowed from s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusError
}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	return s == TaskStatusProcessing || s.IsTerminal()
}

// Task is one analysis job and its observable state. It is the record
// returned by the task status endpoint.
type Task struct {
	ID           string          `json:"task_id"`
	AnalysisType AnalysisType    `json:"analysis_type"`
	FileID       string          `json:"file_id"`
	Status       TaskStatus      `json:"status"`
	Progress     int             `json:"progress"`
	StartTime    time.Time       `json:"start_time"`
	Owner        string          `json:"owner"`
	Result       json.RawMessage `json:"result"`
	Error        *string         `json:"error"`
	CompleteTime *time.Time      `json:"complete_time,omitempty"`
}

// NewTaskID generates a fresh task identifier of the form task_xxxxxxxx.
func NewTaskID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return taskIDPrefix + hex[:taskIDHexLength]
}

// NewTask creates a task in the processing state with zero progress.
func NewTask(id string, analysisType AnalysisType, fileID, owner string, now time.Time) (*Task, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: task id cannot be empty", ErrValidation)
	}
	if !analysisType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAnalysisType, analysisType)
	}
	if fileID == "" {
		return nil, fmt.Errorf("%w: file id cannot be empty", ErrValidation)
	}
	if owner == "" {
		return nil, fmt.Errorf("%w: owner cannot be empty", ErrValidation)
	}

	return &Task{
		ID:           id,
		AnalysisType: analysisType,
		FileID:       fileID,
		Status:       TaskStatusProcessing,
		Progress:     0,
		StartTime:    now.UTC(),
		Owner:        owner,
	}, nil
}

// AdvanceProgress records a new progress checkpoint. Values are clamped to
// 0..100 and a value lower than the current progress is ignored.
func (t *Task) AdvanceProgress(progress int) error {
	if t.Status.IsTerminal() {
		return ErrTaskTerminal
	}

	progress = max(0, min(progress, MaxProgress))
	if progress > t.Progress {
		t.Progress = progress
	}
	return nil
}

// Complete moves the task to completed with the given result.
func (t *Task) Complete(result json.RawMessage, now time.Time) error {
	if t.Status.IsTerminal() {
		return ErrTaskTerminal
	}

	completedAt := now.UTC()
	t.Status = TaskStatusCompleted
	t.Progress = MaxProgress
	t.Result = append(json.RawMessage(nil), result...)
	t.Error = nil
	t.CompleteTime = &completedAt
	return nil
}

// Fail moves the task to error. Progress keeps its last value.
func (t *Task) Fail(message string, now time.Time) error {
	if t.Status.IsTerminal() {
		return ErrTaskTerminal
	}

	completedAt := now.UTC()
	t.Status = TaskStatusError
	t.Result = nil
	t.Error = &message
	t.CompleteTime = &completedAt
	return nil
}

// Clone returns a deep copy so callers can read a task without holding the
// registry lock.
func (t *Task) Clone() *Task {
	c := *t
	if t.Result != nil {
		c.Result = append(json.RawMessage(nil), t.Result...)
	}
	if t.Error != nil {
		msg := *t.Error
		c.Error = &msg
	}
	if t.CompleteTime != nil {
		ts := *t.CompleteTime
		c.CompleteTime = &ts
	}
	return &c
}
