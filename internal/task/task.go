package task

import (
	"context"
	"time"
)

// Job represents a unit of background work to be processed
type Job interface {
	// ID returns the task identifier the job reports under
	ID() string

	// Type returns the job type, used as a log and metric label
	Type() string

	// Execute runs the job logic
	Execute(ctx context.Context) error
}

// Job outcome labels passed to Observer.JobFinished.
const (
	OutcomeCompleted   = "completed"
	OutcomeError       = "error"
	OutcomeInterrupted = "interrupted"
)

// Observer receives runner lifecycle events, typically to export metrics.
type Observer interface {
	JobSubmitted(jobType string)
	JobFinished(jobType, outcome string, elapsed time.Duration)
	QueueDepth(n int)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) JobSubmitted(string)                       {}
func (NopObserver) JobFinished(string, string, time.Duration) {}
func (NopObserver) QueueDepth(int)                            {}
