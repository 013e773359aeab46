package task

import (
	"errors"
	"fmt"
	"sync"
)

// Common errors returned when submitting jobs
var (
	ErrRunnerStopped = errors.New("task runner is stopped")
	ErrQueueFull     = errors.New("task queue is full")
)

// queue is a bounded, non-blocking job buffer. Once closed it rejects
// further jobs; the channel itself is never closed so workers can select on
// it alongside their stop signal.
type queue struct {
	mu     sync.Mutex
	jobs   chan Job
	closed bool
}

func newQueue(size int) *queue {
	return &queue{jobs: make(chan Job, size)}
}

// enqueue adds a job without blocking.
func (q *queue) enqueue(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrRunnerStopped
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.jobs))
	}
}

// close stops accepting jobs. It reports whether this call closed the queue.
func (q *queue) close() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.closed = true
	return true
}

func (q *queue) len() int {
	return len(q.jobs)
}
