package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// funcJob is a Job backed by a function.
type funcJob struct {
	id  string
	typ string
	fn  func(ctx context.Context) error
}

func (j *funcJob) ID() string                        { return j.id }
func (j *funcJob) Type() string                      { return j.typ }
func (j *funcJob) Execute(ctx context.Context) error { return j.fn(ctx) }

// recordingObserver captures runner events.
type recordingObserver struct {
	mu        sync.Mutex
	submitted []string
	finished  map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{finished: make(map[string]int)}
}

func (o *recordingObserver) JobSubmitted(jobType string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.submitted = append(o.submitted, jobType)
}

func (o *recordingObserver) JobFinished(jobType, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished[jobType+"/"+outcome]++
}

func (o *recordingObserver) QueueDepth(int) {}

func (o *recordingObserver) finishedCount(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.finished[key]
}

func waitFor(t *testing.T, ch <-chan string, n int) []string {
	t.Helper()
	got := make([]string, 0, n)
	timeout := time.After(2 * time.Second)
	for len(got) < n {
		select {
		case id := <-ch:
			got = append(got, id)
		case <-timeout:
			t.Fatalf("timed out after %d of %d jobs", len(got), n)
		}
	}
	return got
}

func TestRunner_ProcessesSubmittedJobs(t *testing.T) {
	t.Parallel()

	observer := newRecordingObserver()
	runner := NewRunner(RunnerConfig{WorkerCount: 2, QueueSize: 10}, testLogger(), observer)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	done := make(chan string, 5)
	ids := []string{"task_1", "task_2", "task_3", "task_4", "task_5"}
	for _, id := range ids {
		id := id
		err := runner.Submit(context.Background(), &funcJob{id: id, typ: "report", fn: func(context.Context) error {
			done <- id
			return nil
		}})
		require.NoError(t, err)
	}

	assert.ElementsMatch(t, ids, waitFor(t, done, len(ids)))
	assert.Eventually(t, func() bool {
		return observer.finishedCount("report/completed") == len(ids)
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, observer.submitted, len(ids))
}

func TestRunner_QueueFull(t *testing.T) {
	t.Parallel()

	// Not started, so nothing drains the queue.
	runner := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 1}, testLogger(), nil)
	defer runner.Stop()

	noop := func(context.Context) error { return nil }
	require.NoError(t, runner.Submit(context.Background(), &funcJob{id: "a", typ: "report", fn: noop}))

	err := runner.Submit(context.Background(), &funcJob{id: "b", typ: "report", fn: noop})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestRunner_StopIsIdempotentAndRejectsJobs(t *testing.T) {
	t.Parallel()

	runner := NewRunner(DefaultRunnerConfig(), testLogger(), nil)
	require.NoError(t, runner.Start())

	runner.Stop()
	runner.Stop()

	err := runner.Submit(context.Background(), &funcJob{id: "late", typ: "report", fn: func(context.Context) error {
		return nil
	}})
	assert.ErrorIs(t, err, ErrRunnerStopped)
	assert.ErrorIs(t, runner.Start(), ErrRunnerStopped)
}

func TestRunner_PanicDoesNotKillWorker(t *testing.T) {
	t.Parallel()

	observer := newRecordingObserver()
	runner := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 4}, testLogger(), observer)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	done := make(chan string, 1)
	require.NoError(t, runner.Submit(context.Background(), &funcJob{id: "boom", typ: "nuclei_count", fn: func(context.Context) error {
		panic("model exploded")
	}}))
	require.NoError(t, runner.Submit(context.Background(), &funcJob{id: "after", typ: "nuclei_count", fn: func(context.Context) error {
		done <- "after"
		return nil
	}}))

	assert.Equal(t, []string{"after"}, waitFor(t, done, 1))
	assert.Eventually(t, func() bool {
		return observer.finishedCount("nuclei_count/error") == 1 &&
			observer.finishedCount("nuclei_count/completed") == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRunner_FailedJobIsReported(t *testing.T) {
	t.Parallel()

	observer := newRecordingObserver()
	runner := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 1}, testLogger(), observer)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	require.NoError(t, runner.Submit(context.Background(), &funcJob{id: "x", typ: "report", fn: func(context.Context) error {
		return errors.New("slide unreadable")
	}}))

	assert.Eventually(t, func() bool {
		return observer.finishedCount("report/error") == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRunner_StopWaitsForInFlightJob(t *testing.T) {
	t.Parallel()

	observer := newRecordingObserver()
	runner := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 1}, testLogger(), observer)
	require.NoError(t, runner.Start())

	started := make(chan string, 1)
	require.NoError(t, runner.Submit(context.Background(), &funcJob{id: "slow", typ: "report", fn: func(ctx context.Context) error {
		started <- "slow"
		<-ctx.Done()
		return ctx.Err()
	}}))
	waitFor(t, started, 1)

	runner.Stop()

	assert.Equal(t, 1, observer.finishedCount("report/interrupted"))
}

func TestNewRunner_InvalidConfigFallsBack(t *testing.T) {
	t.Parallel()

	runner := NewRunner(RunnerConfig{WorkerCount: -3, QueueSize: 0}, testLogger(), nil)
	assert.Equal(t, 1, runner.config.WorkerCount)
	assert.Equal(t, 1, runner.config.QueueSize)
}
