package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/phrazzld/renal-ai-api/internal/domain"
	"github.com/phrazzld/renal-ai-api/internal/store"
)

// TaskStore implements store.TaskStore over a map keyed by task id.
type TaskStore struct {
	mu     sync.RWMutex
	tasks  map[string]*domain.Task
	newID  func() string
	timeFn func() time.Time
}

var _ store.TaskStore = (*TaskStore)(nil)

// TaskStoreOption configures a TaskStore.
type TaskStoreOption func(*TaskStore)

// WithIDGenerator overrides the task id generator.
func WithIDGenerator(fn func() string) TaskStoreOption {
	return func(s *TaskStore) { s.newID = fn }
}

// WithClock overrides the time source used for start and complete times.
func WithClock(fn func() time.Time) TaskStoreOption {
	return func(s *TaskStore) { s.timeFn = fn }
}

// NewTaskStore creates an empty task registry.
func NewTaskStore(opts ...TaskStoreOption) *TaskStore {
	s := &TaskStore{
		tasks:  make(map[string]*domain.Task),
		newID:  domain.NewTaskID,
		timeFn: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create implements store.TaskStore.
func (s *TaskStore) Create(
	ctx context.Context,
	analysisType domain.AnalysisType,
	fileID, owner string,
) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; attempt < store.MaxTaskIDAttempts; attempt++ {
		id := s.newID()
		if _, exists := s.tasks[id]; exists {
			continue
		}

		t, err := domain.NewTask(id, analysisType, fileID, owner, s.timeFn())
		if err != nil {
			return nil, err
		}
		s.tasks[id] = t
		return t.Clone(), nil
	}

	return nil, store.ErrTaskExists
}

// Get implements store.TaskStore.
func (s *TaskStore) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return t.Clone(), nil
}

// UpdateProgress implements store.TaskStore.
func (s *TaskStore) UpdateProgress(ctx context.Context, taskID string, progress int) error {
	return s.mutate(taskID, func(t *domain.Task) error {
		return t.AdvanceProgress(progress)
	})
}

// Complete implements store.TaskStore.
func (s *TaskStore) Complete(ctx context.Context, taskID string, result json.RawMessage) error {
	return s.mutate(taskID, func(t *domain.Task) error {
		return t.Complete(result, s.timeFn())
	})
}

// Fail implements store.TaskStore.
func (s *TaskStore) Fail(ctx context.Context, taskID string, message string) error {
	return s.mutate(taskID, func(t *domain.Task) error {
		return t.Fail(message, s.timeFn())
	})
}

// Delete implements store.TaskStore.
func (s *TaskStore) Delete(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[taskID]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, taskID)
	return nil
}

// mutate applies fn to the stored task under the write lock.
func (s *TaskStore) mutate(taskID string, fn func(*domain.Task) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return store.ErrTaskNotFound
	}
	return fn(t)
}
