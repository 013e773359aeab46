package service_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/renal-ai-api/internal/domain"
	"github.com/phrazzld/renal-ai-api/internal/platform/memory"
	"github.com/phrazzld/renal-ai-api/internal/platform/models"
	"github.com/phrazzld/renal-ai-api/internal/service"
	"github.com/phrazzld/renal-ai-api/internal/store"
	"github.com/phrazzld/renal-ai-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rejectingSubmitter refuses every job.
type rejectingSubmitter struct{ err error }

func (r rejectingSubmitter) Submit(context.Context, task.Job) error { return r.err }

// recordingTaskStore remembers every task id it creates.
type recordingTaskStore struct {
	*memory.TaskStore
	mu      sync.Mutex
	created []string
}

func (s *recordingTaskStore) Create(ctx context.Context, at domain.AnalysisType, fileID, owner string) (*domain.Task, error) {
	t, err := s.TaskStore.Create(ctx, at, fileID, owner)
	if err == nil {
		s.mu.Lock()
		s.created = append(s.created, t.ID)
		s.mu.Unlock()
	}
	return t, err
}

func noSleep(context.Context, time.Duration) error { return nil }

type analysisFixture struct {
	files *memory.FileStore
	tasks *recordingTaskStore
	file  *domain.UploadedFile
}

func newAnalysisFixture(t *testing.T) *analysisFixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "0a1b_biopsy.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 4, 4), 0o600))

	files := memory.NewFileStore()
	file := &domain.UploadedFile{
		ID:           "0a1b_biopsy",
		OriginalName: "biopsy.png",
		SavedPath:    path,
		UploadedBy:   "alice",
	}
	require.NoError(t, files.Create(bg, file))

	return &analysisFixture{
		files: files,
		tasks: &recordingTaskStore{TaskStore: memory.NewTaskStore()},
		file:  file,
	}
}

func (f *analysisFixture) service(runner service.JobSubmitter) *service.AnalysisService {
	return service.NewAnalysisService(f.files, f.tasks, runner, service.AnalysisConfig{
		Handlers: task.Handlers(task.DefaultDelays()),
		Analyzer: models.NewManager(nil, discardLogger()),
		Sleep:    noSleep,
	}, discardLogger())
}

func TestAnalysisService_DispatchRunsToCompletion(t *testing.T) {
	t.Parallel()
	f := newAnalysisFixture(t)

	runner := task.NewRunner(task.RunnerConfig{WorkerCount: 2, QueueSize: 8}, discardLogger(), nil)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	svc := f.service(runner)

	for _, at := range domain.AnalysisTypes {
		res, err := svc.Dispatch(bg, service.DispatchRequest{
			Type:   at,
			FileID: f.file.ID,
			Caller: "alice",
		})
		require.NoError(t, err)
		assert.Regexp(t, `^task_[0-9a-f]{8}$`, res.TaskID)
		assert.Equal(t, at, res.AnalysisType)
		assert.Equal(t, domain.TaskStatusProcessing, res.Status)

		assert.Eventually(t, func() bool {
			got, err := svc.TaskStatus(bg, res.TaskID)
			return err == nil && got.Status == domain.TaskStatusCompleted
		}, 2*time.Second, 5*time.Millisecond, at)

		got, err := svc.TaskStatus(bg, res.TaskID)
		require.NoError(t, err)
		assert.Equal(t, 100, got.Progress)
		assert.Equal(t, "alice", got.Owner)
		assert.Contains(t, string(got.Result), `"file_name":"biopsy.png"`)
	}

	assert.Len(t, f.tasks.created, len(domain.AnalysisTypes), "exactly one task per dispatch")
}

func TestAnalysisService_UnknownFileCreatesNoTask(t *testing.T) {
	t.Parallel()
	f := newAnalysisFixture(t)
	svc := f.service(rejectingSubmitter{})

	_, err := svc.Dispatch(bg, service.DispatchRequest{
		Type:   domain.AnalysisTypeReport,
		FileID: "missing",
		Caller: "alice",
	})
	assert.ErrorIs(t, err, store.ErrFileNotFound)
	assert.Empty(t, f.tasks.created)
}

func TestAnalysisService_InvalidType(t *testing.T) {
	t.Parallel()
	f := newAnalysisFixture(t)

	_, err := f.service(rejectingSubmitter{}).Dispatch(bg, service.DispatchRequest{
		Type:   "biopsy_magic",
		FileID: f.file.ID,
		Caller: "alice",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAnalysisType)
	assert.Empty(t, f.tasks.created)
}

func TestAnalysisService_RejectedJobLeavesNoTask(t *testing.T) {
	t.Parallel()

	for _, rejection := range []error{task.ErrQueueFull, task.ErrRunnerStopped} {
		f := newAnalysisFixture(t)

		_, err := f.service(rejectingSubmitter{err: rejection}).Dispatch(bg, service.DispatchRequest{
			Type:   domain.AnalysisTypeGlomeruliCount,
			FileID: f.file.ID,
			Caller: "alice",
		})
		require.ErrorIs(t, err, service.ErrAnalysisUnavailable)
		assert.ErrorIs(t, err, rejection)

		require.Len(t, f.tasks.created, 1)
		_, err = f.tasks.Get(bg, f.tasks.created[0])
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	}
}

func TestAnalysisService_TaskStatusNotFound(t *testing.T) {
	t.Parallel()
	f := newAnalysisFixture(t)

	_, err := f.service(rejectingSubmitter{}).TaskStatus(bg, "task_deadbeef")
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}
