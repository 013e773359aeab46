package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/renal-ai-api/internal/domain"
	"github.com/phrazzld/renal-ai-api/internal/platform/logger"
	"github.com/phrazzld/renal-ai-api/internal/store"
)

const taskColumns = `id, analysis_type, file_id, status, progress, start_time, owner, result, error, complete_time`

// PostgresTaskStore implements store.TaskStore on the analysis_tasks table.
// Mutations lock the row, apply the domain transition and write it back, so
// the terminal-state rules are the same as the in-memory registry's.
type PostgresTaskStore struct {
	db     *sql.DB
	logger *slog.Logger
	newID  func() string
	timeFn func() time.Time
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// TaskStoreOption configures a PostgresTaskStore.
type TaskStoreOption func(*PostgresTaskStore)

// WithTaskIDGenerator overrides the task id source.
func WithTaskIDGenerator(fn func() string) TaskStoreOption {
	return func(s *PostgresTaskStore) { s.newID = fn }
}

// WithTaskClock overrides the clock used for start and completion times.
func WithTaskClock(fn func() time.Time) TaskStoreOption {
	return func(s *PostgresTaskStore) { s.timeFn = fn }
}

// NewPostgresTaskStore creates a task registry. It needs the pool itself,
// not a transaction, because every mutation opens its own transaction.
func NewPostgresTaskStore(db *sql.DB, log *slog.Logger, opts ...TaskStoreOption) *PostgresTaskStore {
	if db == nil {
		// ALLOW-PANIC: wiring error
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	s := &PostgresTaskStore{
		db:     db,
		logger: log.With(slog.String("component", "task_store")),
		newID:  domain.NewTaskID,
		timeFn: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create implements store.TaskStore. An id collision is retried with a
// fresh id up to store.MaxTaskIDAttempts times.
func (s *PostgresTaskStore) Create(
	ctx context.Context,
	analysisType domain.AnalysisType,
	fileID, owner string,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO analysis_tasks (id, analysis_type, file_id, status, progress, start_time, owner)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for attempt := 0; attempt < store.MaxTaskIDAttempts; attempt++ {
		t, err := domain.NewTask(s.newID(), analysisType, fileID, owner, s.timeFn())
		if err != nil {
			return nil, err
		}

		_, err = s.db.ExecContext(ctx, query,
			t.ID, t.AnalysisType, t.FileID, t.Status, t.Progress, t.StartTime, t.Owner)
		if err == nil {
			return t, nil
		}
		if !IsUniqueViolation(err) {
			log.Error("failed to insert task", slog.String("task_id", t.ID), slog.Any("error", err))
			return nil, MapError(err)
		}
		log.Warn("task id collision", slog.String("task_id", t.ID), slog.Int("attempt", attempt+1))
	}

	return nil, store.ErrTaskExists
}

// Get implements store.TaskStore.
func (s *PostgresTaskStore) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM analysis_tasks WHERE id = $1`

	t, err := scanTask(s.db.QueryRowContext(ctx, query, taskID))
	if err != nil {
		return nil, mapEntityError(err, store.ErrTaskNotFound, nil)
	}
	return t, nil
}

// UpdateProgress implements store.TaskStore.
func (s *PostgresTaskStore) UpdateProgress(ctx context.Context, taskID string, progress int) error {
	return s.mutate(ctx, taskID, func(t *domain.Task) error {
		return t.AdvanceProgress(progress)
	})
}

// Complete implements store.TaskStore.
func (s *PostgresTaskStore) Complete(ctx context.Context, taskID string, result json.RawMessage) error {
	return s.mutate(ctx, taskID, func(t *domain.Task) error {
		return t.Complete(result, s.timeFn())
	})
}

// Fail implements store.TaskStore.
func (s *PostgresTaskStore) Fail(ctx context.Context, taskID string, message string) error {
	return s.mutate(ctx, taskID, func(t *domain.Task) error {
		return t.Fail(message, s.timeFn())
	})
}

// Delete implements store.TaskStore.
func (s *PostgresTaskStore) Delete(ctx context.Context, taskID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analysis_tasks WHERE id = $1`, taskID)
	if err != nil {
		return MapError(err)
	}
	return checkRowsAffected(res, store.ErrTaskNotFound)
}

// mutate loads the task under a row lock, applies fn and writes the result
// back. The update only matches a processing row.
func (s *PostgresTaskStore) mutate(ctx context.Context, taskID string, fn func(*domain.Task) error) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		query := `SELECT ` + taskColumns + ` FROM analysis_tasks WHERE id = $1 FOR UPDATE`

		t, err := scanTask(tx.QueryRowContext(ctx, query, taskID))
		if err != nil {
			return mapEntityError(err, store.ErrTaskNotFound, nil)
		}

		if err := fn(t); err != nil {
			return err
		}

		var result any
		if t.Result != nil {
			result = []byte(t.Result)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE analysis_tasks
			SET status = $1, progress = $2, result = $3, error = $4, complete_time = $5
			WHERE id = $6 AND status = 'processing'
		`, t.Status, t.Progress, result, t.Error, t.CompleteTime, t.ID)
		if err != nil {
			return MapError(err)
		}
		return checkRowsAffected(res, store.ErrTaskTerminal)
	})
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t            domain.Task
		result       []byte
		errMsg       sql.NullString
		completeTime sql.NullTime
	)
	if err := row.Scan(
		&t.ID,
		&t.AnalysisType,
		&t.FileID,
		&t.Status,
		&t.Progress,
		&t.StartTime,
		&t.Owner,
		&result,
		&errMsg,
		&completeTime,
	); err != nil {
		return nil, err
	}

	t.StartTime = t.StartTime.UTC()
	if result != nil {
		t.Result = json.RawMessage(result)
	}
	if errMsg.Valid {
		t.Error = &errMsg.String
	}
	if completeTime.Valid {
		ts := completeTime.Time.UTC()
		t.CompleteTime = &ts
	}
	return &t, nil
}

// checkRowsAffected returns missing when the statement touched no row.
func checkRowsAffected(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}

// createdAt defaults a zero timestamp to now.
func createdAt(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Now().UTC()
	}
	return ts.UTC()
}
