package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/renal-ai-api/internal/domain"
	"github.com/phrazzld/renal-ai-api/internal/platform/models"
	"github.com/phrazzld/renal-ai-api/internal/store"
	"github.com/phrazzld/renal-ai-api/internal/task"
)

// JobSubmitter accepts background jobs without blocking. *task.Runner
// satisfies it.
type JobSubmitter interface {
	Submit(ctx context.Context, job task.Job) error
}

// DispatchRequest asks for one analysis of an uploaded file.
type DispatchRequest struct {
	Type       domain.AnalysisType
	FileID     string
	Parameters map[string]any
	Caller     string
}

// DispatchResult acknowledges an accepted analysis.
type DispatchResult struct {
	TaskID       string              `json:"task_id"`
	AnalysisType domain.AnalysisType `json:"analysis_type"`
	Status       domain.TaskStatus   `json:"status"`
}

// AnalysisConfig carries the job dependencies shared by every dispatch.
type AnalysisConfig struct {
	Handlers map[domain.AnalysisType]task.Handler
	Analyzer task.Analyzer
	// Sleep overrides the handlers' wait function. Nil uses real timers.
	Sleep task.SleepFunc
}

// AnalysisService creates analysis tasks and schedules their jobs
type AnalysisService struct {
	files  store.FileStore
	tasks  store.TaskStore
	runner JobSubmitter
	cfg    AnalysisConfig
	logger *slog.Logger
}

// NewAnalysisService creates an AnalysisService.
func NewAnalysisService(
	files store.FileStore,
	tasks store.TaskStore,
	runner JobSubmitter,
	cfg AnalysisConfig,
	logger *slog.Logger,
) *AnalysisService {
	return &AnalysisService{
		files:  files,
		tasks:  tasks,
		runner: runner,
		cfg:    cfg,
		logger: logger.With("component", "analysis_service"),
	}
}

// Dispatch registers exactly one processing task for the request and hands
// its job to the worker pool. It returns without waiting for the analysis.
// If the pool rejects the job the task is removed again and
// ErrAnalysisUnavailable is returned.
func (s *AnalysisService) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	handler, ok := s.cfg.Handlers[req.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAnalysisType, req.Type)
	}

	file, err := s.files.Get(ctx, req.FileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file: %w", err)
	}

	t, err := s.tasks.Create(ctx, req.Type, file.ID, req.Caller)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create task", "error", err, "file_id", file.ID)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	job := task.NewAnalysisJob(task.AnalysisJobConfig{
		TaskID:     t.ID,
		Handler:    handler,
		Slide:      models.Slide{Path: file.SavedPath, Name: file.OriginalName},
		Parameters: req.Parameters,
		Tasks:      s.tasks,
		Analyzer:   s.cfg.Analyzer,
		Logger:     s.logger,
		Sleep:      s.cfg.Sleep,
	})

	if err := s.runner.Submit(ctx, job); err != nil {
		if delErr := s.tasks.Delete(ctx, t.ID); delErr != nil && !errors.Is(delErr, store.ErrTaskNotFound) {
			s.logger.ErrorContext(ctx, "failed to roll back unscheduled task",
				"error", delErr,
				"task_id", t.ID)
		}
		s.logger.WarnContext(ctx, "analysis rejected by worker pool",
			"error", err,
			"task_id", t.ID,
			"analysis_type", req.Type)
		return nil, fmt.Errorf("%w: %w", ErrAnalysisUnavailable, err)
	}

	s.logger.InfoContext(ctx, "analysis task started",
		"task_id", t.ID,
		"analysis_type", req.Type,
		"file_id", file.ID,
		"owner", req.Caller)

	return &DispatchResult{
		TaskID:       t.ID,
		AnalysisType: t.AnalysisType,
		Status:       t.Status,
	}, nil
}

// TaskStatus returns the current snapshot of a task.
func (s *AnalysisService) TaskStatus(ctx context.Context, taskID string) (*domain.Task, error) {
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}
