package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/renal-ai-api/internal/api/shared"
	"github.com/phrazzld/renal-ai-api/internal/domain"
	"github.com/phrazzld/renal-ai-api/internal/service"
)

// TaskIDParam is the chi URL parameter holding a task id.
const TaskIDParam = "task_id"

// AnalysisHandler starts analyses and reports task status.
type AnalysisHandler struct {
	analysis *service.AnalysisService
	logger   *slog.Logger
}

// NewAnalysisHandler creates an AnalysisHandler.
func NewAnalysisHandler(analysis *service.AnalysisService, log *slog.Logger) *AnalysisHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AnalysisHandler")
	}
	return &AnalysisHandler{
		analysis: analysis,
		logger:   log.With(slog.String("component", "analysis_handler")),
	}
}

// Analyze handles POST /api/analyze. It returns as soon as the task is
// registered; clients poll the task status for the outcome.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AnalyzeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	analysisType, err := domain.ParseAnalysisType(req.AnalysisType)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	res, err := h.analysis.Dispatch(r.Context(), service.DispatchRequest{
		Type:       analysisType,
		FileID:     req.FileID,
		Parameters: req.Parameters,
		Caller:     user.Username,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, "Analysis task started", res)
}

// TaskStatus handles GET /api/task-status/{task_id}.
func (h *AnalysisHandler) TaskStatus(w http.ResponseWriter, r *http.Request) {
	task, err := h.analysis.TaskStatus(r.Context(), chi.URLParam(r, TaskIDParam))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, "Query successful", task)
}
