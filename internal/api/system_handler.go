package api

import (
	"net/http"
	"time"

	"github.com/phrazzld/renal-ai-api/internal/api/shared"
)

// ServiceName is reported by the root endpoint.
const ServiceName = "Renal Pathology AI Analysis Service"

// SystemHandler serves the unauthenticated status endpoints.
type SystemHandler struct {
	dataDir string
	now     func() time.Time
}

// NewSystemHandler creates a SystemHandler reporting dataDir as its data path.
func NewSystemHandler(dataDir string) *SystemHandler {
	return &SystemHandler{dataDir: dataDir, now: time.Now}
}

// Root handles GET /.
func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithData(w, r, http.StatusOK, "Service is running", RootResponse{
		Status:    "running",
		Service:   ServiceName,
		Timestamp: h.now().UTC(),
		DataPath:  h.dataDir,
	})
}

// Health handles GET /health.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithData(w, r, http.StatusOK, "ok", HealthResponse{Status: "ok"})
}

// NotFound writes an enveloped 404 for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithError(w, r, http.StatusNotFound, "Not found")
}

// MethodNotAllowed writes an enveloped 405.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
}
