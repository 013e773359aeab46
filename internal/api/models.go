package api

import (
	"time"

	"github.com/phrazzld/renal-ai-api/internal/domain"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string  `json:"username"  validate:"required,min=1,max=64"`
	Password string  `json:"password"  validate:"required,min=1,max=72"`
	Email    string  `json:"email"     validate:"required,email"`
	FullName *string `json:"full_name" validate:"omitempty,max=128"`
}

// RegisterResponse is the data of a successful registration.
type RegisterResponse struct {
	Username string `json:"username"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1,max=72"`
}

// LoginResponse is the data of a successful login.
type LoginResponse struct {
	Token     string          `json:"token"`
	TokenType string          `json:"token_type"`
	ExpiresAt string          `json:"expires_at"`
	UserInfo  domain.UserInfo `json:"user_info"`
}

// UploadResponse is the data of a successful upload.
type UploadResponse struct {
	FileID             string               `json:"file_id"`
	OriginalName       string               `json:"original_name"`
	FileSize           int64                `json:"file_size"`
	Metadata           domain.ImageMetadata `json:"metadata"`
	ThumbnailAvailable bool                 `json:"thumbnail_available"`
}

// AnalyzeRequest defines the payload for starting an analysis.
type AnalyzeRequest struct {
	AnalysisType string         `json:"analysis_type" validate:"required,oneof=report glomeruli_count nuclei_count"`
	FileID       string         `json:"file_id"       validate:"required"`
	Parameters   map[string]any `json:"parameters"`
}

// FilesResponse lists the caller's uploads keyed by file id.
type FilesResponse struct {
	TotalFiles int                             `json:"total_files"`
	Files      map[string]*domain.UploadedFile `json:"files"`
}

// RootResponse describes the running service.
type RootResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
	DataPath  string    `json:"data_path"`
}

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	Status string `json:"status"`
}
