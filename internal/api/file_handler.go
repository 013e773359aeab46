package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/phrazzld/renal-ai-api/internal/api/shared"
	"github.com/phrazzld/renal-ai-api/internal/platform/logger"
	"github.com/phrazzld/renal-ai-api/internal/service"
)

const (
	// uploadField is the multipart form field carrying the slide.
	uploadField = "file"

	// multipartOverhead is slack on top of the file limit for part headers
	// and boundaries.
	multipartOverhead = 1 << 20
)

var errNoFile = fmt.Errorf("%w: multipart field %q is required", shared.ErrInvalidBody, uploadField)

// FileHandler handles slide upload and listing.
type FileHandler struct {
	uploads  *service.UploadService
	maxBytes int64
	logger   *slog.Logger
}

// NewFileHandler creates a FileHandler. maxBytes bounds the request body;
// zero disables the limit.
func NewFileHandler(uploads *service.UploadService, maxBytes int64, log *slog.Logger) *FileHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for FileHandler")
	}
	return &FileHandler{
		uploads:  uploads,
		maxBytes: maxBytes,
		logger:   log.With(slog.String("component", "file_handler")),
	}
}

// Upload handles POST /api/upload. The file part is streamed to disk
// without buffering the whole body in memory.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %w", shared.ErrInvalidBody, err))
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			HandleAPIError(w, r, errNoFile)
			return
		}
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if !errors.As(err, &maxBytesErr) {
				err = fmt.Errorf("%w: %w", shared.ErrInvalidBody, err)
			}
			HandleAPIError(w, r, err)
			return
		}

		if part.FormName() != uploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		file, err := h.uploads.Upload(r.Context(), service.UploadRequest{
			Filename: part.FileName(),
			Content:  part,
			Owner:    user.Username,
		})
		_ = part.Close()
		if err != nil {
			HandleAPIError(w, r, err)
			return
		}

		logger.FromContextOrDefault(r.Context(), h.logger).Info("slide uploaded",
			slog.String("file_id", file.ID),
			slog.String("username", user.Username))

		shared.RespondWithData(w, r, http.StatusOK, "File uploaded successfully", UploadResponse{
			FileID:             file.ID,
			OriginalName:       file.OriginalName,
			FileSize:           file.FileSize,
			Metadata:           file.Metadata,
			ThumbnailAvailable: file.HasThumbnail,
		})
		return
	}
}

// List handles GET /api/files. Only the caller's own uploads are returned.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	files, err := h.uploads.ListFiles(r.Context(), user.Username)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, "Query successful", FilesResponse{
		TotalFiles: len(files),
		Files:      files,
	})
}
