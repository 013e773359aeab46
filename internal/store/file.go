package store

import (
	"context"

	"github.com/phrazzld/renal-ai-api/internal/domain"
)

// FileStore is the registry of uploaded slide files.
type FileStore interface {
	// Create registers an uploaded file. Returns ErrFileExists on id collision.
	Create(ctx context.Context, file *domain.UploadedFile) error

	// Get retrieves a file record by id. Returns ErrFileNotFound if absent.
	Get(ctx context.Context, fileID string) (*domain.UploadedFile, error)

	// ListByUploader returns every file uploaded by the given user, keyed by file id.
	ListByUploader(ctx context.Context, username string) (map[string]*domain.UploadedFile, error)
}
