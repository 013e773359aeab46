package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/phrazzld/renal-ai-api/internal/domain"
	"github.com/phrazzld/renal-ai-api/internal/store"
)

// FileStore implements store.FileStore over a map keyed by file id.
type FileStore struct {
	mu    sync.RWMutex
	files map[string]domain.UploadedFile
}

var _ store.FileStore = (*FileStore)(nil)

// NewFileStore creates an empty file registry.
func NewFileStore() *FileStore {
	return &FileStore{files: make(map[string]domain.UploadedFile)}
}

// Create implements store.FileStore.
func (s *FileStore) Create(ctx context.Context, file *domain.UploadedFile) error {
	if err := file.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.files[file.ID]; exists {
		return store.ErrFileExists
	}
	s.files[file.ID] = *file
	return nil
}

// Get implements store.FileStore.
func (s *FileStore) Get(ctx context.Context, fileID string) (*domain.UploadedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[fileID]
	if !ok {
		return nil, store.ErrFileNotFound
	}
	return &f, nil
}

// ListByUploader implements store.FileStore.
func (s *FileStore) ListByUploader(ctx context.Context, username string) (map[string]*domain.UploadedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*domain.UploadedFile)
	for id, f := range s.files {
		if f.UploadedBy != username {
			continue
		}
		f := f
		out[id] = &f
	}
	return out, nil
}
