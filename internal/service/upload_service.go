package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phrazzld/renal-ai-api/internal/domain"
	"github.com/phrazzld/renal-ai-api/internal/platform/imaging"
	"github.com/phrazzld/renal-ai-api/internal/store"
)

// Upload outcome labels passed to UploadObserver.
const (
	UploadSucceeded = "success"
	UploadRejected  = "rejected"
	UploadFailed    = "failed"
)

// UploadObserver receives the outcome of every upload.
type UploadObserver interface {
	UploadFinished(result string)
}

type nopUploadObserver struct{}

func (nopUploadObserver) UploadFinished(string) {}

// UploadRequest is one slide upload.
type UploadRequest struct {
	Filename string
	Content  io.Reader
	Owner    string
}

// UploadConfig locates the storage directories and bounds upload size.
type UploadConfig struct {
	// DataDir holds uploads/ and results/.
	DataDir string
	// MaxBytes is the largest accepted upload. Zero means unlimited.
	MaxBytes int64
}

// UploadsDir returns the directory slides are saved in.
func (c UploadConfig) UploadsDir() string { return filepath.Join(c.DataDir, "uploads") }

// ResultsDir returns the directory thumbnails are written to.
func (c UploadConfig) ResultsDir() string { return filepath.Join(c.DataDir, "results") }

// UploadService stores slide images and registers them
type UploadService struct {
	files    store.FileStore
	cfg      UploadConfig
	observer UploadObserver
	logger   *slog.Logger
	now      func() time.Time
}

// NewUploadService creates an UploadService. A nil observer discards events.
func NewUploadService(files store.FileStore, cfg UploadConfig, observer UploadObserver, logger *slog.Logger) *UploadService {
	if observer == nil {
		observer = nopUploadObserver{}
	}
	return &UploadService{
		files:    files,
		cfg:      cfg,
		observer: observer,
		logger:   logger.With("component", "upload_service"),
		now:      time.Now,
	}
}

// Upload validates the name, writes the content, reads its metadata, renders
// a thumbnail and registers the file. A failure after the first write removes
// everything written for this upload.
func (s *UploadService) Upload(ctx context.Context, req UploadRequest) (*domain.UploadedFile, error) {
	file, err := s.upload(ctx, req)
	switch {
	case err == nil:
		s.observer.UploadFinished(UploadSucceeded)
	case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrUploadTooLarge):
		s.observer.UploadFinished(UploadRejected)
	default:
		s.observer.UploadFinished(UploadFailed)
	}
	return file, err
}

func (s *UploadService) upload(ctx context.Context, req UploadRequest) (*domain.UploadedFile, error) {
	name := sanitizeFilename(req.Filename)
	if name == "" || !imaging.IsSupported(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(req.Filename))
	}

	fileID := domain.NewFileID(name)
	savedPath := filepath.Join(s.cfg.UploadsDir(), fileID+filepath.Ext(name))
	thumbPath := filepath.Join(s.cfg.ResultsDir(), fileID+"_thumb.jpg")

	log := s.logger.With("file_id", fileID, "original_name", name)

	size, err := s.save(savedPath, req.Content)
	if err != nil {
		if !errors.Is(err, ErrUploadTooLarge) {
			log.ErrorContext(ctx, "failed to save upload", "error", err)
		}
		return nil, err
	}

	cleanup := func() {
		_ = os.Remove(savedPath)
		_ = os.Remove(thumbPath)
	}

	metadata, err := imaging.ExtractMetadata(savedPath)
	if err != nil {
		cleanup()
		log.ErrorContext(ctx, "failed to read image metadata", "error", err)
		return nil, fmt.Errorf("failed to read image metadata: %w", err)
	}

	hasThumb := imaging.GenerateThumbnail(savedPath, thumbPath, imaging.ThumbnailSize)
	if !hasThumb {
		log.WarnContext(ctx, "thumbnail generation failed")
	}

	file := &domain.UploadedFile{
		ID:           fileID,
		OriginalName: name,
		SavedPath:    savedPath,
		FileSize:     size,
		UploadTime:   s.now().UTC(),
		UploadedBy:   req.Owner,
		Metadata:     metadata,
		HasThumbnail: hasThumb,
	}

	if err := s.files.Create(ctx, file); err != nil {
		cleanup()
		log.ErrorContext(ctx, "failed to register upload", "error", err)
		return nil, fmt.Errorf("failed to register upload: %w", err)
	}

	log.InfoContext(ctx, "file uploaded",
		"file_size", size,
		"uploaded_by", req.Owner,
		"has_thumbnail", hasThumb)
	return file, nil
}

// save copies content to a new file at path, enforcing the size limit. On
// failure it removes the file only if it created it.
func (s *UploadService) save(path string, content io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create upload directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create upload file: %w", err)
	}

	src := content
	if s.cfg.MaxBytes > 0 {
		src = io.LimitReader(content, s.cfg.MaxBytes+1)
	}

	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	var saveErr error
	switch {
	case copyErr != nil:
		saveErr = fmt.Errorf("failed to write upload: %w", copyErr)
	case closeErr != nil:
		saveErr = fmt.Errorf("failed to write upload: %w", closeErr)
	case s.cfg.MaxBytes > 0 && n > s.cfg.MaxBytes:
		saveErr = ErrUploadTooLarge
	}
	if saveErr != nil {
		_ = os.Remove(path)
		return 0, saveErr
	}
	return n, nil
}

// sanitizeFilename strips any client supplied directory components.
func sanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}

// ListFiles returns the files uploaded by owner, keyed by file id.
func (s *UploadService) ListFiles(ctx context.Context, owner string) (map[string]*domain.UploadedFile, error) {
	files, err := s.files.ListByUploader(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}
