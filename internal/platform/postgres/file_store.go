package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/phrazzld/renal-ai-api/internal/domain"
	"github.com/phrazzld/renal-ai-api/internal/platform/logger"
	"github.com/phrazzld/renal-ai-api/internal/store"
)

const fileColumns = `id, original_name, saved_path, file_size, upload_time, uploaded_by, metadata, has_thumbnail`

// PostgresFileStore implements store.FileStore on the uploaded_files table.
type PostgresFileStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.FileStore = (*PostgresFileStore)(nil)

// NewPostgresFileStore creates a file registry on an open connection or
// transaction.
func NewPostgresFileStore(db store.DBTX, log *slog.Logger) *PostgresFileStore {
	if db == nil {
		// ALLOW-PANIC: wiring error
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresFileStore{
		db:     db,
		logger: log.With(slog.String("component", "file_store")),
	}
}

// Create implements store.FileStore.
func (s *PostgresFileStore) Create(ctx context.Context, file *domain.UploadedFile) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := file.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	metadata, err := json.Marshal(file.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	query := `INSERT INTO uploaded_files (` + fileColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = s.db.ExecContext(ctx, query,
		file.ID,
		file.OriginalName,
		file.SavedPath,
		file.FileSize,
		createdAt(file.UploadTime),
		file.UploadedBy,
		metadata,
		file.HasThumbnail,
	)
	if err != nil {
		log.Error("failed to insert uploaded file", slog.String("file_id", file.ID), slog.Any("error", err))
		return mapEntityError(err, nil, store.ErrFileExists)
	}
	return nil
}

// Get implements store.FileStore.
func (s *PostgresFileStore) Get(ctx context.Context, fileID string) (*domain.UploadedFile, error) {
	query := `SELECT ` + fileColumns + ` FROM uploaded_files WHERE id = $1`

	f, err := scanFile(s.db.QueryRowContext(ctx, query, fileID))
	if err != nil {
		return nil, mapEntityError(err, store.ErrFileNotFound, nil)
	}
	return f, nil
}

// ListByUploader implements store.FileStore.
func (s *PostgresFileStore) ListByUploader(ctx context.Context, username string) (map[string]*domain.UploadedFile, error) {
	query := `SELECT ` + fileColumns + ` FROM uploaded_files WHERE uploaded_by = $1 ORDER BY upload_time`

	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	files := make(map[string]*domain.UploadedFile)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, MapError(err)
		}
		files[f.ID] = f
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return files, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*domain.UploadedFile, error) {
	var (
		f        domain.UploadedFile
		metadata []byte
	)
	if err := row.Scan(
		&f.ID,
		&f.OriginalName,
		&f.SavedPath,
		&f.FileSize,
		&f.UploadTime,
		&f.UploadedBy,
		&metadata,
		&f.HasThumbnail,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metadata, &f.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata of %s: %w", f.ID, err)
	}
	f.UploadTime = f.UploadTime.UTC()
	return &f, nil
}
