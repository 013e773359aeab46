package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/renal-ai-api/internal/domain"
	"github.com/phrazzld/renal-ai-api/internal/platform/logger"
	"github.com/phrazzld/renal-ai-api/internal/store"
)

// PostgresUserStore implements store.UserStore on the users table.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.UserStore = (*PostgresUserStore)(nil)

// NewPostgresUserStore creates a user store on an open connection or
// transaction. If logger is nil, the default logger is used.
func NewPostgresUserStore(db store.DBTX, log *slog.Logger) *PostgresUserStore {
	if db == nil {
		// ALLOW-PANIC: wiring error
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresUserStore{
		db:     db,
		logger: log.With(slog.String("component", "user_store")),
	}
}

// Create implements store.UserStore.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO users (username, email, full_name, hashed_password, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.FullName,
		user.HashedPassword,
		createdAt(user.CreatedAt),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("username already taken", slog.String("username", user.Username))
			return store.ErrUsernameExists
		}
		log.Error("failed to insert user", slog.String("username", user.Username), slog.Any("error", err))
		return MapError(err)
	}
	return nil
}

// GetByUsername implements store.UserStore.
func (s *PostgresUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT username, email, full_name, hashed_password, created_at
		FROM users
		WHERE username = $1
	`

	var (
		u        domain.User
		fullName sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&u.Username,
		&u.Email,
		&fullName,
		&u.HashedPassword,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, mapEntityError(err, store.ErrUserNotFound, nil)
	}

	if fullName.Valid {
		u.FullName = &fullName.String
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}
