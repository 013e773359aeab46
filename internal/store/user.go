package store

import (
	"context"

	"github.com/phrazzld/renal-ai-api/internal/domain"
)

// UserStore is the credential store.
type UserStore interface {
	// Create saves a new user. The password must already be hashed.
	// Returns ErrUsernameExists if the username is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByUsername retrieves a user by username.
	// Returns ErrUserNotFound if the user does not exist.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}
