package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/renal-ai-api/internal/domain"
	"github.com/phrazzld/renal-ai-api/internal/service/auth"
	"github.com/phrazzld/renal-ai-api/internal/store"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	FullName *string
}

// LoginResult is a freshly issued access token and the account it belongs to.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// UserService provides account registration and login
type UserService interface {
	// Register creates an account. Returns store.ErrUsernameExists if the
	// username is taken.
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)

	// Login checks the credentials and issues an access token. Returns
	// auth.ErrInvalidCredentials when the username is unknown or the password
	// does not match.
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	hasher    auth.PasswordHasher
	verifier  auth.PasswordVerifier
	jwt       auth.JWTService
	logger    *slog.Logger
}

var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	jwt auth.JWTService,
	logger *slog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userStore: userStore,
		hasher:    hasher,
		verifier:  verifier,
		jwt:       jwt,
		logger:    logger.With("component", "user_service"),
	}
}

// Register implements UserService.
func (s *UserServiceImpl) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if _, err := s.userStore.GetByUsername(ctx, in.Username); err == nil {
		s.logger.DebugContext(ctx, "attempted to register existing username",
			"username", in.Username)
		return nil, store.ErrUsernameExists
	} else if !store.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	user, err := domain.NewUser(in.Username, in.Email, in.FullName, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			s.logger.DebugContext(ctx, "attempted to register existing username",
				"username", in.Username)
		} else {
			s.logger.ErrorContext(ctx, "failed to save user",
				"error", err,
				"username", in.Username)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", "username", user.Username)
	return user, nil
}

// Login implements UserService.
func (s *UserServiceImpl) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.userStore.GetByUsername(ctx, username)
	if err != nil {
		if store.IsNotFoundError(err) {
			s.logger.DebugContext(ctx, "login for unknown username", "username", username)
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		s.logger.DebugContext(ctx, "login with wrong password", "username", username)
		return nil, auth.ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwt.GenerateToken(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", "username", user.Username)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
