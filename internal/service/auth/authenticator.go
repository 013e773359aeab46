package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/phrazzld/renal-ai-api/internal/domain"
	"github.com/phrazzld/renal-ai-api/internal/platform/logger"
	"github.com/phrazzld/renal-ai-api/internal/store"
)

// Failure classifies why a request could not be authenticated.
type Failure string

// Failure values. FailureNone means the request is authenticated.
const (
	FailureNone            Failure = "none"
	FailureMissingHeader   Failure = "missing_header"
	FailureMalformedHeader Failure = "malformed_header"
	FailureExpiredToken    Failure = "expired_token"
	FailureInvalidToken    Failure = "invalid_token"
	FailureUnknownSubject  Failure = "unknown_subject"
	FailureInternal        Failure = "internal"
)

// Result is the outcome of Authenticate. User is set only when Failure is
// FailureNone.
type Result struct {
	User    *domain.User
	Failure Failure
	// Err carries the underlying error for FailureInternal.
	Err error
}

// Authenticated reports whether the request carries a valid identity.
func (r Result) Authenticated() bool {
	return r.Failure == FailureNone && r.User != nil
}

// Message returns a client-safe description of the failure.
func (r Result) Message() string {
	switch r.Failure {
	case FailureNone:
		return ""
	case FailureMissingHeader:
		return "Authorization header required"
	case FailureMalformedHeader:
		return "Invalid authorization format"
	case FailureExpiredToken:
		return "Token has expired"
	case FailureUnknownSubject:
		return "User not found"
	case FailureInternal:
		return "An unexpected error occurred"
	default:
		return "Invalid token"
	}
}

// Authenticator resolves a bearer token to a registered user.
type Authenticator struct {
	jwt   JWTService
	users store.UserStore
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(jwt JWTService, users store.UserStore) *Authenticator {
	return &Authenticator{jwt: jwt, users: users}
}

// Authenticate classifies the Authorization header value and, when it is a
// valid bearer token for a known user, returns that user.
func (a *Authenticator) Authenticate(ctx context.Context, header string) Result {
	if header == "" {
		return Result{Failure: FailureMissingHeader}
	}

	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return Result{Failure: FailureMalformedHeader}
	}

	claims, err := a.jwt.ValidateToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return Result{Failure: FailureExpiredToken}
		}
		return Result{Failure: FailureInvalidToken}
	}

	user, err := a.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if store.IsNotFoundError(err) {
			return Result{Failure: FailureUnknownSubject}
		}
		logger.FromContext(ctx).Error("failed to load token subject",
			"error", err,
			"username", claims.Subject)
		return Result{Failure: FailureInternal, Err: err}
	}

	return Result{User: user, Failure: FailureNone}
}
