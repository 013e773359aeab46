package middleware

import (
	"context"
	"net/http"

	"github.com/phrazzld/renal-ai-api/internal/api/shared"
	"github.com/phrazzld/renal-ai-api/internal/domain"
	"github.com/phrazzld/renal-ai-api/internal/service/auth"
)

// Authenticator resolves an Authorization header value. *auth.Authenticator
// satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) auth.Result
}

// AuthMiddleware provides bearer token authentication for routes.
type AuthMiddleware struct {
	authenticator Authenticator
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(authenticator Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// Authenticate rejects requests without a valid bearer token for a known
// user and adds that user to the request context otherwise.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := m.authenticator.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if !res.Authenticated() {
			if res.Failure == auth.FailureInternal {
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, res.Message(), res.Err)
				return
			}
			w.Header().Set("WWW-Authenticate", "Bearer")
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, res.Message(), nil)
			return
		}

		ctx := context.WithValue(r.Context(), shared.UserContextKey, res.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUser extracts the authenticated user from the request context.
func GetUser(r *http.Request) (*domain.User, bool) {
	user, ok := r.Context().Value(shared.UserContextKey).(*domain.User)
	return user, ok && user != nil
}
