package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/renal-ai-api/internal/api/middleware"
	"github.com/phrazzld/renal-ai-api/internal/api/shared"
	"github.com/phrazzld/renal-ai-api/internal/domain"
	"github.com/phrazzld/renal-ai-api/internal/platform/logger"
	"github.com/phrazzld/renal-ai-api/internal/service/auth"
)

// requireUser returns the authenticated user or writes a 401 and returns
// false. Routes behind the auth middleware always have a user, so a miss
// here means a routing mistake.
func requireUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := middleware.GetUser(r)
	if !ok {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Warn("authenticated route reached without a user in context")
		HandleAPIError(w, r, auth.ErrMissingToken)
		return nil, false
	}
	return user, true
}

// decodeAndValidate decodes the JSON body into v and validates it, writing
// a 400 and returning false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		HandleAPIError(w, r, err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		HandleAPIError(w, r, err)
		return false
	}
	return true
}
