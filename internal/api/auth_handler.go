package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/renal-ai-api/internal/api/shared"
	"github.com/phrazzld/renal-ai-api/internal/platform/logger"
	"github.com/phrazzld/renal-ai-api/internal/service"
)

// tokenType is the scheme clients put in front of the issued token.
const tokenType = "bearer"

// AuthHandler handles account registration and login.
type AuthHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(users service.UserService, log *slog.Logger) *AuthHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AuthHandler")
	}
	return &AuthHandler{
		users:  users,
		logger: log.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).
		Info("user registered", slog.String("username", user.Username))
	shared.RespondWithData(w, r, http.StatusOK, "Registration successful",
		RegisterResponse{Username: user.Username})
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithData(w, r, http.StatusOK, "Login successful", LoginResponse{
		Token:     res.Token,
		TokenType: tokenType,
		ExpiresAt: res.ExpiresAt.UTC().Format(time.RFC3339),
		UserInfo:  res.User.Info(),
	})
}
