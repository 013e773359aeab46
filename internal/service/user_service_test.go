package service_test

import (
	"testing"
	"time"

	"github.com/phrazzld/renal-ai-api/internal/platform/memory"
	"github.com/phrazzld/renal-ai-api/internal/service"
	"github.com/phrazzld/renal-ai-api/internal/service/auth"
	"github.com/phrazzld/renal-ai-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) (*service.UserServiceImpl, auth.JWTService) {
	t.Helper()
	hasher := auth.NewBcrypt(4)
	jwtSvc := auth.NewTestJWTService(auth.TestSecret, 120*time.Minute, nil)
	return service.NewUserService(memory.NewUserStore(), hasher, hasher, jwtSvc, discardLogger()), jwtSvc
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	t.Parallel()
	svc, jwtSvc := newUserService(t)

	fullName := "Dr. Renal"
	user, err := svc.Register(bg, service.RegisterInput{
		Username: "doctor",
		Password: "s3cret-pass",
		Email:    "doctor@example.com",
		FullName: &fullName,
	})
	require.NoError(t, err)
	assert.Equal(t, "doctor", user.Username)
	assert.NotEqual(t, "s3cret-pass", user.HashedPassword)

	res, err := svc.Login(bg, "doctor", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "doctor@example.com", res.User.Email)
	assert.WithinDuration(t, time.Now().Add(120*time.Minute), res.ExpiresAt, time.Minute)

	claims, err := jwtSvc.ValidateToken(bg, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "doctor", claims.Subject)
}

func TestUserService_DuplicateUsername(t *testing.T) {
	t.Parallel()
	svc, _ := newUserService(t)

	in := service.RegisterInput{Username: "doctor", Password: "pw", Email: "a@example.com"}
	_, err := svc.Register(bg, in)
	require.NoError(t, err)

	_, err = svc.Register(bg, in)
	assert.ErrorIs(t, err, store.ErrUsernameExists)
}

func TestUserService_LoginFailures(t *testing.T) {
	t.Parallel()
	svc, _ := newUserService(t)

	_, err := svc.Register(bg, service.RegisterInput{Username: "doctor", Password: "right", Email: "a@example.com"})
	require.NoError(t, err)

	_, err = svc.Login(bg, "doctor", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(bg, "nobody", "right")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}
