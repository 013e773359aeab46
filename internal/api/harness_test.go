package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/renal-ai-api/internal/api"
	"github.com/phrazzld/renal-ai-api/internal/api/middleware"
	"github.com/phrazzld/renal-ai-api/internal/platform/memory"
	"github.com/phrazzld/renal-ai-api/internal/platform/models"
	"github.com/phrazzld/renal-ai-api/internal/service"
	"github.com/phrazzld/renal-ai-api/internal/service/auth"
	"github.com/phrazzld/renal-ai-api/internal/task"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t       *testing.T
	router  http.Handler
	jwt     auth.JWTService
	dataDir string
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	maxBytes int64
	runner   service.JobSubmitter
	sleep    task.SleepFunc
}

func withMaxBytes(n int64) harnessOption {
	return func(c *harnessConfig) { c.maxBytes = n }
}

func withSubmitter(s service.JobSubmitter) harnessOption {
	return func(c *harnessConfig) { c.runner = s }
}

func withSleep(fn task.SleepFunc) harnessOption {
	return func(c *harnessConfig) { c.sleep = fn }
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noSleep(context.Context, time.Duration) error { return nil }

var bgCtx = context.Background()

// newHarness wires the real services over memory stores, the way the server
// does, with zero analysis delays.
func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	cfg := harnessConfig{maxBytes: 10 << 20, sleep: noSleep}
	for _, opt := range opts {
		opt(&cfg)
	}

	log := quietLogger()
	dataDir := t.TempDir()

	users := memory.NewUserStore()
	files := memory.NewFileStore()
	tasks := memory.NewTaskStore()

	jwt := auth.NewTestJWTService(auth.TestSecret, 2*time.Hour, nil)
	hasher := auth.NewBcrypt(4)

	if cfg.runner == nil {
		runner := task.NewRunner(task.RunnerConfig{WorkerCount: 2, QueueSize: 16}, log, nil)
		require.NoError(t, runner.Start())
		t.Cleanup(runner.Stop)
		cfg.runner = runner
	}

	userSvc := service.NewUserService(users, hasher, hasher, jwt, log)
	uploadSvc := service.NewUploadService(files, service.UploadConfig{DataDir: dataDir, MaxBytes: cfg.maxBytes}, nil, log)
	analysisSvc := service.NewAnalysisService(files, tasks, cfg.runner, service.AnalysisConfig{
		Handlers: task.Handlers(task.DefaultDelays()),
		Analyzer: models.NewManager(nil, log),
		Sleep:    cfg.sleep,
	}, log)

	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware(log))
	api.Routes{
		System:      api.NewSystemHandler(dataDir),
		Auth:        api.NewAuthHandler(userSvc, log),
		Files:       api.NewFileHandler(uploadSvc, cfg.maxBytes, log),
		Analysis:    api.NewAnalysisHandler(analysisSvc, log),
		RequireAuth: middleware.NewAuthMiddleware(auth.NewAuthenticator(jwt, users)).Authenticate,
	}.Register(r)

	return &harness{t: t, router: r, jwt: jwt, dataDir: dataDir}
}

// envelope mirrors shared.Envelope with raw data for per-test decoding.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (h *harness) do(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	require.Equal(h.t, rec.Code, env.Code, "envelope code mirrors HTTP status")
	return rec, env
}

func (h *harness) postJSON(path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(h.t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return h.do(req)
}

func (h *harness) get(path, token string) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return h.do(req)
}

func (h *harness) upload(token, filename string, content []byte) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	body, contentType := multipartBody(h.t, "file", filename, content)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	return h.do(req)
}

// signup registers and logs in a user and returns the bearer token.
func (h *harness) signup(username string) string {
	h.t.Helper()
	rec, _ := h.postJSON("/api/register", "", map[string]any{
		"username": username,
		"password": "correct horse",
		"email":    username + "@example.com",
	})
	require.Equal(h.t, http.StatusOK, rec.Code)

	rec, env := h.postJSON("/api/login", "", map[string]any{
		"username": username,
		"password": "correct horse",
	})
	require.Equal(h.t, http.StatusOK, rec.Code)

	var data api.LoginResponse
	decodeData(h.t, env, &data)
	return data.Token
}

func decodeData(t *testing.T, env envelope, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 180, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// noisyPNG encodes random pixels, which PNG cannot compress, so the
// encoded size stays above w*h*3 bytes.
func noisyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	_, _ = rng.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// expiredToken signs a token for username with the harness secret that
// expired hours ago.
func expiredToken(t *testing.T, username string) string {
	t.Helper()
	issued := time.Now().Add(-3 * time.Hour)
	svc := auth.NewTestJWTService(auth.TestSecret, time.Minute, func() time.Time { return issued })
	token, _, err := svc.GenerateToken(bgCtx, username)
	require.NoError(t, err)
	return token
}
