package api_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/phrazzld/renal-ai-api/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	token := h.signup("alice")

	rec, env := h.upload(token, "slide1.png", pngBytes(t, 200, 200))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "File uploaded successfully", env.Msg)

	var data api.UploadResponse
	decodeData(t, env, &data)
	assert.Regexp(t, `^[0-9a-f]{32}_slide1$`, data.FileID)
	assert.Equal(t, "slide1.png", data.OriginalName)
	assert.Positive(t, data.FileSize)
	assert.Equal(t, 200, data.Metadata.Width)
	assert.Equal(t, 200, data.Metadata.Height)
	assert.Equal(t, "RGB", data.Metadata.Mode)
	assert.Equal(t, "PNG", data.Metadata.Format)
	assert.True(t, data.ThumbnailAvailable)

	assert.FileExists(t, filepath.Join(h.dataDir, "uploads", data.FileID+".png"))
	assert.FileExists(t, filepath.Join(h.dataDir, "results", data.FileID+"_thumb.jpg"))
}

func TestUpload_Rejections(t *testing.T) {
	t.Parallel()

	t.Run("unsupported_extension_registers_nothing", func(t *testing.T) {
		h := newHarness(t)
		token := h.signup("alice")

		rec, env := h.upload(token, "x.docx", []byte("not a slide"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Unsupported file format", env.Msg)

		_, env = h.get("/api/files", token)
		var files api.FilesResponse
		decodeData(t, env, &files)
		assert.Zero(t, files.TotalFiles)

		entries, _ := os.ReadDir(filepath.Join(h.dataDir, "uploads"))
		assert.Empty(t, entries)
	})

	t.Run("missing_file_field", func(t *testing.T) {
		h := newHarness(t)
		token := h.signup("alice")

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("note", "no file here"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)

		rec, env := h.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request format", env.Msg)
	})

	t.Run("not_multipart", func(t *testing.T) {
		h := newHarness(t)
		token := h.signup("alice")

		rec, _ := h.postJSON("/api/upload", token, map[string]string{"file": "slide.png"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("too_large", func(t *testing.T) {
		h := newHarness(t, withMaxBytes(1024))
		token := h.signup("alice")

		big := noisyPNG(t, 64, 64)
		require.Greater(t, len(big), 1024)

		rec, env := h.upload(token, "big.png", big)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "File exceeds the upload size limit", env.Msg)

		entries, _ := os.ReadDir(filepath.Join(h.dataDir, "uploads"))
		assert.Empty(t, entries)
	})

	t.Run("requires_token", func(t *testing.T) {
		h := newHarness(t)

		body, contentType := multipartBody(t, "file", "slide.png", pngBytes(t, 4, 4))
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", contentType)

		rec, env := h.do(req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Authorization header required", env.Msg)
	})
}

func TestListFiles_OnlyCallersUploads(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	alice := h.signup("alice")
	bob := h.signup("bob")

	_, env := h.upload(alice, "a.png", pngBytes(t, 8, 8))
	var uploaded api.UploadResponse
	decodeData(t, env, &uploaded)

	rec, env := h.get("/api/files", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine api.FilesResponse
	decodeData(t, env, &mine)
	assert.Equal(t, 1, mine.TotalFiles)
	require.Contains(t, mine.Files, uploaded.FileID)
	assert.Equal(t, "alice", mine.Files[uploaded.FileID].UploadedBy)
	assert.Equal(t, "a.png", mine.Files[uploaded.FileID].OriginalName)

	_, env = h.get("/api/files", bob)
	var theirs api.FilesResponse
	decodeData(t, env, &theirs)
	assert.Zero(t, theirs.TotalFiles)
	assert.NotContains(t, theirs.Files, uploaded.FileID)
	assert.NotNil(t, theirs.Files, "empty listing is an object, not null")
}
