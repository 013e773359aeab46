package shared_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/renal-ai-api/internal/api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithData_Envelope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	shared.RespondWithData(rec, req, http.StatusOK, "Query successful", map[string]int{"total_files": 2})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":200,"msg":"Query successful","data":{"total_files":2}}`, rec.Body.String())
}

func TestRespondWithErrorAndLog_HidesError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	shared.RespondWithErrorAndLog(rec, req, http.StatusInternalServerError, "Upload failed",
		errors.New("open /srv/data/uploads/x.png: no space left on device"))

	var env shared.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 500, env.Code)
	assert.Equal(t, "Upload failed", env.Msg)
	assert.Nil(t, env.Data)
	assert.NotContains(t, rec.Body.String(), "/srv/data")
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type body struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", `{"name":"alice"}`, false},
		{"empty", ``, true},
		{"malformed", `{"name":`, true},
		{"trailing", `{"name":"a"} {"name":"b"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.input))
			var got body
			err := shared.DecodeJSON(req, &got)
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrInvalidBody)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice", got.Name)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	type req struct {
		Email string `validate:"required,email"`
	}
	assert.NoError(t, shared.ValidateRequest(&req{Email: "a@example.com"}))
	assert.Error(t, shared.ValidateRequest(&req{Email: "nope"}))
}

func TestTraceID(t *testing.T) {
	t.Parallel()

	ctx := shared.SetTraceID(context.Background())
	id := shared.GetTraceID(ctx)
	assert.Len(t, id, 2*shared.TraceIDLength)
	assert.NotEqual(t, id, shared.GetTraceID(shared.SetTraceID(context.Background())))
	assert.Empty(t, shared.GetTraceID(context.Background()))

	assert.True(t, shared.ValidTraceID("abc-123_DEF"))
	assert.False(t, shared.ValidTraceID(""))
	assert.False(t, shared.ValidTraceID("has space"))
	assert.False(t, shared.ValidTraceID(strings.Repeat("a", 65)))
}
