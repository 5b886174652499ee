package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estokealo/estokealo/internal/api/response"
	"github.com/estokealo/estokealo/internal/apperr"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestNewMeta_GeneratesUUID(t *testing.T) {
	meta := response.NewMeta("")

	_, err := uuid.Parse(meta.RequestID)
	assert.NoError(t, err, "requestId should be a valid UUID")
}

func TestNewMeta_UsesProvidedRequestID(t *testing.T) {
	assert.Equal(t, "my-request", response.NewMeta("my-request").RequestID)
}

func TestNewMeta_TimestampIsRFC3339(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)

	meta := response.NewMeta("")

	parsed, err := time.Parse(time.RFC3339, meta.Timestamp)
	require.NoError(t, err)
	assert.True(t, parsed.After(before))
}

func TestSuccess_WritesEnvelope(t *testing.T) {
	w := httptest.NewRecorder()

	response.Success(w, http.StatusCreated, "user has been created", map[string]string{"key": "value"}, "req-1")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	env := decode(t, w)
	assert.Equal(t, "success", env["result"])
	assert.Equal(t, "user has been created", env["message"])
	assert.Equal(t, map[string]any{"key": "value"}, env["data"])
	assert.Nil(t, env["error"])
	assert.Equal(t, "req-1", env["meta"].(map[string]any)["requestId"])
}

func TestSuccessList_IncludesPagination(t *testing.T) {
	w := httptest.NewRecorder()

	response.SuccessList(w, http.StatusOK, "user companies", []string{"a", "b"}, 12, 2, 2, "req-1")

	env := decode(t, w)
	meta := env["meta"].(map[string]any)
	assert.Equal(t, float64(12), meta["total"])
	assert.Equal(t, float64(2), meta["page"])
	assert.Equal(t, float64(2), meta["limit"])
	assert.Equal(t, "req-1", meta["requestId"])
	assert.Len(t, env["data"], 2)
}

func TestErrWithDetails_WritesEnvelope(t *testing.T) {
	w := httptest.NewRecorder()

	response.ErrWithDetails(w, http.StatusBadRequest, "BAD_REQUEST", "bad input", map[string]string{"email": "is required"}, "req-1")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, "error", env["result"])
	assert.Nil(t, env["data"])

	apiErr := env["error"].(map[string]any)
	assert.Equal(t, "BAD_REQUEST", apiErr["code"])
	assert.Equal(t, "bad input", apiErr["message"])
	assert.Equal(t, map[string]any{"email": "is required"}, apiErr["details"])
}

func TestErr_OmitsDetails(t *testing.T) {
	w := httptest.NewRecorder()

	response.Err(w, http.StatusNotFound, "NOT_FOUND", "missing", "")

	apiErr := decode(t, w)["error"].(map[string]any)
	assert.NotContains(t, apiErr, "details")
}

func TestAppError_MapsKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"conflict", apperr.Conflict(map[string]string{"email": "already exists"}), http.StatusConflict, "CONFLICT"},
		{"wrapped", fmt.Errorf("login: %w", apperr.NotActive()), http.StatusForbidden, "NOT_ACTIVE"},
		{"unavailable", apperr.ServiceUnavailable(errors.New("dial tcp"), map[string]string{"store": "down"}), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			response.AppError(w, tt.err, "req-1")

			assert.Equal(t, tt.status, w.Code)
			apiErr := decode(t, w)["error"].(map[string]any)
			assert.Equal(t, tt.code, apiErr["code"])
		})
	}
}

func TestAppError_HidesCause(t *testing.T) {
	w := httptest.NewRecorder()

	response.AppError(w, errors.New("pq: password authentication failed"), "req-1")

	assert.NotContains(t, w.Body.String(), "password authentication")
}
