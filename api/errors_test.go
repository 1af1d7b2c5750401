package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ryan-Har/commonground/pkg/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAsError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKey    ErrorKey
	}{
		{"api error passes through", Unauthorized(), http.StatusUnauthorized, ErrUnauthorized},
		{"wrapped api error", fmt.Errorf("outer: %w", ForbiddenAccessDenied()), http.StatusForbidden, ErrAccessDenied},
		{"validation", models.NewValidationError("email not set"), http.StatusBadRequest, ErrValidation},
		{"not found", models.NewNotFoundError("file", "a.txt"), http.StatusNotFound, ErrNotFound},
		{"conflict", models.NewConflictError("file", "a.txt", nil), http.StatusConflict, ErrConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AsError(tt.err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantKey, got.Key)
		})
	}
}

func TestWriteError_Body(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, discardLogger(), Unauthorized())

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, ErrorResponse{StatusCode: 401, Error: "unauthorized", Message: "Unauthorized"}, body)
}

func TestWriteError_HidesCause(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, discardLogger(), errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "connection refused")
}

func TestFromStatus(t *testing.T) {
	e := FromStatus(http.StatusBadRequest, "Bad Request")
	assert.Equal(t, ErrBadRequest, e.Key)
	assert.Equal(t, "bad request", e.Response().Error)

	teapot := FromStatus(http.StatusTeapot, "short and stout")
	assert.Equal(t, http.StatusTeapot, teapot.Status)
	assert.Equal(t, "I'm a teapot", teapot.Response().Error)
}

func TestWithCause_DoesNotMutateOriginal(t *testing.T) {
	base := NotFound("missing")
	cause := errors.New("row missing")
	wrapped := base.WithCause(cause)

	assert.Nil(t, base.Unwrap())
	assert.ErrorIs(t, wrapped, cause)
}
