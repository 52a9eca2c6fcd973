package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAppError_Classification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		check  func(error) bool
		status int
	}{
		{"not found", NewNotFoundError("post"), IsNotFound, http.StatusNotFound},
		{"forbidden", NewForbiddenError(""), IsForbidden, http.StatusForbidden},
		{"unauthorized", NewUnauthorizedError(""), IsUnauthorized, http.StatusUnauthorized},
		{"invalid token", NewInvalidTokenError(errors.New("bad base64")), IsInvalidToken, http.StatusBadRequest},
		{"too many items", NewTooManyItemsError("update", 101, 100), IsTooManyItems, http.StatusInternalServerError},
		{"store unavailable", NewStoreUnavailableError("query", errors.New("timeout")), IsStoreUnavailable, http.StatusServiceUnavailable},
		{"validation", NewValidationError("bad"), IsValidation, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler failed: %w", tt.err)

			assert.True(t, tt.check(wrapped))
			require.NotNil(t, GetAppError(wrapped))
			assert.Equal(t, tt.status, GetAppError(wrapped).HTTPStatus)
		})
	}
}

func TestValidationErrors(t *testing.T) {
	t.Run("Should return nil when nothing was added", func(t *testing.T) {
		v := NewValidationErrors()

		assert.False(t, v.HasErrors())
		assert.Nil(t, v.ToAppError())
	})

	t.Run("Should keep every violation in order", func(t *testing.T) {
		v := NewValidationErrors()
		v.Add("title", "Title is required")
		v.Addf("tags[0]", "Tag must be %d-%d characters", 1, 50)

		err := v.ToAppError()
		require.Error(t, err)

		appErr := GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, ErrorTypeValidation, appErr.Type)
		assert.Equal(t, []FieldViolation{
			{Field: "title", Reason: "Title is required"},
			{Field: "tags[0]", Reason: "Tag must be 1-50 characters"},
		}, appErr.Violations)
		assert.True(t, v.HasField("tags[0]"))
		assert.Contains(t, v.Error(), "title: Title is required")
	})
}

func TestErrorHandler_Handle(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)

	t.Run("Should write violations as details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/posts", nil)

		handler.Handle(rec, req, NewValidationFailedError([]FieldViolation{{Field: "content", Reason: "Duplicate block orders are not allowed"}}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "VALIDATION_FAILED", body["error"])
		details, ok := body["details"].([]interface{})
		require.True(t, ok)
		assert.Len(t, details, 1)
	})

	t.Run("Should hide internal causes of server errors", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/posts", nil)

		handler.Handle(rec, req, NewStoreUnavailableError("query", errors.New("dial tcp 10.0.0.1: i/o timeout")))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.NotContains(t, rec.Body.String(), "10.0.0.1")
		assert.Contains(t, rec.Body.String(), "STORE_UNAVAILABLE")
	})

	t.Run("Should map unknown errors to INTERNAL", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/posts", nil)

		handler.Handle(rec, req, errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "boom")
	})
}

func TestErrorHandler_MiddlewareRecoversPanics(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)
	rec := httptest.NewRecorder()

	handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("unexpected")
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL")
}
