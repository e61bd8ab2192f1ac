package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/shophub-api/internal/types"
)

type decodeTarget struct {
	Email string `json:"email"`
	Age   int    `json:"age"`
}

func TestDecodeJSONBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "ok", body: `{"email":"a@b.co","age":3}`},
		{name: "empty", body: ``, wantErr: "body must not be empty"},
		{name: "syntax", body: `{"email":}`, wantErr: "badly-formed JSON"},
		{name: "truncated", body: `{"email":"a@b.co"`, wantErr: "badly-formed JSON"},
		{name: "wrong type", body: `{"age":"three"}`, wantErr: `incorrect JSON type for field "age"`},
		{name: "unknown key", body: `{"admin":true}`, wantErr: `unknown key "admin"`},
		{name: "two values", body: `{} {}`, wantErr: "single JSON value"},
		{name: "too large", body: `{"email":"` + strings.Repeat("a", maxJSONBodyBytes) + `"}`, wantErr: "must not be larger than"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst decodeTarget
			err := DecodeJSONBody(w, r, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, decodeTarget{Email: "a@b.co", Age: 3}, dst)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestErrorResponse(t *testing.T) {
	var reqID string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID = middleware.GetReqID(r.Context())
		ErrorResponse(w, r, http.StatusUnauthorized, "Not authorized")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, reqID, w.Header().Get("X-Request-Id"))
	assert.JSONEq(t, `{"message":"Not authorized"}`, w.Body.String())
}

func TestValidationErrorResponse(t *testing.T) {
	t.Run("single field uses its message", func(t *testing.T) {
		w := httptest.NewRecorder()
		ValidationErrorResponse(w, httptest.NewRequest(http.MethodPost, "/", nil), &types.ValidationError{
			Fields: []types.FieldError{{Field: "password", Message: "Password must be at least 6 characters"}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"message":"Password must be at least 6 characters","errors":[{"field":"password","message":"Password must be at least 6 characters"}]}`, w.Body.String())
	})

	t.Run("several fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		ValidationErrorResponse(w, httptest.NewRequest(http.MethodPost, "/", nil), &types.ValidationError{
			Fields: []types.FieldError{{Field: "email", Message: "a"}, {Field: "password", Message: "b"}},
		})
		assert.JSONEq(t, `{"message":"Validation failed","errors":[{"field":"email","message":"a"},{"field":"password","message":"b"}]}`, w.Body.String())
	})
}
