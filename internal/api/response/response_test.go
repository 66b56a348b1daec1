package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datamatch/datamatch/internal/api/middleware"
	"github.com/datamatch/datamatch/internal/api/models"
	"github.com/datamatch/datamatch/internal/api/response"
)

// serve runs fn behind the RequestID middleware.
func serve(t *testing.T, method, path, body string, fn http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	middleware.RequestID(fn).ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) models.Problem {
	t.Helper()
	var p models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestJSON(t *testing.T) {
	rec := serve(t, http.MethodGet, "/v1/me/profile", "", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"id": "usr_1"})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("X-Request-Id"), "req_"))
	assert.JSONEq(t, `{"id":"usr_1"}`, rec.Body.String())
}

func TestCreatedAndNoContent(t *testing.T) {
	rec := serve(t, http.MethodPost, "/v1/profiles", "", func(w http.ResponseWriter, r *http.Request) {
		response.Created(w, r, "/v1/me/profile", map[string]string{"id": "usr_1"})
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/v1/me/profile", rec.Header().Get("Location"))

	rec = serve(t, http.MethodDelete, "/v1/me/availability/0", "", func(w http.ResponseWriter, r *http.Request) {
		response.NoContent(w, r)
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestProblems(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, *http.Request)
		status int
	}{
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) { response.Unauthorized(w, r, "nope") }, http.StatusUnauthorized},
		{"not found", func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, "nope") }, http.StatusNotFound},
		{"conflict", func(w http.ResponseWriter, r *http.Request) { response.Conflict(w, r, "nope") }, http.StatusConflict},
		{"unprocessable", func(w http.ResponseWriter, r *http.Request) { response.Unprocessable(w, r, "nope") }, http.StatusUnprocessableEntity},
		{"internal", func(w http.ResponseWriter, r *http.Request) { response.InternalError(w, r, "nope") }, http.StatusInternalServerError},
		{"unavailable", func(w http.ResponseWriter, r *http.Request) { response.ServiceUnavailable(w, r, "nope") }, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, http.MethodGet, "/v1/me/nearby", "", tt.write)

			assert.Equal(t, tt.status, rec.Code)
			p := decodeProblem(t, rec)
			assert.Equal(t, "nope", p.Detail)
			assert.Equal(t, "/v1/me/nearby", p.Instance)
			assert.Equal(t, rec.Header().Get("X-Request-Id"), p.TraceID)
		})
	}
}

type nicheRequest struct {
	Category  string   `json:"category" validate:"required"`
	Interests []string `json:"interests" validate:"min=1"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		ok     bool
		detail string
	}{
		{"valid", `{"category":"music","interests":["jazz"]}`, true, ""},
		{"empty", ``, false, "request body is required"},
		{"malformed", `{"category":`, false, "invalid JSON"},
		{"unknown field", `{"category":"music","interests":["jazz"],"extra":1}`, false, "invalid JSON"},
		{"invalid", `{"interests":[]}`, false, "request validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got nicheRequest
			var ok bool
			rec := serve(t, http.MethodPost, "/v1/me/niche-interests", tt.body, func(w http.ResponseWriter, r *http.Request) {
				ok = response.Decode(w, r, &got)
			})

			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, "music", got.Category)
				return
			}
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeProblem(t, rec).Detail, tt.detail)
		})
	}
}

func TestDecode_FieldErrors(t *testing.T) {
	var got nicheRequest
	rec := serve(t, http.MethodPost, "/v1/me/niche-interests", `{"interests":[]}`, func(w http.ResponseWriter, r *http.Request) {
		response.Decode(w, r, &got)
	})

	p := decodeProblem(t, rec)
	require.Len(t, p.Errors, 2)
	assert.Equal(t, "category", p.Errors[0].Field)
	assert.Equal(t, "interests", p.Errors[1].Field)
}
