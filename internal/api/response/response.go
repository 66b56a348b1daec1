// Package response writes JSON and problem responses and decodes request
// bodies.
package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/datamatch/datamatch/internal/api/middleware"
	"github.com/datamatch/datamatch/internal/api/models"
)

// MaxBodyBytes caps request bodies read by Decode.
const MaxBodyBytes = 1 << 20

// JSON writes data as JSON with the given status code.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	setRequestID(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Created writes a 201 response with a Location header.
func Created(w http.ResponseWriter, r *http.Request, location string, data any) {
	if location != "" {
		w.Header().Set("Location", location)
	}
	JSON(w, r, http.StatusCreated, data)
}

// NoContent writes a 204 No Content response.
func NoContent(w http.ResponseWriter, r *http.Request) {
	setRequestID(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func setRequestID(w http.ResponseWriter, r *http.Request) {
	if id := middleware.GetRequestID(r.Context()); id != "" {
		w.Header().Set("X-Request-Id", id)
	}
}

// Decode reads a JSON body into dst and checks its validate tags. On
// failure it writes a 400 problem and returns false.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			BadRequest(w, r, "request body is required", nil)
		case errors.As(err, &maxErr):
			BadRequest(w, r, "request body is too large", nil)
		default:
			BadRequest(w, r, "invalid JSON: "+err.Error(), nil)
		}
		return false
	}

	if fieldErrors := models.Validate(dst); len(fieldErrors) > 0 {
		BadRequest(w, r, "request validation failed", fieldErrors)
		return false
	}
	return true
}

// Error writes a problem response for the current request.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	problem.Instance = r.URL.Path
	problem.Write(w)
}

func traceID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}

// BadRequest writes a 400 validation problem.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errors []models.FieldError) {
	Error(w, r, models.NewBadRequest(traceID(r), detail, errors))
}

// Unauthorized writes a 401 problem.
func Unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewUnauthorized(traceID(r), detail))
}

// NotFound writes a 404 problem.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewNotFound(traceID(r), detail))
}

// Conflict writes a 409 problem.
func Conflict(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewConflict(traceID(r), detail))
}

// Unprocessable writes a 422 problem.
func Unprocessable(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewUnprocessable(traceID(r), detail))
}

// InternalError writes a 500 problem. The detail must not leak internals.
func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewInternalError(traceID(r), detail))
}

// ServiceUnavailable writes a 503 problem.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewServiceUnavailable(traceID(r), detail))
}
