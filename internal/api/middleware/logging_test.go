package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/datamatch/datamatch/internal/api/middleware"
)

func decodeLog(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_LogsRequest(t *testing.T) {
	var buf bytes.Buffer

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(zerolog.New(&buf)))
	r.Get("/v1/things/{id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("response body"))
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/things/42", http.NoBody)
	req.Header.Set("User-Agent", "test-agent")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entry := decodeLog(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "request completed", entry["message"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/v1/things/42", entry["path"])
	assert.Equal(t, "/v1/things/{id}", entry["route"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, float64(13), entry["bytes"])
	assert.Equal(t, "test-agent", entry["user_agent"])
	assert.True(t, strings.HasPrefix(entry["request_id"].(string), "req_"))
	assert.NotContains(t, entry, "user_id")
}

func TestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusCreated, "info"},
		{http.StatusNotFound, "warn"},
		{http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		handler := middleware.Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", http.NoBody))

		assert.Equal(t, tt.level, decodeLog(t, &buf)["level"], tt.status)
	}
}

func TestTracing_SpanNamedByRoute(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer func() { _ = tp.Shutdown(context.Background()) }()

	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(middleware.Tracing())
	r.Use(middleware.Logger(zerolog.New(&buf)))
	r.Get("/v1/profiles/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/profiles/usr_1", http.NoBody)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	r.ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /v1/profiles/{id}", spans[0].Name())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "Error", spans[0].Status().Code.String())

	entry := decodeLog(t, &buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Len(t, entry["span_id"], 16)
}

func TestRequestID(t *testing.T) {
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(middleware.GetRequestID(r.Context())))
	}))

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated", "", false},
		{"propagated", "req_from_gateway", true},
		{"too long", strings.Repeat("x", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.incoming != "" {
				req.Header.Set("X-Request-Id", tt.incoming)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			id := rec.Header().Get("X-Request-Id")
			assert.Equal(t, id, rec.Body.String())
			if tt.keep {
				assert.Equal(t, tt.incoming, id)
			} else {
				assert.True(t, strings.HasPrefix(id, "req_"))
				assert.Len(t, id, 26)
			}
		})
	}
}
