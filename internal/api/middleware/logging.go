package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// requestState is shared between Logger and the middleware it wraps, so
// values learned deeper in the chain reach the access log.
type requestState struct {
	profileID string
}

type requestStateKey struct{}

func stateFrom(ctx context.Context) *requestState {
	s, _ := ctx.Value(requestStateKey{}).(*requestState)
	return s
}

// Logger returns a middleware that writes one access log line per request.
// Server errors log at error level and client errors at warn.
func Logger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			state := &requestState{}
			rec := newStatusRecorder(w)

			r = r.WithContext(context.WithValue(r.Context(), requestStateKey{}, state))
			next.ServeHTTP(rec, r)

			var event *zerolog.Event
			switch {
			case rec.status >= 500:
				event = log.Error()
			case rec.status >= 400:
				event = log.Warn()
			default:
				event = log.Info()
			}

			if spanCtx := trace.SpanContextFromContext(r.Context()); spanCtx.IsValid() {
				event = event.
					Str("trace_id", spanCtx.TraceID().String()).
					Str("span_id", spanCtx.SpanID().String())
			}
			if state.profileID != "" {
				event = event.Str("user_id", state.profileID)
			}

			event.
				Str("request_id", GetRequestID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", routePattern(r)).
				Int("status", rec.status).
				Int64("bytes", rec.written).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Str("user_agent", r.UserAgent()).
				Msg("request completed")
		})
	}
}
