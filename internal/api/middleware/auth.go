package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/datamatch/datamatch/internal/api/models"
	"github.com/datamatch/datamatch/internal/auth"
)

type profileIDKey struct{}

// TokenValidator resolves a bearer token to a profile ID. *auth.Service
// satisfies it.
type TokenValidator interface {
	ValidateAccessToken(token string) (string, error)
}

// Auth rejects requests without a valid bearer token and stores the
// authenticated profile ID in the context.
func Auth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeUnauthorized(w, r, "missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				writeUnauthorized(w, r, "invalid authorization header format")
				return
			}
			token = strings.TrimSpace(token)
			if token == "" {
				writeUnauthorized(w, r, "missing bearer token")
				return
			}

			profileID, err := tokens.ValidateAccessToken(token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrAccessTokenExpired):
					writeUnauthorized(w, r, "access token has expired")
				case errors.Is(err, auth.ErrInvalidAccessToken):
					writeUnauthorized(w, r, "invalid access token")
				default:
					writeUnauthorized(w, r, "authentication failed")
				}
				return
			}

			if state := stateFrom(r.Context()); state != nil {
				state.profileID = profileID
			}

			ctx := context.WithValue(r.Context(), profileIDKey{}, profileID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithProfileID returns a context carrying an authenticated profile ID.
func WithProfileID(ctx context.Context, profileID string) context.Context {
	return context.WithValue(ctx, profileIDKey{}, profileID)
}

// GetProfileID returns the authenticated profile ID, or "" when the request
// is anonymous.
func GetProfileID(ctx context.Context) string {
	if id, ok := ctx.Value(profileIDKey{}).(string); ok {
		return id
	}
	return ""
}

// writeUnauthorized lives here rather than in the response package, which
// imports this one.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	problem := models.NewUnauthorized(GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}
