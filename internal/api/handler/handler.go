// Package handler provides HTTP handlers for the datamatch API.
package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/datamatch/datamatch/internal/api/middleware"
	"github.com/datamatch/datamatch/internal/api/response"
	"github.com/datamatch/datamatch/internal/auth"
	"github.com/datamatch/datamatch/internal/featureflags"
	"github.com/datamatch/datamatch/internal/match"
	"github.com/datamatch/datamatch/internal/profile"
)

// profileID returns the authenticated profile, writing a 401 when there is
// none.
func profileID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := middleware.GetProfileID(r.Context())
	if id == "" {
		response.Unauthorized(w, r, "authentication required")
		return "", false
	}
	return id, true
}

// writeServiceError maps domain errors onto problem responses. Anything
// unrecognised is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	var validation *profile.ValidationError
	switch {
	case errors.As(err, &validation):
		response.BadRequest(w, r, "request validation failed", validation.Errors)
	case errors.Is(err, match.ErrMissingUser):
		response.NotFound(w, r, "your profile does not exist")
	case errors.Is(err, profile.ErrProfileNotFound), errors.Is(err, auth.ErrUnknownProfile):
		response.NotFound(w, r, "profile not found")
	case errors.Is(err, profile.ErrSlotNotFound):
		response.NotFound(w, r, "availability slot not found")
	case errors.Is(err, profile.ErrProfileExists):
		response.Conflict(w, r, "profile already exists")
	case errors.Is(err, match.ErrUnknownCategory):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, match.ErrNoLocation):
		response.Unprocessable(w, r, "set a location before searching nearby")
	case errors.Is(err, featureflags.ErrUnknownFlag):
		response.NotFound(w, r, err.Error())
	case errors.Is(err, featureflags.ErrInvalidValue):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, match.ErrNearbyDisabled):
		response.ServiceUnavailable(w, r, "nearby search is currently disabled")
	default:
		logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		response.InternalError(w, r, "internal server error")
	}
}
