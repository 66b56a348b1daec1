package handler

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/datamatch/datamatch/internal/api/middleware"
	"github.com/datamatch/datamatch/internal/api/response"
	"github.com/datamatch/datamatch/internal/featureflags"
)

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service *featureflags.Service
	logger  zerolog.Logger
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service, logger zerolog.Logger) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service, logger: logger}
}

type flagValueRequest struct {
	Value  any    `json:"value"`
	Reason string `json:"reason" validate:"max=500"`
}

// ListFeatureFlags handles GET /v1/admin/feature-flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.list(r))
}

// GetFeatureFlag handles GET /v1/admin/feature-flags/{key}.
func (h *FeatureFlagsHandler) GetFeatureFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	flag := h.service.GetFlag(r.Context(), key)
	if flag == nil {
		response.NotFound(w, r, "feature flag "+key+" not found")
		return
	}
	response.JSON(w, r, http.StatusOK, flag)
}

// SetFeatureFlag handles PUT /v1/admin/feature-flags/{key}.
func (h *FeatureFlagsHandler) SetFeatureFlag(w http.ResponseWriter, r *http.Request) {
	var req flagValueRequest
	if !response.Decode(w, r, &req) {
		return
	}
	if req.Value == nil {
		response.BadRequest(w, r, "value is required", nil)
		return
	}

	flag, err := h.service.SetFlag(r.Context(), chi.URLParam(r, "key"), req.Value)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.audit(r, req.Reason, flag.Key)

	response.JSON(w, r, http.StatusOK, flag)
}

// UpsertFeatureFlags handles PUT /v1/admin/feature-flags - update several
// flags at once.
func (h *FeatureFlagsHandler) UpsertFeatureFlags(w http.ResponseWriter, r *http.Request) {
	var req featureflags.FlagUpdateRequest
	if !response.Decode(w, r, &req) {
		return
	}

	keys := make([]string, 0, len(req.Updates))
	for _, u := range req.Updates {
		if u.Value == nil {
			response.BadRequest(w, r, "value is required for "+u.Key, nil)
			return
		}
		keys = append(keys, u.Key)
	}

	if _, err := h.service.SetFlags(r.Context(), req.Updates); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.audit(r, req.Reason, keys...)

	response.JSON(w, r, http.StatusOK, h.list(r))
}

// ResetFeatureFlag handles DELETE /v1/admin/feature-flags/{key} - drop the
// override and return the default.
func (h *FeatureFlagsHandler) ResetFeatureFlag(w http.ResponseWriter, r *http.Request) {
	flag, err := h.service.ResetFlag(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.audit(r, "reset to default", flag.Key)

	response.JSON(w, r, http.StatusOK, flag)
}

// InvalidateCache handles POST /v1/admin/feature-flags/invalidate.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateCache()
	response.NoContent(w, r)
}

func (h *FeatureFlagsHandler) list(r *http.Request) featureflags.FlagList {
	all := h.service.GetAllFlags(r.Context())
	items := make([]featureflags.Flag, 0, len(all))
	for _, f := range all {
		items = append(items, *f)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return featureflags.FlagList{Items: items}
}

func (h *FeatureFlagsHandler) audit(r *http.Request, reason string, keys ...string) {
	h.logger.Info().
		Str("profile_id", middleware.GetProfileID(r.Context())).
		Strs("flags", keys).
		Str("reason", reason).
		Msg("feature flags updated")
}
