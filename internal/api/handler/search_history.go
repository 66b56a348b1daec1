package handler

import (
	"net/http"

	"github.com/datamatch/datamatch/internal/api/response"
	"github.com/datamatch/datamatch/internal/profile"
)

type searchHistoryResponse struct {
	SearchHistory []profile.SearchRecord  `json:"searchHistory"`
	Analytics     profile.SearchAnalytics `json:"analytics"`
}

type searchHistorySettingsRequest struct {
	SaveSearchHistory *bool `json:"saveSearchHistory" validate:"required"`
}

type searchHistorySettingsResponse struct {
	SaveSearchHistory bool `json:"saveSearchHistory"`
}

// GetSearchHistory handles GET /v1/me/search-history.
func (h *ProfileHandler) GetSearchHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}

	history, analytics, err := h.profiles.SearchHistory(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, searchHistoryResponse{SearchHistory: history, Analytics: analytics})
}

// ClearSearchHistory handles DELETE /v1/me/search-history.
func (h *ProfileHandler) ClearSearchHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}

	if err := h.profiles.ClearSearchHistory(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.NoContent(w, r)
}

// UpdateSearchHistorySettings handles PUT /v1/me/settings/search-history.
func (h *ProfileHandler) UpdateSearchHistorySettings(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}

	var req searchHistorySettingsRequest
	if !response.Decode(w, r, &req) {
		return
	}

	p, err := h.profiles.SetSearchHistorySaving(r.Context(), id, *req.SaveSearchHistory)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, searchHistorySettingsResponse{
		SaveSearchHistory: p.Settings.SearchHistoryEnabled(),
	})
}
