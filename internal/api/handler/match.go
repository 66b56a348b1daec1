package handler

import (
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/datamatch/datamatch/internal/api/response"
	"github.com/datamatch/datamatch/internal/match"
	"github.com/datamatch/datamatch/internal/suggestion"
)

// MaxSearchLimit bounds the number of results a search returns.
const MaxSearchLimit = 100

// MatchHandler handles search, suggestion and nearby endpoints.
type MatchHandler struct {
	matches     *match.Service
	suggestions *suggestion.Service
	logger      zerolog.Logger
}

// NewMatchHandler creates a new MatchHandler.
func NewMatchHandler(matches *match.Service, suggestions *suggestion.Service, logger zerolog.Logger) *MatchHandler {
	return &MatchHandler{matches: matches, suggestions: suggestions, logger: logger}
}

type searchRequest struct {
	Query                  string       `json:"query" validate:"max=200"`
	Category               string       `json:"category" validate:"max=32"`
	Distance               float64      `json:"distance" validate:"gte=0,lte=12500"`
	MinCompatibility       int          `json:"minCompatibility" validate:"gte=0,lte=100"`
	PrioritizeAvailability bool         `json:"prioritizeAvailability"`
	FilterOptions          match.Filter `json:"filterOptions"`
	Limit                  int          `json:"limit" validate:"gte=0,lte=100"`

	// IncludeNicheInterests defaults to true when absent.
	IncludeNicheInterests *bool `json:"includeNicheInterests"`
}

type searchResponse struct {
	Results []match.Result `json:"results"`

	// Total counts every match before the limit is applied.
	Total int `json:"total"`
}

// Search handles POST /v1/matches/search.
func (h *MatchHandler) Search(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}

	var req searchRequest
	if !response.Decode(w, r, &req) {
		return
	}
	if f := req.FilterOptions; f.MinAge != nil && f.MaxAge != nil && *f.MinAge > *f.MaxAge {
		response.BadRequest(w, r, "filterOptions.minAge must not exceed filterOptions.maxAge", nil)
		return
	}

	results, err := h.matches.Search(r.Context(), id, match.Options{
		Query:                  req.Query,
		Category:               req.Category,
		Distance:               req.Distance,
		SkipNicheInterests:     req.IncludeNicheInterests != nil && !*req.IncludeNicheInterests,
		PrioritizeAvailability: req.PrioritizeAvailability,
		MinCompatibility:       req.MinCompatibility,
		Filter:                 req.FilterOptions,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	total := len(results)
	limit := req.Limit
	if limit == 0 {
		limit = MaxSearchLimit
	}
	if len(results) > limit {
		results = results[:limit]
	}

	response.JSON(w, r, http.StatusOK, searchResponse{Results: results, Total: total})
}

// Compatibility handles GET /v1/matches/{candidateId}/compatibility.
func (h *MatchHandler) Compatibility(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}

	candidateID := chi.URLParam(r, "candidateId")
	if candidateID == id {
		response.BadRequest(w, r, "cannot score a profile against itself", nil)
		return
	}

	compat, err := h.matches.Compatibility(r.Context(), id, candidateID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, compat)
}

// Suggestions handles GET /v1/me/suggestions?count=N.
func (h *MatchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}

	count := 0
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.BadRequest(w, r, "count must be a positive integer", nil)
			return
		}
		count = n
	}

	out, err := h.suggestions.Get(r.Context(), id, count)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, out)
}

type nearbyResponse struct {
	Matches []match.NearbyMatch `json:"matches"`
}

// Nearby handles GET /v1/me/nearby?distance=N.
func (h *MatchHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}

	distance := 0.0
	if v := r.URL.Query().Get("distance"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(d) || d <= 0 {
			response.BadRequest(w, r, "distance must be a positive number", nil)
			return
		}
		distance = d
	}

	matches, err := h.matches.Nearby(r.Context(), id, distance)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, nearbyResponse{Matches: matches})
}
