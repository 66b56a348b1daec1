package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/datamatch/datamatch/internal/api/response"
	"github.com/datamatch/datamatch/internal/auth"
	"github.com/datamatch/datamatch/internal/profile"
)

// ProfileHandler handles profile endpoints.
type ProfileHandler struct {
	profiles    *profile.Service
	authService *auth.Service
	logger      zerolog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *profile.Service, authService *auth.Service, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, authService: authService, logger: logger}
}

type profileRequest struct {
	Name           string                 `json:"name" validate:"max=100"`
	Tagline        string                 `json:"tagline" validate:"max=140"`
	Bio            string                 `json:"bio" validate:"max=2000"`
	Age            int                    `json:"age" validate:"omitempty,gte=18,lte=120"`
	Gender         string                 `json:"gender" validate:"max=32"`
	LookingFor     string                 `json:"lookingFor" validate:"max=32"`
	Interests      []string               `json:"interests" validate:"max=50,dive,max=100"`
	NicheInterests profile.NicheInterests `json:"nicheInterests"`
	Professional   *profile.Professional  `json:"professional"`
}

func (req profileRequest) details() profile.Details {
	return profile.Details{
		Name:           req.Name,
		Tagline:        req.Tagline,
		Bio:            req.Bio,
		Age:            req.Age,
		Gender:         req.Gender,
		LookingFor:     req.LookingFor,
		Interests:      req.Interests,
		NicheInterests: req.NicheInterests,
		Professional:   req.Professional,
	}
}

type profileResponse struct {
	Profile    *profile.Profile `json:"profile"`
	Completion int              `json:"completion"`
}

type createProfileResponse struct {
	profileResponse
	Token *auth.TokenResponse `json:"token"`
}

func newProfileResponse(p *profile.Profile) profileResponse {
	return profileResponse{Profile: p, Completion: profile.Completion(p)}
}

// CreateProfile handles POST /v1/profiles - register a new member and hand
// back a token for it.
func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !response.Decode(w, r, &req) {
		return
	}

	p, err := h.profiles.Create(r.Context(), req.details())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	token, err := h.authService.IssueToken(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.Created(w, r, "/v1/me/profile", createProfileResponse{
		profileResponse: newProfileResponse(p),
		Token:           token,
	})
}

// GetProfile handles GET /v1/me/profile.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}

	p, err := h.profiles.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, newProfileResponse(p))
}

// UpdateProfile handles PUT /v1/me/profile - replace the editable fields.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}

	var req profileRequest
	if !response.Decode(w, r, &req) {
		return
	}

	p, err := h.profiles.UpdateDetails(r.Context(), id, req.details())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, newProfileResponse(p))
}

type locationRequest struct {
	Location          *profile.Location          `json:"location"`
	Distance          *int                       `json:"distance" validate:"omitempty,lte=1000"`
	ShowLocation      *bool                      `json:"showLocation"`
	FrequentLocations []profile.FrequentLocation `json:"frequentLocations" validate:"max=10"`
}

type locationResponse struct {
	Location          *profile.Location          `json:"location,omitempty"`
	Distance          int                        `json:"distance"`
	ShowLocation      bool                       `json:"showLocation"`
	FrequentLocations []profile.FrequentLocation `json:"frequentLocations"`
}

// UpdateLocation handles POST /v1/me/location.
func (h *ProfileHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}

	var req locationRequest
	if !response.Decode(w, r, &req) {
		return
	}

	p, err := h.profiles.UpdateLocation(r.Context(), id, profile.LocationUpdate{
		Location:          req.Location,
		Distance:          req.Distance,
		ShowLocation:      req.ShowLocation,
		FrequentLocations: req.FrequentLocations,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	frequent := p.FrequentLocations
	if frequent == nil {
		frequent = []profile.FrequentLocation{}
	}
	response.JSON(w, r, http.StatusOK, locationResponse{
		Location:          p.Location,
		Distance:          p.Distance,
		ShowLocation:      p.Settings.LocationVisible(),
		FrequentLocations: frequent,
	})
}

type recurrenceRequest struct {
	Pattern   string              `json:"pattern" validate:"required,oneof=weekly monthly"`
	StartDate string              `json:"startDate" validate:"required"`
	EndDate   string              `json:"endDate"`
	Times     []profile.TimeRange `json:"times" validate:"required,min=1,max=10"`
	Weekdays  []int               `json:"weekdays" validate:"max=7,dive,gte=0,lte=6"`
}

type availabilityRequest struct {
	Slots       []profile.AvailabilitySlot       `json:"slots" validate:"required_without=Recurring,max=200"`
	Recurring   *recurrenceRequest               `json:"recurring"`
	Preferences *profile.AvailabilityPreferences `json:"preferences"`
}

type availabilityResponse struct {
	Slots       []profile.AvailabilitySlot       `json:"slots"`
	Preferences *profile.AvailabilityPreferences `json:"preferences,omitempty"`
}

func newAvailabilityResponse(slots []profile.AvailabilitySlot, prefs *profile.AvailabilityPreferences) availabilityResponse {
	if slots == nil {
		slots = []profile.AvailabilitySlot{}
	}
	return availabilityResponse{Slots: slots, Preferences: prefs}
}

// ListAvailability handles GET /v1/me/availability. futureOnly=true hides
// slots that have already ended.
func (h *ProfileHandler) ListAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}

	futureOnly := false
	if v := r.URL.Query().Get("futureOnly"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(w, r, "futureOnly must be true or false", nil)
			return
		}
		futureOnly = parsed
	}

	slots, prefs, err := h.profiles.ListAvailability(r.Context(), id, futureOnly)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, newAvailabilityResponse(slots, prefs))
}

// AddAvailability handles POST /v1/me/availability - add one-off slots or a
// recurring schedule.
func (h *ProfileHandler) AddAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}

	var req availabilityRequest
	if !response.Decode(w, r, &req) {
		return
	}

	update := profile.AvailabilityUpdate{Slots: req.Slots, Preferences: req.Preferences}
	if rec := req.Recurring; rec != nil {
		update.Recurrence = &profile.Recurrence{
			Pattern:   rec.Pattern,
			StartDate: rec.StartDate,
			EndDate:   rec.EndDate,
			Times:     rec.Times,
			Weekdays:  rec.Weekdays,
		}
	}

	p, err := h.profiles.AddAvailability(r.Context(), id, update)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, newAvailabilityResponse(p.Availability, p.AvailabilityPreferences))
}

// DeleteAvailability handles DELETE /v1/me/availability/{index}.
func (h *ProfileHandler) DeleteAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		response.BadRequest(w, r, "index must be an integer", nil)
		return
	}

	p, err := h.profiles.DeleteAvailabilitySlot(r.Context(), id, index)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, newAvailabilityResponse(p.Availability, p.AvailabilityPreferences))
}

type nicheInterestsRequest struct {
	Category  string   `json:"category" validate:"max=50"`
	Interests []string `json:"interests" validate:"required,min=1,max=50,dive,max=100"`
}

type nicheInterestsResponse struct {
	NicheInterests profile.NicheInterests `json:"nicheInterests"`
}

// AddNicheInterests handles POST /v1/me/niche-interests. Without a category
// the interests join the flat list.
func (h *ProfileHandler) AddNicheInterests(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}

	var req nicheInterestsRequest
	if !response.Decode(w, r, &req) {
		return
	}

	p, err := h.profiles.AddNicheInterests(r.Context(), id, req.Category, req.Interests)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, nicheInterestsResponse{NicheInterests: p.NicheInterests})
}
