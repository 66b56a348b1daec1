package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datamatch/datamatch/internal/api/handler"
	"github.com/datamatch/datamatch/internal/api/middleware"
	"github.com/datamatch/datamatch/internal/api/models"
	"github.com/datamatch/datamatch/internal/auth"
	"github.com/datamatch/datamatch/internal/featureflags"
	"github.com/datamatch/datamatch/internal/match"
	"github.com/datamatch/datamatch/internal/profile"
	"github.com/datamatch/datamatch/internal/suggestion"
)

var clock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	router   http.Handler
	profiles *profile.InMemoryRepository
	flags    *featureflags.Service
	auth     *auth.Service
	tokens   *auth.JWTService
}

func seedProfiles() []*profile.Profile {
	return []*profile.Profile{
		{
			ID:         "usr_alice",
			Name:       "Alice",
			Age:        30,
			Gender:     "female",
			LookingFor: "male",
			Interests:  []string{"hiking", "coffee", "jazz"},
			Location:   &profile.Location{Lat: 40.7128, Lng: -74.0060, City: "New York"},
			CreatedAt:  clock.Add(-3 * time.Hour),
		},
		{
			ID:         "usr_bob",
			Name:       "Bob",
			Age:        32,
			Gender:     "male",
			LookingFor: "female",
			Interests:  []string{"hiking", "coffee"},
			Location:   &profile.Location{Lat: 40.7306, Lng: -73.9352, City: "Brooklyn"},
			CreatedAt:  clock.Add(-2 * time.Hour),
		},
		{
			ID:        "usr_carol",
			Name:      "Carol",
			Age:       41,
			Interests: []string{"chess"},
			CreatedAt: clock.Add(-1 * time.Hour),
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()

	repo := profile.NewInMemoryRepository()
	for _, p := range seedProfiles() {
		require.NoError(t, repo.Create(context.Background(), p))
	}

	profiles := profile.NewService(profile.ServiceConfig{
		Repo:   repo,
		Logger: logger,
		Now:    func() time.Time { return clock },
	})

	flags := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewInMemoryRepository(),
		Logger:     logger,
	})

	matches := match.NewService(match.ServiceConfig{
		Profiles: profiles,
		Toggles:  flags,
		Logger:   logger,
		History:  profiles,
	})

	suggestions := suggestion.NewService(suggestion.ServiceConfig{
		Matcher: matches,
		Repo:    suggestion.NewInMemoryRepository(),
		Toggle:  flags,
		Logger:  logger,
	})

	tokens := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.datamatch.dev",
		Audience:   "datamatch-api",
	})
	authService := auth.NewService(auth.ServiceConfig{JWTService: tokens, Profiles: repo})

	profileHandler := handler.NewProfileHandler(profiles, authService, logger)
	matchHandler := handler.NewMatchHandler(matches, suggestions, logger)
	authHandler := handler.NewAuthHandler(authService, logger)
	flagsHandler := handler.NewFeatureFlagsHandler(flags, logger)

	r := chi.NewRouter()
	r.Post("/v1/profiles", profileHandler.CreateProfile)
	r.Post("/v1/auth/token", authHandler.IssueToken)
	r.Route("/v1/admin/feature-flags", func(r chi.Router) {
		r.Get("/", flagsHandler.ListFeatureFlags)
		r.Put("/", flagsHandler.UpsertFeatureFlags)
		r.Post("/invalidate", flagsHandler.InvalidateCache)
		r.Get("/{key}", flagsHandler.GetFeatureFlag)
		r.Put("/{key}", flagsHandler.SetFeatureFlag)
		r.Delete("/{key}", flagsHandler.ResetFeatureFlag)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authService))
		r.Get("/v1/me/profile", profileHandler.GetProfile)
		r.Put("/v1/me/profile", profileHandler.UpdateProfile)
		r.Post("/v1/me/location", profileHandler.UpdateLocation)
		r.Get("/v1/me/availability", profileHandler.ListAvailability)
		r.Post("/v1/me/availability", profileHandler.AddAvailability)
		r.Delete("/v1/me/availability/{index}", profileHandler.DeleteAvailability)
		r.Post("/v1/me/niche-interests", profileHandler.AddNicheInterests)
		r.Get("/v1/me/search-history", profileHandler.GetSearchHistory)
		r.Delete("/v1/me/search-history", profileHandler.ClearSearchHistory)
		r.Put("/v1/me/settings/search-history", profileHandler.UpdateSearchHistorySettings)
		r.Get("/v1/me/suggestions", matchHandler.Suggestions)
		r.Get("/v1/me/nearby", matchHandler.Nearby)
		r.Post("/v1/matches/search", matchHandler.Search)
		r.Get("/v1/matches/{candidateId}/compatibility", matchHandler.Compatibility)
	})

	return &testEnv{router: r, profiles: repo, flags: flags, auth: authService, tokens: tokens}
}

// do sends a request as profileID, or anonymously when it is empty.
func (e *testEnv) do(t *testing.T, method, path, profileID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if profileID != "" {
		token, _, err := e.tokens.GenerateAccessToken(profileID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func fieldNames(p models.Problem) []string {
	names := make([]string, 0, len(p.Errors))
	for _, e := range p.Errors {
		names = append(names, e.Field)
	}
	return names
}

func TestCreateProfile(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/profiles", "", map[string]any{
		"name":           "Dana",
		"age":            28,
		"interests":      []string{"climbing"},
		"nicheInterests": []string{"bouldering"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/v1/me/profile", rec.Header().Get("Location"))

	body := decode[struct {
		Profile    profile.Profile    `json:"profile"`
		Completion int                `json:"completion"`
		Token      auth.TokenResponse `json:"token"`
	}](t, rec)

	assert.Contains(t, body.Profile.ID, "usr_")
	assert.Equal(t, "Dana", body.Profile.Name)
	assert.Equal(t, []string{"bouldering"}, body.Profile.NicheInterests.Flatten())
	assert.Equal(t, 40, body.Completion)
	assert.Equal(t, body.Profile.ID, body.Token.ProfileID)
	assert.NotEmpty(t, body.Token.AccessToken)

	_, err := env.profiles.Get(context.Background(), body.Profile.ID)
	assert.NoError(t, err)
}

func TestCreateProfile_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		body   any
		fields []string
		detail string
	}{
		{
			name:   "underage",
			body:   map[string]any{"name": "Kid", "age": 12},
			fields: []string{"age"},
		},
		{
			name:   "unknown field",
			body:   map[string]any{"nickname": "x"},
			detail: "invalid JSON",
		},
		{
			name:   "empty body",
			body:   nil,
			detail: "request body is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/v1/profiles", "", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			problem := decode[models.Problem](t, rec)
			if tt.fields != nil {
				assert.Equal(t, tt.fields, fieldNames(problem))
			}
			if tt.detail != "" {
				assert.Contains(t, problem.Detail, tt.detail)
			}
		})
	}
}

func TestGetProfile(t *testing.T) {
	env := newTestEnv(t)

	t.Run("anonymous", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/me/profile", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("own profile", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/me/profile", "usr_alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[struct {
			Profile    profile.Profile `json:"profile"`
			Completion int             `json:"completion"`
		}](t, rec)
		assert.Equal(t, "usr_alice", body.Profile.ID)
		assert.Equal(t, 55, body.Completion)
	})
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/v1/me/profile", "usr_carol", map[string]any{
		"name":    "Carol K",
		"tagline": "  opening theory nerd  ",
		"age":     41,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := env.profiles.Get(context.Background(), "usr_carol")
	require.NoError(t, err)
	assert.Equal(t, "Carol K", stored.Name)
	assert.Equal(t, "opening theory nerd", stored.Tagline)
	assert.Empty(t, stored.Interests)
}

func TestUpdateLocation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/me/location", "usr_carol", map[string]any{
		"location":     map[string]any{"lat": 40.75, "lng": -73.99, "address": "Midtown, New York"},
		"distance":     0,
		"showLocation": false,
		"frequentLocations": []map[string]any{
			{"lat": 40.7411, "lng": -73.9897, "name": "Chess Forum"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[map[string]any](t, rec)
	assert.EqualValues(t, profile.DefaultLocationDistance, body["distance"])
	assert.Equal(t, false, body["showLocation"])
	assert.Len(t, body["frequentLocations"], 1)

	rec = env.do(t, http.MethodPost, "/v1/me/location", "usr_carol", map[string]any{
		"location": map[string]any{"lat": 95, "lng": 10},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"location.lat"}, fieldNames(decode[models.Problem](t, rec)))
}

func TestAvailability(t *testing.T) {
	env := newTestEnv(t)
	const user = "usr_bob"

	rec := env.do(t, http.MethodPost, "/v1/me/availability", user, map[string]any{
		"recurring": map[string]any{
			"pattern":   "weekly",
			"startDate": "2026-03-02",
			"endDate":   "2026-03-15",
			"weekdays":  []int{1, 3},
			"times":     []map[string]string{{"startTime": "18:00", "endTime": "20:00"}},
		},
		"preferences": map[string]any{"preferredTimeOfDay": "evening"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	type availability struct {
		Slots       []profile.AvailabilitySlot       `json:"slots"`
		Preferences *profile.AvailabilityPreferences `json:"preferences"`
	}
	body := decode[availability](t, rec)
	require.Len(t, body.Slots, 4)
	assert.Equal(t, "2026-03-02", body.Slots[0].Date)
	assert.Equal(t, "2026-03-11", body.Slots[3].Date)
	assert.True(t, body.Slots[0].Recurring)
	require.NotNil(t, body.Preferences)
	assert.Equal(t, "evening", body.Preferences.PreferredTimeOfDay)

	rec = env.do(t, http.MethodPost, "/v1/me/availability", user, map[string]any{
		"slots": []map[string]string{{"date": "2026-02-20", "startTime": "09:00", "endTime": "10:00"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[availability](t, rec).Slots, 5)

	rec = env.do(t, http.MethodGet, "/v1/me/availability?futureOnly=true", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[availability](t, rec).Slots, 4)

	rec = env.do(t, http.MethodDelete, "/v1/me/availability/0", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	remaining := decode[availability](t, rec).Slots
	require.Len(t, remaining, 4)
	assert.Equal(t, "2026-03-04", remaining[0].Date)

	rec = env.do(t, http.MethodDelete, "/v1/me/availability/99", user, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/v1/me/availability/first", user, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/me/availability?futureOnly=maybe", user, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddAvailability_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		body   any
		fields []string
	}{
		{
			name:   "nothing to add",
			body:   map[string]any{},
			fields: []string{"slots"},
		},
		{
			name: "unknown pattern",
			body: map[string]any{"recurring": map[string]any{
				"pattern":   "daily",
				"startDate": "2026-03-02",
				"times":     []map[string]string{{"startTime": "18:00", "endTime": "20:00"}},
			}},
			fields: []string{"recurring.pattern"},
		},
		{
			name: "end before start",
			body: map[string]any{"slots": []map[string]string{
				{"date": "2026-03-02", "startTime": "20:00", "endTime": "18:00"},
			}},
			fields: []string{"availability[0].endTime"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/v1/me/availability", "usr_bob", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.fields, fieldNames(decode[models.Problem](t, rec)))
		})
	}
}

func TestAddNicheInterests(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/me/niche-interests", "usr_alice", map[string]any{
		"category":  "Music",
		"interests": []string{"bebop", "  ", "modal jazz"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := env.profiles.Get(context.Background(), "usr_alice")
	require.NoError(t, err)
	assert.Equal(t, profile.NicheShapeCategorized, stored.NicheInterests.Shape())
	assert.ElementsMatch(t, []string{"bebop", "modal jazz"}, stored.NicheInterests.Flatten())

	rec = env.do(t, http.MethodPost, "/v1/me/niche-interests", "usr_alice", map[string]any{"interests": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)

	type searchBody struct {
		Results []match.Result `json:"results"`
		Total   int            `json:"total"`
	}

	t.Run("ranks candidates", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/matches/search", "usr_alice", map[string]any{})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decode[searchBody](t, rec)
		require.NotEmpty(t, body.Results)
		assert.Equal(t, "usr_bob", body.Results[0].CandidateID)
		assert.Equal(t, len(body.Results), body.Total)
		for _, r := range body.Results {
			assert.NotEqual(t, "usr_alice", r.CandidateID)
		}
	})

	t.Run("limit keeps total", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/matches/search", "usr_alice", map[string]any{"limit": 1})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[searchBody](t, rec)
		assert.Len(t, body.Results, 1)
		assert.Equal(t, 2, body.Total)
	})

	t.Run("filter options", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/matches/search", "usr_alice", map[string]any{
			"filterOptions": map[string]any{"gender": "male"},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[searchBody](t, rec)
		require.Len(t, body.Results, 1)
		assert.Equal(t, "usr_bob", body.Results[0].CandidateID)
	})

	t.Run("niche interests included by default", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/matches/search", "usr_alice", map[string]any{})
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[searchBody](t, rec)
		require.NotEmpty(t, body.Results)
		require.NotNil(t, body.Results[0].Breakdown)
		assert.NotNil(t, body.Results[0].Breakdown.NicheInterests)

		rec = env.do(t, http.MethodPost, "/v1/matches/search", "usr_alice", map[string]any{
			"includeNicheInterests": false,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		body = decode[searchBody](t, rec)
		require.NotEmpty(t, body.Results)
		require.NotNil(t, body.Results[0].Breakdown)
		assert.Nil(t, body.Results[0].Breakdown.NicheInterests)
	})

	t.Run("unknown category", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/matches/search", "usr_alice", map[string]any{
			"query":    "hiking",
			"category": "astrology",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("inverted age range", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/matches/search", "usr_alice", map[string]any{
			"filterOptions": map[string]any{"minAge": 40, "maxAge": 30},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requester without profile", func(t *testing.T) {
		require.NoError(t, env.profiles.Delete(context.Background(), "usr_carol"))
		rec := env.do(t, http.MethodPost, "/v1/matches/search", "usr_carol", map[string]any{})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSearchHistory(t *testing.T) {
	env := newTestEnv(t)

	type historyBody struct {
		SearchHistory []profile.SearchRecord  `json:"searchHistory"`
		Analytics     profile.SearchAnalytics `json:"analytics"`
	}

	rec := env.do(t, http.MethodGet, "/v1/me/search-history", "usr_alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"searchHistory":[]`)

	for _, q := range []string{"hiking trails", "jazz"} {
		rec = env.do(t, http.MethodPost, "/v1/matches/search", "usr_alice", map[string]any{
			"query":    q,
			"category": "interests",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/v1/me/search-history", "usr_alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[historyBody](t, rec)
	require.Len(t, body.SearchHistory, 2)
	assert.Equal(t, "hiking trails", body.SearchHistory[0].Query)
	assert.Equal(t, []profile.CategoryCount{{Name: "interests", Count: 2}}, body.Analytics.TopCategories)
	assert.Equal(t, 2, body.Analytics.RecentActivity.Today)

	rec = env.do(t, http.MethodPut, "/v1/me/settings/search-history", "usr_alice", map[string]any{
		"saveSearchHistory": false,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"saveSearchHistory":false}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/v1/matches/search", "usr_alice", map[string]any{"query": "chess"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/v1/me/search-history", "usr_alice", nil)
	assert.Len(t, decode[historyBody](t, rec).SearchHistory, 2)

	rec = env.do(t, http.MethodPut, "/v1/me/settings/search-history", "usr_alice", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/v1/me/search-history", "usr_alice", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, "/v1/me/search-history", "usr_alice", nil)
	assert.Empty(t, decode[historyBody](t, rec).SearchHistory)

	rec = env.do(t, http.MethodGet, "/v1/me/search-history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCompatibility(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/matches/usr_bob/compatibility", "usr_alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	compat := decode[match.Compatibility](t, rec)
	assert.GreaterOrEqual(t, compat.Score, 0)
	assert.LessOrEqual(t, compat.Score, 100)
	assert.NotEmpty(t, compat.Reason)

	rec = env.do(t, http.MethodGet, "/v1/matches/usr_nobody/compatibility", "usr_alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/matches/usr_alice/compatibility", "usr_alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggestions(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/me/suggestions?count=2", "usr_alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[map[string]any](t, rec)
	for _, key := range []string{"topMatches", "locationBased", "availabilityBased", "professionalBased", "nicheInterestBased"} {
		assert.Contains(t, body, key)
		assert.LessOrEqual(t, len(body[key].([]any)), 2)
	}

	rec = env.do(t, http.MethodGet, "/v1/me/suggestions?count=zero", "usr_alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNearby(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/me/nearby?distance=10", "usr_alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[struct {
		Matches []match.NearbyMatch `json:"matches"`
	}](t, rec)
	require.Len(t, body.Matches, 1)
	assert.Equal(t, "usr_bob", body.Matches[0].CandidateID)
	assert.Equal(t, "Brooklyn", body.Matches[0].Location.City)

	rec = env.do(t, http.MethodGet, "/v1/me/nearby", "usr_carol", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/me/nearby?distance=-5", "usr_alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := env.flags.SetFlag(context.Background(), featureflags.FlagDisableNearbySearch, true)
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/v1/me/nearby", "usr_alice", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIssueToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/auth/token", "", map[string]string{"profileId": "usr_bob"})
	require.Equal(t, http.StatusOK, rec.Code)

	token := decode[auth.TokenResponse](t, rec)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, "usr_bob", token.ProfileID)

	profileID, err := env.auth.ValidateAccessToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "usr_bob", profileID)

	rec = env.do(t, http.MethodPost, "/v1/auth/token", "", map[string]string{"profileId": "usr_ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/auth/token", "", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"profileId"}, fieldNames(decode[models.Problem](t, rec)))
}

func TestFeatureFlags(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/admin/feature-flags", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[featureflags.FlagList](t, rec)
	require.Len(t, list.Items, len(featureflags.DefaultFlags()))
	assert.Equal(t, featureflags.FlagDisableNearbySearch, list.Items[0].Key)

	rec = env.do(t, http.MethodPut, "/v1/admin/feature-flags/"+featureflags.FlagSuggestionMinScore, "", map[string]any{
		"value":  65,
		"reason": "tighten suggestions",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 65, env.flags.SuggestionMinScore(context.Background()))

	rec = env.do(t, http.MethodGet, "/v1/admin/feature-flags/"+featureflags.FlagSuggestionMinScore, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 65, decode[featureflags.Flag](t, rec).Value)

	rec = env.do(t, http.MethodPut, "/v1/admin/feature-flags", "", map[string]any{
		"updates": []map[string]any{
			{"key": featureflags.FlagPrioritizeAvailability, "value": true},
			{"key": featureflags.FlagDisableNicheInterests, "value": true},
		},
		"reason": "experiment",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, env.flags.PrioritizeAvailabilityByDefault(context.Background()))
	assert.True(t, env.flags.IsNicheInterestsDisabled(context.Background()))

	rec = env.do(t, http.MethodPut, "/v1/admin/feature-flags", "", map[string]any{"updates": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/v1/admin/feature-flags/some_flag", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/admin/feature-flags/no_such_flag", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/v1/admin/feature-flags/no_such_flag", "", map[string]any{"value": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/v1/admin/feature-flags/"+featureflags.FlagSuggestionMinScore, "", map[string]any{"value": 150})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/v1/admin/feature-flags/"+featureflags.FlagDisableNearbySearch, "", map[string]any{"value": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 65, env.flags.SuggestionMinScore(context.Background()))

	rec = env.do(t, http.MethodDelete, "/v1/admin/feature-flags/"+featureflags.FlagSuggestionMinScore, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 50, decode[featureflags.Flag](t, rec).Value)
	assert.Equal(t, 50, env.flags.SuggestionMinScore(context.Background()))

	rec = env.do(t, http.MethodDelete, "/v1/admin/feature-flags/no_such_flag", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/admin/feature-flags/invalidate", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
