package match_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datamatch/datamatch/internal/match"
	"github.com/datamatch/datamatch/internal/profile"
)

type staticToggles struct {
	prioritize    bool
	nicheDisabled bool
	minScore      int
	nearbyOff     bool
}

func (s staticToggles) PrioritizeAvailabilityByDefault(context.Context) bool { return s.prioritize }
func (s staticToggles) IsNicheInterestsDisabled(context.Context) bool        { return s.nicheDisabled }
func (s staticToggles) SuggestionMinScore(context.Context) int               { return s.minScore }
func (s staticToggles) IsNearbySearchDisabled(context.Context) bool          { return s.nearbyOff }

type failingRecorder struct{ calls int }

func (r *failingRecorder) RecordSearch(context.Context, string, string, string) (bool, error) {
	r.calls++
	return false, errors.New("store unavailable")
}

func newMatchService(t *testing.T, toggles match.Toggles) *match.Service {
	t.Helper()
	return match.NewService(matchServiceConfig(t, toggles))
}

func matchServiceConfig(t *testing.T, toggles match.Toggles) match.ServiceConfig {
	t.Helper()

	repo := profile.NewInMemoryRepository()
	_, pool := rankingPool()
	for i, p := range pool {
		p.CreatedAt = today.Add(-time.Duration(len(pool)-i) * time.Hour)
		require.NoError(t, repo.Create(context.Background(), p))
	}

	metrics, err := match.NewMetrics()
	require.NoError(t, err)

	return match.ServiceConfig{
		Engine:   newEngine(),
		Profiles: repo,
		Toggles:  toggles,
		Metrics:  metrics,
		Logger:   zerolog.Nop(),
	}
}

func TestService_Search(t *testing.T) {
	svc := newMatchService(t, nil)

	results, err := svc.Search(context.Background(), "u", match.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"near", "nowhere", "male", "oak"}, ids(results))
	require.NotNil(t, results[0].Breakdown)
	assert.NotNil(t, results[0].Breakdown.NicheInterests)
}

func TestService_Search_RecordsHistory(t *testing.T) {
	cfg := matchServiceConfig(t, nil)
	profiles := profile.NewService(profile.ServiceConfig{
		Repo:   cfg.Profiles.(*profile.InMemoryRepository),
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return today },
	})
	cfg.History = profiles
	svc := match.NewService(cfg)
	ctx := context.Background()

	_, err := svc.Search(ctx, "u", match.Options{})
	require.NoError(t, err)
	_, err = svc.Search(ctx, "u", match.Options{Query: "hiking", Category: "interests"})
	require.NoError(t, err)

	history, _, err := profiles.SearchHistory(ctx, "u")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hiking", history[0].Query)
	assert.Equal(t, "interests", history[0].Category)
	assert.Equal(t, today, history[0].Timestamp)
}

func TestService_Search_HistoryFailureDoesNotFailSearch(t *testing.T) {
	recorder := &failingRecorder{}
	cfg := matchServiceConfig(t, nil)
	cfg.History = recorder
	svc := match.NewService(cfg)

	_, err := svc.Search(context.Background(), "u", match.Options{Query: "hiking"})
	require.NoError(t, err)
	assert.Equal(t, 1, recorder.calls)
}

func TestService_Search_TogglesApply(t *testing.T) {
	svc := newMatchService(t, staticToggles{nicheDisabled: true, prioritize: true})

	results, err := svc.Search(context.Background(), "u", match.Options{})
	require.NoError(t, err)

	for _, r := range results {
		require.NotNil(t, r.Breakdown)
		assert.Nil(t, r.Breakdown.NicheInterests)
	}

	// (50*25 + 83.3*20) / 45 with the availability weights.
	assert.Equal(t, "oak", results[len(results)-1].CandidateID)
	assert.Equal(t, 65, results[len(results)-1].Score)
}

func TestService_Search_MissingUser(t *testing.T) {
	svc := newMatchService(t, nil)

	_, err := svc.Search(context.Background(), "ghost", match.Options{})
	assert.ErrorIs(t, err, match.ErrMissingUser)
}

func TestService_Search_UnknownCategory(t *testing.T) {
	svc := newMatchService(t, nil)

	_, err := svc.Search(context.Background(), "u", match.Options{Query: "ai", Category: "hobbies"})
	assert.ErrorIs(t, err, match.ErrUnknownCategory)
}

func TestService_Suggest(t *testing.T) {
	svc := newMatchService(t, staticToggles{minScore: 70})

	got, err := svc.Suggest(context.Background(), "u", 0)
	require.NoError(t, err)

	assert.Equal(t, 3, got.TotalPotentialMatches)
}

func TestService_Nearby(t *testing.T) {
	svc := newMatchService(t, nil)

	got, err := svc.Nearby(context.Background(), "u", 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = svc.Nearby(context.Background(), "nowhere", 0)
	assert.ErrorIs(t, err, match.ErrNoLocation)
}

func TestService_Nearby_Disabled(t *testing.T) {
	svc := newMatchService(t, staticToggles{nearbyOff: true})

	_, err := svc.Nearby(context.Background(), "u", 0)
	assert.ErrorIs(t, err, match.ErrNearbyDisabled)
}

func TestService_Compatibility(t *testing.T) {
	svc := newMatchService(t, nil)

	got, err := svc.Compatibility(context.Background(), "u", "oak")
	require.NoError(t, err)
	assert.Equal(t, 65, got.Score)

	_, err = svc.Compatibility(context.Background(), "u", "ghost")
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
}
