package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datamatch/datamatch/internal/match"
	"github.com/datamatch/datamatch/internal/profile"
)

func suggestionIDs(list []match.Suggestion) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.CandidateID)
	}
	return out
}

func TestEngine_Suggest(t *testing.T) {
	user, pool := rankingPool()

	got := newEngine().Suggest(user, pool, match.SuggestOptions{Count: 2})

	assert.Equal(t, 4, got.TotalPotentialMatches)
	assert.Equal(t, []string{"near", "nowhere"}, suggestionIDs(got.Top))
	assert.Equal(t, []string{"near", "male"}, suggestionIDs(got.Location))
	assert.Empty(t, got.Professional)
	assert.NotNil(t, got.Professional)
	assert.NotNil(t, got.Niche)

	require.NotNil(t, got.Top[0].DistanceMiles)
	assert.Nil(t, got.Top[1].DistanceMiles)
	require.NotNil(t, got.Top[0].Breakdown)
	assert.NotNil(t, got.Top[0].Breakdown.NicheInterests)
}

func TestEngine_Suggest_MinScore(t *testing.T) {
	user, pool := rankingPool()

	got := newEngine().Suggest(user, pool, match.SuggestOptions{MinScore: 70})

	assert.Equal(t, 3, got.TotalPotentialMatches)
	assert.Equal(t, []string{"near", "nowhere", "male"}, suggestionIDs(got.Top))
	assert.Equal(t, []string{"near", "male", "oak"}, suggestionIDs(got.Location))
	assert.Equal(t, 83, got.Location[2].Score)
}

func TestEngine_Suggest_NicheBucket(t *testing.T) {
	user := &profile.Profile{ID: "u", NicheInterests: profile.NicheList("chess", "go")}
	pool := []*profile.Profile{
		{ID: "both", NicheInterests: profile.NicheList("go", "chess")},
		{ID: "half", NicheInterests: profile.NicheList("go")},
	}

	got := newEngine().Suggest(user, pool, match.SuggestOptions{})

	assert.Equal(t, []string{"both"}, suggestionIDs(got.Niche))
	assert.Equal(t, "Shares 2 niche interests with you", got.Niche[0].Reason)
}

func TestClampCount(t *testing.T) {
	assert.Equal(t, match.DefaultSuggestionCount, match.ClampCount(0))
	assert.Equal(t, 3, match.ClampCount(3))
	assert.Equal(t, match.MaxSuggestionCount, match.ClampCount(500))
}

func TestEngine_Nearby(t *testing.T) {
	user, pool := rankingPool()
	hidden := false
	pool = append(pool, &profile.Profile{
		ID:       "hidden",
		Location: at(sanFrancisco),
		Settings: profile.Settings{ShowLocation: &hidden},
	})

	got, err := newEngine().Nearby(user, pool, 0)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "near", got[0].CandidateID)
	assert.Equal(t, "male", got[1].CandidateID)
	assert.Equal(t, "oak", got[2].CandidateID)
	assert.Equal(t, 8.0, got[2].DistanceMiles)
	assert.Equal(t, 100, got[0].Compatibility)
	assert.Equal(t, 50, got[2].Compatibility)
	assert.Equal(t, "San Francisco", got[0].Location.City)
}

func TestEngine_Nearby_ExplicitDistance(t *testing.T) {
	user, pool := rankingPool()

	got, err := newEngine().Nearby(user, pool, 5)
	require.NoError(t, err)

	assert.Len(t, got, 2)
}

func TestEngine_Nearby_RequiresLocation(t *testing.T) {
	_, pool := rankingPool()

	_, err := newEngine().Nearby(&profile.Profile{ID: "u"}, pool, 0)
	assert.ErrorIs(t, err, match.ErrNoLocation)
}

func TestQuickCompatibility(t *testing.T) {
	a := &profile.Profile{Interests: []string{"ai", "jazz"}, NicheInterests: profile.NicheList("chess")}
	b := &profile.Profile{Interests: []string{"ai"}, NicheInterests: profile.NicheCategories(
		profile.NicheGroup{Category: "games", Interests: []string{"chess"}},
	)}

	// Interest ratio 0.5 and niche ratio 1 average to 75.
	assert.Equal(t, 75, match.QuickCompatibility(a, b))
	assert.Zero(t, match.QuickCompatibility(&profile.Profile{}, b))
}
