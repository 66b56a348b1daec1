package match_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datamatch/datamatch/internal/match"
	"github.com/datamatch/datamatch/internal/profile"
)

func newEngine() *match.Engine {
	return match.NewEngine(match.Config{Clock: fixedClock})
}

// rankingPool returns a requester and a pool that includes the requester.
func rankingPool() (*profile.Profile, []*profile.Profile) {
	user := &profile.Profile{ID: "u", Gender: "male", Interests: []string{"ai", "hiking"}, Location: at(sanFrancisco)}
	pool := []*profile.Profile{
		{ID: "near", Gender: "female", Interests: []string{"ai", "hiking"}, Location: at(sanFrancisco)},
		user,
		{ID: "oak", Gender: "female", Interests: []string{"ai", "cooking"}, Location: at(oakland)},
		{ID: "la", Gender: "female", Interests: []string{"ai"}, Location: at(losAngeles)},
		{ID: "nowhere", Interests: []string{"hiking", "ai"}},
		{ID: "male", Gender: "male", Interests: []string{"ai", "hiking"}, Location: at(sanFrancisco)},
	}
	return user, pool
}

func ids(results []match.Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.CandidateID)
	}
	return out
}

func TestComposite(t *testing.T) {
	user := &profile.Profile{Interests: []string{"ai", "hiking"}, Location: at(sanFrancisco), Distance: 25}
	candidate := &profile.Profile{Interests: []string{"ai", "cooking"}, Location: at(sanFrancisco)}

	got := match.Composite(user, candidate, match.CompositeOptions{
		Weights:               match.DefaultWeights,
		IncludeNicheInterests: true,
		DefaultMaxDistance:    match.DefaultMaxDistance,
		Today:                 today,
	})

	// (50*30 + 100*25) / (30+25)
	assert.Equal(t, 73, got.Score)
	assert.Equal(t, "Less than a mile away from you", got.Reason)
	require.NotNil(t, got.Breakdown.NicheInterests)
	assert.False(t, got.Breakdown.NicheInterests.HasSignal())

	got = match.Composite(user, candidate, match.CompositeOptions{
		Weights:            match.AvailabilityWeights,
		DefaultMaxDistance: match.DefaultMaxDistance,
		Today:              today,
	})

	// (50*25 + 100*20) / (25+20)
	assert.Equal(t, 72, got.Score)
	assert.Nil(t, got.Breakdown.NicheInterests)
}

func TestComposite_NoSignal(t *testing.T) {
	got := match.Composite(&profile.Profile{}, &profile.Profile{}, match.CompositeOptions{
		Weights:               match.DefaultWeights,
		IncludeNicheInterests: true,
		Today:                 today,
	})

	assert.Zero(t, got.Score)
	assert.Equal(t, match.FallbackReason, got.Reason)
}

func TestComposite_ReasonTieGoesToEarlierDimension(t *testing.T) {
	weights := match.Weights{Interests: 1, Professional: 1, Location: 1, Availability: 1, NicheInterests: 1}
	user := &profile.Profile{Interests: []string{"ai"}, NicheInterests: profile.NicheList("chess")}
	candidate := &profile.Profile{Interests: []string{"ai"}, NicheInterests: profile.NicheList("chess")}

	got := match.Composite(user, candidate, match.CompositeOptions{Weights: weights, IncludeNicheInterests: true, Today: today})

	assert.Equal(t, 100, got.Score)
	assert.Equal(t, "Shares 1 common interest with you", got.Reason)
}

func TestEngine_Rank(t *testing.T) {
	user, pool := rankingPool()

	results := newEngine().Rank(user, pool, match.Options{})

	assert.Equal(t, []string{"near", "nowhere", "male", "oak"}, ids(results))
	assert.Equal(t, 100, results[0].Score)
	require.NotNil(t, results[0].DistanceMiles)
	assert.Zero(t, *results[0].DistanceMiles)
	assert.Nil(t, results[1].DistanceMiles)
	assert.Equal(t, 65, results[3].Score)
	require.NotNil(t, results[3].Breakdown)
	assert.Nil(t, results[3].Query)
}

func TestEngine_Rank_ExcludesSelf(t *testing.T) {
	user, pool := rankingPool()

	for _, r := range newEngine().Rank(user, pool, match.Options{Query: "ai"}) {
		assert.NotEqual(t, user.ID, r.CandidateID)
	}
}

func TestEngine_Rank_FilterExcludesRegardlessOfScore(t *testing.T) {
	user, pool := rankingPool()

	results := newEngine().Rank(user, pool, match.Options{Filter: match.Filter{Gender: "female"}})

	assert.Equal(t, []string{"near", "oak"}, ids(results))
}

func TestEngine_Rank_FilterMonotonic(t *testing.T) {
	user, pool := rankingPool()
	engine := newEngine()

	loose := ids(engine.Rank(user, pool, match.Options{Filter: match.Filter{HasLocation: true}}))
	strict := ids(engine.Rank(user, pool, match.Options{Filter: match.Filter{HasLocation: true, Gender: "female"}}))

	assert.Subset(t, loose, strict)
	assert.Less(t, len(strict), len(loose))
}

func TestEngine_Rank_Distance(t *testing.T) {
	user, pool := rankingPool()
	engine := newEngine()

	results := engine.Rank(user, pool, match.Options{Distance: 5})
	assert.Equal(t, []string{"near", "nowhere", "male"}, ids(results))

	// The requester's own preference applies when the call sets none.
	user.Distance = 500
	results = engine.Rank(user, pool, match.Options{})
	assert.Contains(t, ids(results), "la")
}

func TestEngine_Rank_MinCompatibility(t *testing.T) {
	user, pool := rankingPool()

	results := newEngine().Rank(user, pool, match.Options{MinCompatibility: 70})

	assert.Equal(t, []string{"near", "nowhere", "male"}, ids(results))
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 70)
	}
}

func TestEngine_Rank_Query(t *testing.T) {
	user, pool := rankingPool()

	results := newEngine().Rank(user, pool, match.Options{Query: "hik", MinCompatibility: 1})

	assert.Equal(t, []string{"near", "nowhere", "male"}, ids(results))
	for _, r := range results {
		assert.Equal(t, 10, r.Score)
		assert.Equal(t, "Shares interests in: hiking", r.Reason)
		require.NotNil(t, r.Query)
		assert.Nil(t, r.Breakdown)
	}
}

func TestEngine_Rank_ScoresClamped(t *testing.T) {
	user := &profile.Profile{ID: "u"}
	candidate := &profile.Profile{ID: "c"}
	for i := range 12 {
		candidate.Interests = append(candidate.Interests, fmt.Sprintf("go-%d", i))
	}

	results := newEngine().Rank(user, []*profile.Profile{candidate}, match.Options{Query: "go"})

	require.Len(t, results, 1)
	assert.Equal(t, 100, results[0].Score)
	assert.Equal(t, 120, results[0].Query.Score)
}

func TestEngine_Rank_Idempotent(t *testing.T) {
	user, pool := rankingPool()
	engine := newEngine()

	first := engine.Rank(user, pool, match.Options{})
	second := engine.Rank(user, pool, match.Options{})

	assert.Equal(t, first, second)
}

func TestEngine_Rank_ScoresInRange(t *testing.T) {
	user, pool := rankingPool()
	engine := newEngine()

	for _, opts := range []match.Options{{}, {Query: "a"}, {PrioritizeAvailability: true}, {SkipNicheInterests: true}} {
		for _, r := range engine.Rank(user, pool, opts) {
			assert.GreaterOrEqual(t, r.Score, 0)
			assert.LessOrEqual(t, r.Score, 100)
		}
	}
}

func TestEngine_Compatibility_Symmetric(t *testing.T) {
	a := &profile.Profile{Interests: []string{"ai", "hiking", "jazz"}, Location: at(sanFrancisco)}
	b := &profile.Profile{Interests: []string{"jazz", "ai"}, Location: at(oakland)}
	engine := newEngine()

	assert.Equal(t,
		engine.Compatibility(a, b, false, true).Score,
		engine.Compatibility(b, a, false, true).Score,
	)
}

func TestScoreQuery(t *testing.T) {
	candidate := &profile.Profile{
		Name:              "Pythonista",
		Bio:               "I write python every day",
		Interests:         []string{"Python scripting"},
		NicheInterests:    profile.NicheList("python koans"),
		Professional:      &profile.Professional{Skills: []string{"Python", "Go"}},
		Location:          &profile.Location{Address: "Python Street, Leeds"},
		FrequentLocations: []profile.FrequentLocation{{Name: "Python Meetup", Lat: 1, Lng: 1}},
	}

	tests := []struct {
		name       string
		category   string
		wantScore  int
		wantReason string
	}{
		{"profession", match.CategoryProfession, 5 + 5 + 10, "Has skills in Python"},
		{"interests", match.CategoryInterests, 10 + 12 + 5 + 10, "Shares interests in: Python scripting"},
		{"location", match.CategoryLocation, 20 + 8 + 5 + 10, "Located in Python Street, Leeds"},
		{"general", "", 10 + 12 + 5 + 20 + 8 + 5 + 10, "Shares interests in: Python scripting"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := match.ScoreQuery(candidate, "PYTHON", tt.category)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantReason, got.Reason("PYTHON"))
			assert.True(t, got.MatchedName)
			assert.True(t, got.MatchedBio)
		})
	}
}

func TestScoreQuery_ProfessionSkill(t *testing.T) {
	candidate := &profile.Profile{Professional: &profile.Professional{Skills: []string{"Python"}}}

	got := match.ScoreQuery(candidate, "python", match.CategoryProfession)

	assert.Equal(t, 5, got.Score)
	assert.Equal(t, []string{"Python"}, got.MatchedSkills)
}

func TestScoreQuery_ExperienceCountsOnce(t *testing.T) {
	candidate := &profile.Profile{Professional: &profile.Professional{Experience: []profile.Experience{
		{Title: "Data Engineer", Company: "Acme"},
		{Title: "Engineer", Company: "Globex"},
	}}}

	got := match.ScoreQuery(candidate, "engineer", match.CategoryProfession)

	assert.Equal(t, 15, got.Score)
	assert.Equal(t, "Works as Data Engineer at Acme", got.Reason("engineer"))
}

func TestScoreQuery_NameOnlyReason(t *testing.T) {
	got := match.ScoreQuery(&profile.Profile{Name: "Ada"}, "ada", match.CategoryGeneral)

	assert.Equal(t, 5, got.Score)
	assert.Equal(t, `Matched your search for "ada"`, got.Reason("ada"))
}

func TestValidCategory(t *testing.T) {
	assert.True(t, match.ValidCategory(""))
	assert.True(t, match.ValidCategory(match.CategoryLocation))
	assert.False(t, match.ValidCategory("hobbies"))
}
