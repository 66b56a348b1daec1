package match

import (
	"math"
	"sort"
	"time"

	"github.com/datamatch/datamatch/internal/profile"
)

// FallbackReason is used when the strongest dimension has nothing to say.
const FallbackReason = "Potential match based on multiple factors"

// Weights sets the relative importance of each dimension.
type Weights struct {
	Interests      float64 `json:"interests" toml:"interests"`
	Professional   float64 `json:"professional" toml:"professional"`
	Location       float64 `json:"location" toml:"location"`
	Availability   float64 `json:"availability" toml:"availability"`
	NicheInterests float64 `json:"nicheInterests" toml:"niche_interests"`
}

// DefaultWeights is the standard weight set.
var DefaultWeights = Weights{
	Interests:      30,
	Professional:   30,
	Location:       25,
	Availability:   15,
	NicheInterests: 20,
}

// AvailabilityWeights favours schedule overlap.
var AvailabilityWeights = Weights{
	Interests:      25,
	Professional:   25,
	Location:       20,
	Availability:   30,
	NicheInterests: 15,
}

// Breakdown holds every dimension result behind a composite score.
type Breakdown struct {
	Interests      Dimension[InterestDetails]     `json:"interests"`
	Professional   Dimension[ProfessionalDetails] `json:"professional"`
	Location       Dimension[LocationDetails]     `json:"location"`
	Availability   Dimension[AvailabilityDetails] `json:"availability"`
	NicheInterests *Dimension[NicheDetails]       `json:"nicheInterests,omitempty"`
}

// Compatibility is the composite result for one candidate.
type Compatibility struct {
	Score     int       `json:"score"`
	Reason    string    `json:"reason"`
	Breakdown Breakdown `json:"breakdown"`
}

// CompositeOptions control a composite evaluation.
type CompositeOptions struct {
	Weights               Weights
	IncludeNicheInterests bool
	DefaultMaxDistance    float64
	Today                 time.Time
}

type weighted struct {
	score  float64
	weight float64
	reason string
}

// Composite scores every dimension and combines them into a weighted
// average. Dimensions without signal are left out of both the numerator and
// the denominator. The reason comes from the dimension with the largest
// weighted contribution; ties go to the earlier dimension.
func Composite(user, candidate *profile.Profile, opts CompositeOptions) Compatibility {
	b := Breakdown{
		Interests:    ScoreInterests(user, candidate),
		Professional: ScoreProfessional(user, candidate),
		Location:     ScoreLocation(user, candidate, opts.DefaultMaxDistance),
		Availability: ScoreAvailability(user, candidate, opts.Today),
	}

	w := opts.Weights
	parts := []weighted{
		{b.Interests.Score, w.Interests, b.Interests.Reason},
		{b.Professional.Score, w.Professional, b.Professional.Reason},
		{b.Location.Score, w.Location, b.Location.Reason},
		{b.Availability.Score, w.Availability, b.Availability.Reason},
	}
	if opts.IncludeNicheInterests {
		niche := ScoreNicheInterests(user, candidate)
		b.NicheInterests = &niche
		parts = append(parts, weighted{niche.Score, w.NicheInterests, niche.Reason})
	}

	return Compatibility{
		Score:     combine(parts),
		Reason:    primaryReason(parts),
		Breakdown: b,
	}
}

func combine(parts []weighted) int {
	var sum, weights float64
	for _, p := range parts {
		if p.score > 0 {
			sum += p.score * p.weight
			weights += p.weight
		}
	}
	if weights <= 0 {
		return 0
	}
	return int(math.Round(clamp(sum / weights)))
}

func primaryReason(parts []weighted) string {
	ranked := make([]weighted, len(parts))
	copy(ranked, parts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score*ranked[i].weight > ranked[j].score*ranked[j].weight
	})

	if len(ranked) == 0 || ranked[0].reason == "" {
		return FallbackReason
	}
	return ranked[0].reason
}
