package match

import (
	"math"
	"sort"

	"github.com/datamatch/datamatch/internal/profile"
)

// Suggestion limits.
const (
	DefaultSuggestionCount = 5
	MaxSuggestionCount     = 20

	// DefaultSuggestionMinScore is the composite score a candidate must
	// exceed to be suggested overall.
	DefaultSuggestionMinScore = 50

	// bucketThreshold is the dimension score a candidate must exceed to
	// appear in a per-dimension list.
	bucketThreshold = 70
)

// Suggestion is a suggested candidate.
type Suggestion struct {
	CandidateID   string     `json:"candidateId"`
	Score         int        `json:"score"`
	Reason        string     `json:"reason"`
	DistanceMiles *float64   `json:"distanceMiles,omitempty"`
	Breakdown     *Breakdown `json:"breakdown,omitempty"`
}

// Suggestions groups suggested candidates by what makes them stand out.
type Suggestions struct {
	Top          []Suggestion `json:"topMatches"`
	Location     []Suggestion `json:"locationBased"`
	Availability []Suggestion `json:"availabilityBased"`
	Professional []Suggestion `json:"professionalBased"`
	Niche        []Suggestion `json:"nicheInterestBased"`

	// TotalPotentialMatches counts every candidate above the overall
	// threshold before truncation.
	TotalPotentialMatches int `json:"totalPotentialMatches"`
}

// SuggestOptions control a suggestion call.
type SuggestOptions struct {
	// Count is the list length, clamped to [1, MaxSuggestionCount].
	// Zero means DefaultSuggestionCount.
	Count int

	// MinScore is the overall threshold. Zero means
	// DefaultSuggestionMinScore.
	MinScore int
}

// ClampCount normalizes a requested suggestion count.
func ClampCount(n int) int {
	if n <= 0 {
		return DefaultSuggestionCount
	}
	return min(n, MaxSuggestionCount)
}

// Suggest builds top-N suggestion lists: the best overall composite
// matches with niche interests included, and the standout candidates for
// location, availability, professional background and niche interests.
func (e *Engine) Suggest(user *profile.Profile, pool []*profile.Profile, opts SuggestOptions) Suggestions {
	count := ClampCount(opts.Count)
	minScore := opts.MinScore
	if minScore <= 0 {
		minScore = DefaultSuggestionMinScore
	}
	composite := e.compositeOptions(false, true)

	var out Suggestions
	for _, c := range pool {
		if c == nil || c.ID == user.ID {
			continue
		}

		compat := Composite(user, c, composite)
		b := compat.Breakdown

		addBucket(&out.Location, c.ID, b.Location.Score, b.Location.Reason)
		addBucket(&out.Availability, c.ID, b.Availability.Score, b.Availability.Reason)
		addBucket(&out.Professional, c.ID, b.Professional.Score, b.Professional.Reason)
		if b.NicheInterests != nil {
			addBucket(&out.Niche, c.ID, b.NicheInterests.Score, b.NicheInterests.Reason)
		}

		if compat.Score > minScore {
			s := Suggestion{
				CandidateID: c.ID,
				Score:       compat.Score,
				Reason:      compat.Reason,
				Breakdown:   &b,
			}
			if d, ok := profileDistance(user, c); ok {
				rounded := math.Round(d)
				s.DistanceMiles = &rounded
			}
			out.Top = append(out.Top, s)
		}
	}

	out.TotalPotentialMatches = len(out.Top)
	for _, list := range []*[]Suggestion{&out.Top, &out.Location, &out.Availability, &out.Professional, &out.Niche} {
		sort.SliceStable(*list, func(i, j int) bool {
			return (*list)[i].Score > (*list)[j].Score
		})
		if len(*list) > count {
			*list = (*list)[:count]
		}
		if *list == nil {
			*list = []Suggestion{}
		}
	}

	return out
}

func addBucket(list *[]Suggestion, id string, score float64, reason string) {
	if score <= bucketThreshold {
		return
	}
	*list = append(*list, Suggestion{
		CandidateID: id,
		Score:       int(math.Round(score)),
		Reason:      reason,
	})
}

// Truncate returns a copy with every list cut to at most n entries.
// TotalPotentialMatches is kept.
func (s Suggestions) Truncate(n int) Suggestions {
	cut := func(list []Suggestion) []Suggestion {
		out := make([]Suggestion, min(len(list), n))
		copy(out, list)
		return out
	}
	s.Top = cut(s.Top)
	s.Location = cut(s.Location)
	s.Availability = cut(s.Availability)
	s.Professional = cut(s.Professional)
	s.Niche = cut(s.Niche)
	return s
}
