package match

import (
	"math"
	"sort"

	"github.com/datamatch/datamatch/internal/profile"
)

// Options control a ranking call.
type Options struct {
	// Query switches scoring to free-text matching. Category narrows it.
	Query    string
	Category string

	// Distance is the max distance in miles. Zero falls back to the
	// requester's preference, then the engine default.
	Distance float64

	// SkipNicheInterests leaves niche interests out of the composite.
	SkipNicheInterests bool

	// PrioritizeAvailability selects the availability weight set.
	PrioritizeAvailability bool

	// MinCompatibility drops candidates scoring below it.
	MinCompatibility int

	Filter Filter
}

// Result is a scored candidate. It references the candidate by ID only.
type Result struct {
	CandidateID string `json:"candidateId"`
	Score       int    `json:"score"`
	Reason      string `json:"reason"`

	// DistanceMiles is rounded to whole miles, nil when either side has no
	// coordinates.
	DistanceMiles *float64 `json:"distanceMiles,omitempty"`

	// Breakdown is set for compatibility scoring, Query for free-text.
	Breakdown *Breakdown  `json:"breakdown,omitempty"`
	Query     *QueryMatch `json:"query,omitempty"`
}

// MaxDistance resolves the distance cutoff for a requester.
func (e *Engine) MaxDistance(user *profile.Profile, explicit float64) float64 {
	switch {
	case explicit > 0:
		return explicit
	case user.Distance > 0:
		return float64(user.Distance)
	default:
		return e.cfg.DefaultMaxDistance
	}
}

// Compatibility computes the full composite for one pair.
func (e *Engine) Compatibility(user, candidate *profile.Profile, prioritizeAvailability, includeNiche bool) Compatibility {
	return Composite(user, candidate, e.compositeOptions(prioritizeAvailability, includeNiche))
}

// Rank scores the pool against user and returns survivors ordered by
// descending score. Candidates with equal scores keep pool order. The user
// never appears in the result, and candidates without coordinates are never
// dropped for distance.
func (e *Engine) Rank(user *profile.Profile, pool []*profile.Profile, opts Options) []Result {
	maxDistance := e.MaxDistance(user, opts.Distance)
	composite := e.compositeOptions(opts.PrioritizeAvailability, !opts.SkipNicheInterests)

	results := make([]Result, 0, len(pool))
	for _, c := range pool {
		if c == nil || c.ID == user.ID {
			continue
		}
		if !opts.Filter.Passes(c) {
			continue
		}

		var r Result
		var raw float64
		if opts.Query != "" {
			qm := ScoreQuery(c, opts.Query, opts.Category)
			raw = float64(qm.Score)
			r.Reason = qm.Reason(opts.Query)
			r.Query = &qm
		} else {
			compat := Composite(user, c, composite)
			raw = float64(compat.Score)
			r.Reason = compat.Reason
			r.Breakdown = &compat.Breakdown
		}

		if d, ok := profileDistance(user, c); ok {
			if d > maxDistance {
				continue
			}
			rounded := math.Round(d)
			r.DistanceMiles = &rounded
		}

		if raw < float64(opts.MinCompatibility) {
			continue
		}

		r.CandidateID = c.ID
		r.Score = int(math.Round(clamp(raw)))
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
