// Package match implements the compatibility engine: dimension scorers,
// the weighted composite, free-text query scoring and candidate ranking.
//
// Everything in this package is a pure function of its inputs. Profiles are
// never modified and no state is shared between calls, so an Engine may be
// used from any number of goroutines.
package match

import (
	"fmt"
	"math"
	"strings"
)

// Dimension is the result of scoring one facet of compatibility.
// A zero score with an empty reason means the facet carried no signal.
type Dimension[T any] struct {
	Score   float64 `json:"score"`
	Reason  string  `json:"reason,omitempty"`
	Details T       `json:"details"`
}

// HasSignal reports whether the dimension takes part in the composite.
func (d Dimension[T]) HasSignal() bool {
	return d.Score > 0
}

func clamp(score float64) float64 {
	return math.Max(0, math.Min(100, score))
}

// lowerSet builds a set of lowercased values.
func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}

// overlap returns the lowercased entries of candidate present in the
// user's set, in candidate order, together with the ratio used by the
// interest-style scorers: shared / max(|user set|, |candidate|).
func overlap(user, candidate []string) ([]string, float64) {
	if len(user) == 0 || len(candidate) == 0 {
		return nil, 0
	}

	userSet := lowerSet(user)
	var shared []string
	for _, c := range candidate {
		lc := strings.ToLower(c)
		if _, ok := userSet[lc]; ok {
			shared = append(shared, lc)
		}
	}
	if len(shared) == 0 {
		return nil, 0
	}

	return shared, float64(len(shared)) / float64(max(len(userSet), len(candidate)))
}

// plural picks the singular or plural phrasing for a count.
func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return fmt.Sprintf(many, n)
}

// joinFirst joins up to n values, adding an ellipsis when truncated.
func joinFirst(values []string, n int, ellipsis bool) string {
	if len(values) <= n {
		return strings.Join(values, ", ")
	}
	out := strings.Join(values[:n], ", ")
	if ellipsis {
		out += "..."
	}
	return out
}
