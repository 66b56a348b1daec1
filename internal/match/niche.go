package match

import (
	"fmt"
	"math"
	"slices"

	"github.com/datamatch/datamatch/internal/profile"
)

// NicheDetails explains a niche-interest score.
type NicheDetails struct {
	MatchingInterests  []string `json:"matchingInterests"`
	MatchingCategories []string `json:"matchingCategories"`
	UserFormat         string   `json:"userFormat,omitempty"`
	MatchFormat        string   `json:"matchFormat,omitempty"`
}

// ScoreNicheInterests compares niche interests. The requester's shape picks
// the method: a flat list is compared like general interests against all of
// the candidate's interests, while categories are scored per category and
// averaged over every category the requester has.
func ScoreNicheInterests(user, candidate *profile.Profile) Dimension[NicheDetails] {
	details := NicheDetails{
		MatchingInterests:  []string{},
		MatchingCategories: []string{},
	}
	if user.NicheInterests.IsEmpty() || candidate.NicheInterests.IsEmpty() {
		return Dimension[NicheDetails]{Details: details}
	}
	details.UserFormat = user.NicheInterests.Shape().String()
	details.MatchFormat = candidate.NicheInterests.Shape().String()

	var score float64
	var reason string

	if user.NicheInterests.Shape() == profile.NicheShapeList {
		shared, ratio := overlap(user.NicheInterests.Flatten(), candidate.NicheInterests.Flatten())
		if len(shared) > 0 {
			details.MatchingInterests = shared
			score = ratio * 100
			reason = plural(len(shared), "Shares 1 niche interest with you", "Shares %d niche interests with you")
		}
	} else {
		score, reason = scoreCategorized(user.NicheInterests.Index(), candidate.NicheInterests.Pairs(), &details)
	}

	return Dimension[NicheDetails]{
		Score:   math.Min(100, math.Round(score)),
		Reason:  reason,
		Details: details,
	}
}

func scoreCategorized(userIdx profile.NicheIndex, pairs []profile.NichePair, details *NicheDetails) (float64, string) {
	matches := make(map[string]int)

	record := func(category, interest string) {
		matches[category]++
		details.MatchingInterests = append(details.MatchingInterests, interest)
		if !slices.Contains(details.MatchingCategories, category) {
			details.MatchingCategories = append(details.MatchingCategories, category)
		}
	}

	for _, p := range pairs {
		if p.Category != "" {
			if set, ok := userIdx.Sets[p.Category]; ok {
				if _, hit := set[p.Interest]; hit {
					record(p.Category, p.Interest)
				}
			}
			continue
		}

		// Uncategorized candidate interests count once, against the first
		// requester category that holds them.
		for _, category := range userIdx.Categories {
			if _, hit := userIdx.Sets[category][p.Interest]; hit {
				record(category, p.Interest)
				break
			}
		}
	}

	if len(matches) == 0 {
		return 0, ""
	}

	var total float64
	for _, category := range details.MatchingCategories {
		if size := len(userIdx.Sets[category]); size > 0 {
			total += float64(matches[category]) / float64(size) * 100
		}
	}
	score := total / float64(len(userIdx.Categories))

	if len(details.MatchingCategories) == 1 {
		return score, fmt.Sprintf("Shares interest in %s with you", details.MatchingCategories[0])
	}
	return score, fmt.Sprintf("Shares interests in %d categories with you", len(details.MatchingCategories))
}
