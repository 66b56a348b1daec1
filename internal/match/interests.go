package match

import "github.com/datamatch/datamatch/internal/profile"

// InterestDetails explains an interest score.
type InterestDetails struct {
	MatchingInterests   []string `json:"matchingInterests,omitempty"`
	MatchingCount       int      `json:"matchingInterestCount,omitempty"`
	TotalUserInterests  int      `json:"totalUserInterests,omitempty"`
	TotalMatchInterests int      `json:"totalMatchInterests,omitempty"`
}

// ScoreInterests compares general interests case-insensitively.
func ScoreInterests(user, candidate *profile.Profile) Dimension[InterestDetails] {
	shared, ratio := overlap(user.Interests, candidate.Interests)
	if len(shared) == 0 {
		return Dimension[InterestDetails]{}
	}

	return Dimension[InterestDetails]{
		Score:  ratio * 100,
		Reason: plural(len(shared), "Shares 1 common interest with you", "Shares %d common interests with you"),
		Details: InterestDetails{
			MatchingInterests:   shared,
			MatchingCount:       len(shared),
			TotalUserInterests:  len(lowerSet(user.Interests)),
			TotalMatchInterests: len(candidate.Interests),
		},
	}
}
