package match

import (
	"fmt"
	"strings"

	"github.com/datamatch/datamatch/internal/profile"
)

// Query categories.
const (
	CategoryGeneral    = "general"
	CategoryInterests  = "interests"
	CategoryProfession = "profession"
	CategoryLocation   = "location"
)

// Query points.
const (
	queryInterestPoints      = 10
	queryNichePoints         = 12
	queryExperiencePoints    = 15
	querySkillPoints         = 5
	queryAddressPoints       = 20
	queryFrequentPlacePoints = 8
	queryNamePoints          = 5
	queryBioPoints           = 10
)

// QueryMatch records where a free-text query hit a candidate.
type QueryMatch struct {
	Score int `json:"score"`

	MatchedInterests         []string `json:"matchedInterests,omitempty"`
	MatchedNicheInterests    []string `json:"matchedNicheInterests,omitempty"`
	MatchedProfessional      string   `json:"matchedProfessional,omitempty"`
	MatchedSkills            []string `json:"matchedSkills,omitempty"`
	MatchedLocation          string   `json:"matchedLocation,omitempty"`
	MatchedFrequentLocations []string `json:"matchedFrequentLocations,omitempty"`
	MatchedName              bool     `json:"matchedName,omitempty"`
	MatchedBio               bool     `json:"matchedBio,omitempty"`
}

// ValidCategory reports whether c is a known query category. The empty
// string is accepted and means general.
func ValidCategory(c string) bool {
	switch c {
	case "", CategoryGeneral, CategoryInterests, CategoryProfession, CategoryLocation:
		return true
	}
	return false
}

// ScoreQuery matches a free-text query against a candidate's fields with
// case-insensitive substring search. The category limits which field groups
// are searched; name and bio are always searched. The score is not clamped.
func ScoreQuery(candidate *profile.Profile, query, category string) QueryMatch {
	term := strings.ToLower(query)
	if category == "" {
		category = CategoryGeneral
	}
	in := func(c string) bool { return category == c || category == CategoryGeneral }

	var m QueryMatch
	if term == "" {
		return m
	}

	if in(CategoryInterests) {
		if hits := containing(candidate.Interests, term); len(hits) > 0 {
			m.Score += len(hits) * queryInterestPoints
			m.MatchedInterests = hits
		}
		if hits := containing(candidate.NicheInterests.Flatten(), term); len(hits) > 0 {
			m.Score += len(hits) * queryNichePoints
			m.MatchedNicheInterests = hits
		}
	}

	if in(CategoryProfession) && candidate.Professional != nil {
		for _, e := range candidate.Professional.Experience {
			if e.Title == "" || e.Company == "" {
				continue
			}
			if strings.Contains(strings.ToLower(e.Title), term) || strings.Contains(strings.ToLower(e.Company), term) {
				m.Score += queryExperiencePoints
				m.MatchedProfessional = fmt.Sprintf("Works as %s at %s", e.Title, e.Company)
				break
			}
		}

		if hits := containing(candidate.Professional.Skills, term); len(hits) > 0 {
			m.Score += len(hits) * querySkillPoints
			if m.MatchedProfessional == "" {
				m.MatchedProfessional = "Has skills in " + strings.Join(hits, ", ")
			}
			m.MatchedSkills = hits
		}
	}

	if in(CategoryLocation) {
		if candidate.Location != nil && candidate.Location.Address != "" &&
			strings.Contains(strings.ToLower(candidate.Location.Address), term) {
			m.Score += queryAddressPoints
			m.MatchedLocation = "Located in " + candidate.Location.Address
		}

		var places []string
		for _, fl := range candidate.FrequentLocations {
			if (fl.Name != "" && strings.Contains(strings.ToLower(fl.Name), term)) ||
				(fl.Address != "" && strings.Contains(strings.ToLower(fl.Address), term)) {
				places = append(places, fl.Name)
			}
		}
		if len(places) > 0 {
			m.Score += len(places) * queryFrequentPlacePoints
			if m.MatchedLocation == "" {
				m.MatchedLocation = "Frequently visits " + places[0]
			}
			m.MatchedFrequentLocations = places
		}
	}

	if candidate.Name != "" && strings.Contains(strings.ToLower(candidate.Name), term) {
		m.Score += queryNamePoints
		m.MatchedName = true
	}
	if candidate.Bio != "" && strings.Contains(strings.ToLower(candidate.Bio), term) {
		m.Score += queryBioPoints
		m.MatchedBio = true
	}

	return m
}

// Reason explains the match, preferring interests, then work, then place,
// then niche interests.
func (m QueryMatch) Reason(query string) string {
	switch {
	case m.Score <= 0:
		return ""
	case len(m.MatchedInterests) > 0:
		return "Shares interests in: " + joinFirst(m.MatchedInterests, 3, true)
	case m.MatchedProfessional != "":
		return m.MatchedProfessional
	case m.MatchedLocation != "":
		return m.MatchedLocation
	case len(m.MatchedNicheInterests) > 0:
		return "Shares niche interests in: " + joinFirst(m.MatchedNicheInterests, 3, true)
	default:
		return fmt.Sprintf("Matched your search for %q", query)
	}
}

func containing(values []string, term string) []string {
	var hits []string
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), term) {
			hits = append(hits, v)
		}
	}
	return hits
}
