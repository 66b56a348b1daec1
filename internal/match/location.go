package match

import (
	"fmt"
	"math"

	"github.com/datamatch/datamatch/internal/profile"
)

// Location scoring constants.
const (
	// DefaultMaxDistance is the match radius in miles when neither the call
	// nor the requester sets one.
	DefaultMaxDistance = 50

	sameCityScore         = 80
	sharedPlaceBonus      = 5
	sharedPlaceRadiusMile = 1
)

// SharedPlace is a pair of frequent locations within a mile of each other.
type SharedPlace struct {
	UserLocation  string  `json:"userLocation"`
	MatchLocation string  `json:"matchLocation"`
	Distance      float64 `json:"distance"`
}

// LocationDetails explains a location score.
type LocationDetails struct {
	DistanceMiles   *float64      `json:"distanceMiles,omitempty"`
	SharedLocations []SharedPlace `json:"sharedLocations,omitempty"`
	SameCity        bool          `json:"sameCity,omitempty"`
	City            string        `json:"city,omitempty"`
}

// ScoreLocation scores physical proximity.
//
// With coordinates on both sides the score falls linearly from 100 at the
// same spot to 0 at the requester's max distance (defaultMax when the
// requester has none). Frequent places within a mile of each other add 5
// each. Without coordinates, a matching city scores a flat 80.
func ScoreLocation(user, candidate *profile.Profile, defaultMax float64) Dimension[LocationDetails] {
	var details LocationDetails
	if user.Location == nil || candidate.Location == nil {
		return Dimension[LocationDetails]{Details: details}
	}

	distance, ok := profileDistance(user, candidate)
	if !ok {
		return scoreCity(user.Location, candidate.Location)
	}

	rounded := math.Round(distance)
	details.DistanceMiles = &rounded

	maxDistance := defaultMax
	if user.Distance > 0 {
		maxDistance = float64(user.Distance)
	}

	var score float64
	var reason string
	if distance <= maxDistance {
		score = 100 * (1 - distance/maxDistance)
		if distance < 1 {
			reason = "Less than a mile away from you"
		} else {
			reason = fmt.Sprintf("%d miles away from you", int(rounded))
		}
	}

	shared := sharedPlaces(user.FrequentLocations, candidate.FrequentLocations)
	if len(shared) > 0 {
		score = math.Min(100, score+float64(len(shared)*sharedPlaceBonus))
		details.SharedLocations = shared
		if reason == "" {
			reason = "Frequents the same places as you"
		}
	}

	return Dimension[LocationDetails]{Score: score, Reason: reason, Details: details}
}

func scoreCity(user, candidate *profile.Location) Dimension[LocationDetails] {
	userCity := user.CityName()
	if userCity == "" || userCity != candidate.CityName() {
		return Dimension[LocationDetails]{}
	}

	return Dimension[LocationDetails]{
		Score:  sameCityScore,
		Reason: fmt.Sprintf("Lives in the same city as you (%s)", userCity),
		Details: LocationDetails{
			SameCity: true,
			City:     userCity,
		},
	}
}

func sharedPlaces(user, candidate []profile.FrequentLocation) []SharedPlace {
	var shared []SharedPlace
	for _, u := range user {
		if u.Lat == 0 || u.Lng == 0 {
			continue
		}
		for _, c := range candidate {
			if c.Lat == 0 || c.Lng == 0 {
				continue
			}
			d := DistanceMiles(u.Lat, u.Lng, c.Lat, c.Lng)
			if d < sharedPlaceRadiusMile {
				shared = append(shared, SharedPlace{
					UserLocation:  u.Name,
					MatchLocation: c.Name,
					Distance:      d,
				})
			}
		}
	}
	return shared
}
