package match

import (
	"math"
	"sort"
	"strings"

	"github.com/datamatch/datamatch/internal/profile"
)

// NearbyDefaultDistance is the radius in miles for nearby searches when
// neither the call nor the requester sets one.
const NearbyDefaultDistance = 25

// NearbyMatch is a candidate located within the search radius.
type NearbyMatch struct {
	CandidateID   string           `json:"candidateId"`
	Location      profile.Location `json:"location"`
	DistanceMiles float64          `json:"distanceMiles"`

	// Compatibility is the quick interest-based score, 0-100.
	Compatibility int `json:"compatibility"`
}

// Nearby lists candidates within maxDistance miles of the requester,
// closest first. Candidates that hide their location or have none are
// skipped. It fails with ErrNoLocation when the requester has no
// coordinates.
func (e *Engine) Nearby(user *profile.Profile, pool []*profile.Profile, maxDistance float64) ([]NearbyMatch, error) {
	if !user.Location.HasCoordinates() {
		return nil, ErrNoLocation
	}

	if maxDistance <= 0 {
		maxDistance = NearbyDefaultDistance
		if user.Distance > 0 {
			maxDistance = float64(user.Distance)
		}
	}

	matches := []NearbyMatch{}
	for _, c := range pool {
		if c == nil || c.ID == user.ID || !c.Settings.LocationVisible() {
			continue
		}
		d, ok := profileDistance(user, c)
		if !ok || d > maxDistance {
			continue
		}

		loc := *c.Location
		if loc.City == "" {
			loc.City = cityLabel(loc.Address)
		}
		matches = append(matches, NearbyMatch{
			CandidateID:   c.ID,
			Location:      loc,
			DistanceMiles: math.Round(d),
			Compatibility: QuickCompatibility(user, c),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceMiles < matches[j].DistanceMiles
	})
	return matches, nil
}

// QuickCompatibility averages the general-interest and flattened
// niche-interest overlap ratios, counting only those that overlap at all.
func QuickCompatibility(a, b *profile.Profile) int {
	var total float64
	factors := 0

	if _, ratio := overlap(a.Interests, b.Interests); ratio > 0 {
		total += ratio * 100
		factors++
	}
	if _, ratio := overlap(a.NicheInterests.Flatten(), b.NicheInterests.Flatten()); ratio > 0 {
		total += ratio * 100
		factors++
	}

	if factors == 0 {
		return 0
	}
	return int(math.Round(total / float64(factors)))
}

func cityLabel(address string) string {
	city, _, _ := strings.Cut(address, ",")
	return strings.TrimSpace(city)
}
