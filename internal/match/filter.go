package match

import "github.com/datamatch/datamatch/internal/profile"

// AnyValue disables the gender and looking-for filters.
const AnyValue = "any"

// Filter narrows the candidate pool before scoring. Zero values impose no
// constraint.
type Filter struct {
	MinAge     *int   `json:"minAge,omitempty"`
	MaxAge     *int   `json:"maxAge,omitempty"`
	Gender     string `json:"gender,omitempty"`
	LookingFor string `json:"lookingFor,omitempty"`

	HasLinkedIn       bool `json:"hasLinkedIn,omitempty"`
	HasLocation       bool `json:"hasLocation,omitempty"`
	HasAvailability   bool `json:"hasAvailability,omitempty"`
	HasNicheInterests bool `json:"hasNicheInterests,omitempty"`
}

// Passes reports whether the candidate satisfies every set condition. A
// candidate without an age is not held to the age bounds.
func (f Filter) Passes(c *profile.Profile) bool {
	if c.Age > 0 {
		if f.MinAge != nil && c.Age < *f.MinAge {
			return false
		}
		if f.MaxAge != nil && c.Age > *f.MaxAge {
			return false
		}
	}
	if f.Gender != "" && f.Gender != AnyValue && c.Gender != f.Gender {
		return false
	}
	if f.LookingFor != "" && f.LookingFor != AnyValue && c.LookingFor != f.LookingFor {
		return false
	}
	if f.HasLinkedIn && !c.HasLinkedIn() {
		return false
	}
	if f.HasLocation && !c.Location.HasCoordinates() {
		return false
	}
	if f.HasAvailability && len(c.Availability) == 0 {
		return false
	}
	if f.HasNicheInterests && c.NicheInterests.IsEmpty() {
		return false
	}
	return true
}
