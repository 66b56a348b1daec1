// Package profile holds member profiles and the operations that maintain them.
//
// A profile carries everything the matching engine compares: interests,
// niche interests, professional history, location, frequent places and
// availability. The engine treats profiles as read-only snapshots; every
// mutation in this package goes through Service and produces a new value
// before it is stored.
package profile

import (
	"strings"
	"time"
)

// MaxFrequentLocations bounds the frequent-locations list. The oldest entry
// is evicted first when the bound is exceeded.
const MaxFrequentLocations = 10

// DefaultLocationDistance is the distance preference stored when a location
// update does not carry one.
const DefaultLocationDistance = 25

// Profile is a member profile.
type Profile struct {
	// ID is the unique profile identifier (format: usr_XXXX).
	ID string `json:"id"`

	Name    string `json:"name,omitempty"`
	Tagline string `json:"tagline,omitempty"`
	Bio     string `json:"bio,omitempty"`
	Age     int    `json:"age,omitempty"`
	Gender  string `json:"gender,omitempty"`

	// LookingFor is the gender or relationship kind the member is looking for.
	LookingFor string `json:"lookingFor,omitempty"`

	Interests      []string       `json:"interests,omitempty"`
	NicheInterests NicheInterests `json:"nicheInterests,omitzero"`

	Professional *Professional `json:"professional,omitempty"`

	Location          *Location          `json:"location,omitempty"`
	FrequentLocations []FrequentLocation `json:"frequentLocations,omitempty"`

	Availability            []AvailabilitySlot       `json:"availability,omitempty"`
	AvailabilityPreferences *AvailabilityPreferences `json:"availabilityPreferences,omitempty"`

	// Distance is the maximum match distance in miles. Zero means unset.
	Distance int `json:"distance,omitempty"`

	Settings Settings `json:"settings,omitzero"`

	// SearchHistory holds the newest MaxSearchHistory free-text searches.
	SearchHistory []SearchRecord `json:"searchHistory,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Settings holds member privacy settings.
type Settings struct {
	// ShowLocation controls whether the member appears in nearby searches.
	// Nil means shown.
	ShowLocation *bool `json:"showLocation,omitempty"`

	// SaveSearchHistory controls whether searches are recorded. Nil means
	// recorded.
	SaveSearchHistory *bool `json:"saveSearchHistory,omitempty"`
}

// LocationVisible reports whether the member allows nearby searches to list them.
func (s Settings) LocationVisible() bool {
	return s.ShowLocation == nil || *s.ShowLocation
}

// SearchHistoryEnabled reports whether the member's searches are recorded.
func (s Settings) SearchHistoryEnabled() bool {
	return s.SaveSearchHistory == nil || *s.SaveSearchHistory
}

// Professional is the member's work and education history.
type Professional struct {
	Skills     []string     `json:"skills,omitempty"`
	Experience []Experience `json:"experience,omitempty"`
	Education  []Education  `json:"education,omitempty"`
}

// Experience is a single position.
type Experience struct {
	Title     string `json:"title"`
	Company   string `json:"company"`
	Location  string `json:"location,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// Education is a single school record.
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
}

// Location is the member's home location.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
	City    string  `json:"city,omitempty"`
}

// HasCoordinates reports whether both coordinates are set.
// A zero latitude or longitude counts as unset.
func (l *Location) HasCoordinates() bool {
	return l != nil && l.Lat != 0 && l.Lng != 0
}

// CityName returns the lowercased city, derived from the first comma
// separated segment of the address when City is empty.
func (l *Location) CityName() string {
	if l == nil {
		return ""
	}
	city := l.City
	if city == "" {
		city, _, _ = strings.Cut(l.Address, ",")
	}
	return strings.ToLower(strings.TrimSpace(city))
}

// FrequentLocation is a place the member visits often.
type FrequentLocation struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Name    string  `json:"name"`
	Address string  `json:"address,omitempty"`
}

// AvailabilitySlot is a window of free time on a calendar date.
type AvailabilitySlot struct {
	// Date is an ISO date (YYYY-MM-DD).
	Date string `json:"date"`

	// StartTime and EndTime are HH:MM in 24h format.
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`

	Recurring bool `json:"recurring,omitempty"`
}

// Key identifies a slot for deduplication.
func (s AvailabilitySlot) Key() string {
	return s.Date + "-" + s.StartTime + "-" + s.EndTime
}

// AvailabilityPreferences are the member's general scheduling preferences.
type AvailabilityPreferences struct {
	// PreferredDays are weekdays, 0 is Sunday.
	PreferredDays []int `json:"preferredDays,omitempty"`

	// PreferredTimeOfDay is a free-form label such as "evening".
	PreferredTimeOfDay string `json:"preferredTimeOfDay,omitempty"`
}

// HasLinkedIn reports whether the member has imported work experience.
func (p *Profile) HasLinkedIn() bool {
	return p.Professional != nil && len(p.Professional.Experience) > 0
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}

	c := *p
	c.Interests = cloneStrings(p.Interests)
	c.NicheInterests = p.NicheInterests.clone()

	c.Professional = p.Professional.clone()

	if p.Location != nil {
		loc := *p.Location
		c.Location = &loc
	}
	if p.FrequentLocations != nil {
		c.FrequentLocations = append([]FrequentLocation(nil), p.FrequentLocations...)
	}
	if p.Availability != nil {
		c.Availability = append([]AvailabilitySlot(nil), p.Availability...)
	}
	if p.AvailabilityPreferences != nil {
		prefs := AvailabilityPreferences{
			PreferredDays:      append([]int(nil), p.AvailabilityPreferences.PreferredDays...),
			PreferredTimeOfDay: p.AvailabilityPreferences.PreferredTimeOfDay,
		}
		c.AvailabilityPreferences = &prefs
	}
	if p.Settings.ShowLocation != nil {
		v := *p.Settings.ShowLocation
		c.Settings.ShowLocation = &v
	}
	if p.Settings.SaveSearchHistory != nil {
		v := *p.Settings.SaveSearchHistory
		c.Settings.SaveSearchHistory = &v
	}
	if p.SearchHistory != nil {
		c.SearchHistory = append([]SearchRecord(nil), p.SearchHistory...)
	}

	return &c
}

func (p *Professional) clone() *Professional {
	if p == nil {
		return nil
	}
	c := Professional{Skills: cloneStrings(p.Skills)}
	if p.Experience != nil {
		c.Experience = append([]Experience(nil), p.Experience...)
	}
	if p.Education != nil {
		c.Education = append([]Education(nil), p.Education...)
	}
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
