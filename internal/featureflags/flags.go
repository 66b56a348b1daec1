// Package featureflags holds the runtime switches that tune matching without
// a deploy.
package featureflags

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// Well-known feature flag keys.
const (
	// FlagPrioritizeAvailability makes searches use the availability weight
	// set unless the request says otherwise.
	FlagPrioritizeAvailability = "prioritize_availability"

	// FlagDisableNicheInterests leaves niche interests out of compatibility
	// scoring for every request.
	FlagDisableNicheInterests = "disable_niche_interests"

	// FlagSuggestionMinScore is the composite score a candidate must exceed
	// to be suggested.
	FlagSuggestionMinScore = "suggestion_min_score"

	// FlagDisableSuggestionCache forces suggestions to be computed on
	// every request instead of read from the precomputed cache.
	FlagDisableSuggestionCache = "disable_suggestion_cache"

	// FlagDisableNearbySearch turns off the nearby members endpoint.
	FlagDisableNearbySearch = "disable_nearby_search"
)

// Errors returned when writing flags.
var (
	ErrUnknownFlag  = errors.New("unknown feature flag")
	ErrInvalidValue = errors.New("invalid feature flag value")
	ErrFlagNotFound = errors.New("feature flag not found")
)

// Kind is the value type a flag accepts.
type Kind string

const (
	KindBool  Kind = "bool"
	KindScore Kind = "score" // whole number in [1, 100]
)

// Definition describes a known flag.
type Definition struct {
	Key         string
	Kind        Kind
	Default     any
	Description string
}

var definitions = []Definition{
	{FlagDisableNearbySearch, KindBool, false, "Turn off the nearby members endpoint"},
	{FlagDisableNicheInterests, KindBool, false, "Leave niche interests out of compatibility scores"},
	{FlagDisableSuggestionCache, KindBool, false, "Compute suggestions on every request"},
	{FlagPrioritizeAvailability, KindBool, false, "Use the availability weight set by default"},
	{FlagSuggestionMinScore, KindScore, float64(50), "Composite score a suggestion must exceed"},
}

// Definitions returns every known flag ordered by key.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Lookup finds the definition of a key.
func Lookup(key string) (Definition, bool) {
	for _, d := range definitions {
		if d.Key == key {
			return d, true
		}
	}
	return Definition{}, false
}

// Normalize checks a value against the flag's kind and returns it in its
// stored form. Scores are stored as float64, the type JSON decoding yields.
func (d Definition) Normalize(value any) (any, error) {
	switch d.Kind {
	case KindBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("%w: %s must be true or false", ErrInvalidValue, d.Key)

	case KindScore:
		var f float64
		switch v := value.(type) {
		case float64:
			f = v
		case int:
			f = float64(v)
		default:
			return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidValue, d.Key)
		}
		if f != math.Trunc(f) || f < 1 || f > 100 {
			return nil, fmt.Errorf("%w: %s must be a whole number between 1 and 100", ErrInvalidValue, d.Key)
		}
		return f, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFlag, d.Key)
}

// Flag is a flag's current value. UpdatedAt is zero for defaults that were
// never overridden.
type Flag struct {
	Key         string    `json:"key"`
	Value       any       `json:"value"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// FlagList represents a list of feature flags.
type FlagList struct {
	Items []Flag `json:"items"`
}

// FlagUpdate represents a single flag update request.
type FlagUpdate struct {
	Key   string `json:"key" validate:"required,max=64"`
	Value any    `json:"value"`
}

// FlagUpdateRequest represents a request to update feature flags.
type FlagUpdateRequest struct {
	Updates []FlagUpdate `json:"updates" validate:"required,min=1,max=50,dive"`
	Reason  string       `json:"reason" validate:"max=500"`
}

// BoolValue returns the flag value as a boolean, or defaultValue when the
// flag is nil or not a boolean.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	if v, ok := f.Value.(bool); ok {
		return v
	}
	return defaultValue
}

// IntValue returns the flag value as an integer, or defaultValue when the
// flag is nil or not a number.
func (f *Flag) IntValue(defaultValue int) int {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return defaultValue
	}
}

// DefaultFlags returns every known flag at its default value.
func DefaultFlags() map[string]*Flag {
	out := make(map[string]*Flag, len(definitions))
	for _, d := range definitions {
		out[d.Key] = &Flag{Key: d.Key, Value: d.Default, Description: d.Description}
	}
	return out
}
