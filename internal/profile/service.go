package profile

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/datamatch/datamatch/internal/api/models"
)

// Service errors.
var (
	ErrSlotNotFound = errors.New("availability slot not found")

	// errSkipUpdate aborts an update without storing it.
	errSkipUpdate = errors.New("skip update")
)

// Validation constants.
const (
	MaxNameLength    = 100
	MaxTaglineLength = 140
	MaxBioLength     = 2000
	MaxInterests     = 50
	MinAge           = 18
	MaxAge           = 120
)

// ChangeNotifier is told about every stored profile change.
type ChangeNotifier interface {
	ProfileChanged(ctx context.Context, profileID string) error
}

// ServiceConfig holds configuration for the profile service.
type ServiceConfig struct {
	Repo     Repository
	Notifier ChangeNotifier
	Logger   zerolog.Logger

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Service provides profile operations.
type Service struct {
	repo     Repository
	notifier ChangeNotifier
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates a new profile service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:     cfg.Repo,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		now:      now,
	}
}

// Details are the free-form profile fields a member edits directly.
type Details struct {
	Name           string
	Tagline        string
	Bio            string
	Age            int
	Gender         string
	LookingFor     string
	Interests      []string
	NicheInterests NicheInterests
	Professional   *Professional
}

// LocationUpdate carries a location settings change. Nil fields are left as
// they are.
type LocationUpdate struct {
	Location          *Location
	Distance          *int
	ShowLocation      *bool
	FrequentLocations []FrequentLocation
}

// AvailabilityUpdate carries new availability. When Recurrence is set the
// generated slots are added instead of Slots.
type AvailabilityUpdate struct {
	Slots       []AvailabilitySlot
	Recurrence  *Recurrence
	Preferences *AvailabilityPreferences
}

// Get retrieves a profile by ID.
func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	return s.repo.Get(ctx, id)
}

// List returns every profile.
func (s *Service) List(ctx context.Context) ([]*Profile, error) {
	return s.repo.List(ctx)
}

// Create stores a new profile with a generated ID.
func (s *Service) Create(ctx context.Context, d Details) (*Profile, error) {
	if fieldErrors := validateDetails(d); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := s.now()
	p := &Profile{
		ID:        "usr_" + uuid.New().String()[:22],
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyDetails(p, d)

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.notify(ctx, p.ID)
	return p, nil
}

// UpdateDetails replaces the editable fields of a profile.
func (s *Service) UpdateDetails(ctx context.Context, id string, d Details) (*Profile, error) {
	if fieldErrors := validateDetails(d); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	return s.mutate(ctx, id, func(p *Profile) error {
		applyDetails(p, d)
		return nil
	})
}

// UpdateLocation changes location, distance preference, visibility and
// frequent places.
func (s *Service) UpdateLocation(ctx context.Context, id string, u LocationUpdate) (*Profile, error) {
	var errs []models.FieldError
	if u.Location != nil {
		errs = append(errs, validateCoordinates("location", u.Location.Lat, u.Location.Lng)...)
	}
	for i, fl := range u.FrequentLocations {
		if fl.Lat == 0 && fl.Lng == 0 {
			continue
		}
		errs = append(errs, validateCoordinates("frequentLocations["+strconv.Itoa(i)+"]", fl.Lat, fl.Lng)...)
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return s.mutate(ctx, id, func(p *Profile) error {
		if u.Location != nil {
			loc := *u.Location
			p.Location = &loc
		}
		if len(u.FrequentLocations) > 0 {
			p.FrequentLocations = MergeFrequentLocations(p.FrequentLocations, u.FrequentLocations)
		}
		if u.Distance != nil {
			p.Distance = *u.Distance
			if p.Distance <= 0 {
				p.Distance = DefaultLocationDistance
			}
		}
		if u.ShowLocation != nil {
			v := *u.ShowLocation
			p.Settings.ShowLocation = &v
		}
		return nil
	})
}

// AddAvailability adds one-off or recurring slots and merges preferences.
func (s *Service) AddAvailability(ctx context.Context, id string, u AvailabilityUpdate) (*Profile, error) {
	var added []AvailabilitySlot
	if u.Recurrence != nil {
		slots, errs := ExpandRecurrence(*u.Recurrence)
		if len(errs) > 0 {
			return nil, &ValidationError{Errors: errs}
		}
		added = slots
	} else {
		if errs := ValidateSlots(u.Slots); len(errs) > 0 {
			return nil, &ValidationError{Errors: errs}
		}
		added = u.Slots
	}

	if u.Preferences != nil {
		for _, d := range u.Preferences.PreferredDays {
			if d < 0 || d > 6 {
				return nil, &ValidationError{Errors: []models.FieldError{
					{Field: "preferences.preferredDays", Message: "must contain values between 0 and 6"},
				}}
			}
		}
	}

	return s.mutate(ctx, id, func(p *Profile) error {
		p.Availability = MergeSlots(p.Availability, added)
		p.AvailabilityPreferences = MergePreferences(p.AvailabilityPreferences, u.Preferences)
		return nil
	})
}

// ListAvailability returns the member's slots, optionally only those not yet
// ended.
func (s *Service) ListAvailability(ctx context.Context, id string, futureOnly bool) ([]AvailabilitySlot, *AvailabilityPreferences, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	slots := p.Availability
	if futureOnly {
		slots = UpcomingSlots(slots, s.now())
	}
	return slots, p.AvailabilityPreferences, nil
}

// DeleteAvailabilitySlot removes the slot at index.
func (s *Service) DeleteAvailabilitySlot(ctx context.Context, id string, index int) (*Profile, error) {
	return s.mutate(ctx, id, func(p *Profile) error {
		slots, ok := RemoveSlot(p.Availability, index)
		if !ok {
			return ErrSlotNotFound
		}
		p.Availability = slots
		return nil
	})
}

// AddNicheInterests merges interests into a category, or into the flat list
// when category is empty.
func (s *Service) AddNicheInterests(ctx context.Context, id, category string, interests []string) (*Profile, error) {
	cleaned := make([]string, 0, len(interests))
	for _, i := range interests {
		if t := strings.TrimSpace(i); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return nil, &ValidationError{Errors: []models.FieldError{
			{Field: "interests", Message: "must contain at least one interest"},
		}}
	}

	return s.mutate(ctx, id, func(p *Profile) error {
		p.NicheInterests = p.NicheInterests.Merge(strings.TrimSpace(category), cleaned)
		return nil
	})
}

// RecordSearch appends a free-text search to the member's history. It
// reports false without storing anything when the query is blank or the
// member has turned history off. Search history does not affect matching,
// so no change event is published.
func (s *Service) RecordSearch(ctx context.Context, id, query, category string) (bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return false, nil
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = DefaultSearchCategory
	}

	_, err := s.update(ctx, id, false, func(p *Profile) error {
		if !p.Settings.SearchHistoryEnabled() {
			return errSkipUpdate
		}
		p.SearchHistory = AppendSearch(p.SearchHistory, SearchRecord{
			Query:     query,
			Category:  category,
			Timestamp: s.now().UTC(),
		})
		return nil
	})
	switch {
	case errors.Is(err, errSkipUpdate):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// SearchHistory returns the member's searches, oldest first, with analytics.
func (s *Service) SearchHistory(ctx context.Context, id string) ([]SearchRecord, SearchAnalytics, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, SearchAnalytics{}, err
	}

	history := p.SearchHistory
	if history == nil {
		history = []SearchRecord{}
	}
	return history, AnalyzeSearches(history, s.now()), nil
}

// ClearSearchHistory removes every recorded search.
func (s *Service) ClearSearchHistory(ctx context.Context, id string) error {
	_, err := s.update(ctx, id, false, func(p *Profile) error {
		p.SearchHistory = nil
		return nil
	})
	return err
}

// SetSearchHistorySaving turns search recording on or off. Existing history
// is kept either way.
func (s *Service) SetSearchHistorySaving(ctx context.Context, id string, enabled bool) (*Profile, error) {
	return s.update(ctx, id, false, func(p *Profile) error {
		p.Settings.SaveSearchHistory = &enabled
		return nil
	})
}

// mutate loads a profile, applies fn to a copy, stores the result and
// publishes a change event.
func (s *Service) mutate(ctx context.Context, id string, fn func(p *Profile) error) (*Profile, error) {
	return s.update(ctx, id, true, fn)
}

func (s *Service) update(ctx context.Context, id string, notify bool, fn func(p *Profile) error) (*Profile, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	if notify {
		s.notify(ctx, p.ID)
	}
	return p, nil
}

func (s *Service) notify(ctx context.Context, id string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.ProfileChanged(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("profile_id", id).Msg("failed to publish profile change")
	}
}

// Completion returns the profile completion percentage. Eight basic fields
// make up 80% and four bonus fields the remaining 20%.
func Completion(p *Profile) int {
	basic := 0
	for _, ok := range []bool{
		p.Name != "",
		p.Tagline != "",
		p.Age > 0,
		p.Gender != "",
		p.Bio != "",
		len(p.Interests) > 0,
		p.LookingFor != "",
		!p.NicheInterests.IsEmpty(),
	} {
		if ok {
			basic++
		}
	}

	bonus := 0
	for _, ok := range []bool{
		p.HasLinkedIn(),
		p.Professional != nil && len(p.Professional.Education) > 0,
		p.Location.HasCoordinates(),
		len(p.Availability) > 0,
	} {
		if ok {
			bonus++
		}
	}

	base := int(math.Round(float64(basic) / 8 * 80))
	extra := int(math.Round(float64(bonus) / 4 * 20))
	return min(100, base+extra)
}

func applyDetails(p *Profile, d Details) {
	p.Name = strings.TrimSpace(d.Name)
	p.Tagline = strings.TrimSpace(d.Tagline)
	p.Bio = d.Bio
	p.Age = d.Age
	p.Gender = d.Gender
	p.LookingFor = d.LookingFor
	p.Interests = cloneStrings(d.Interests)
	p.NicheInterests = d.NicheInterests.clone()
	p.Professional = d.Professional.clone()
}

func validateDetails(d Details) []models.FieldError {
	var errs []models.FieldError

	if len(d.Name) > MaxNameLength {
		errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 100 characters"})
	}
	if len(d.Tagline) > MaxTaglineLength {
		errs = append(errs, models.FieldError{Field: "tagline", Message: "must be at most 140 characters"})
	}
	if len(d.Bio) > MaxBioLength {
		errs = append(errs, models.FieldError{Field: "bio", Message: "must be at most 2000 characters"})
	}
	if d.Age != 0 && (d.Age < MinAge || d.Age > MaxAge) {
		errs = append(errs, models.FieldError{Field: "age", Message: "must be between 18 and 120"})
	}
	if len(d.Interests) > MaxInterests {
		errs = append(errs, models.FieldError{Field: "interests", Message: "must contain at most 50 entries"})
	}

	return errs
}

func validateCoordinates(field string, lat, lng float64) []models.FieldError {
	var errs []models.FieldError
	if lat < -90 || lat > 90 {
		errs = append(errs, models.FieldError{Field: field + ".lat", Message: "must be between -90 and 90"})
	}
	if lng < -180 || lng > 180 {
		errs = append(errs, models.FieldError{Field: field + ".lng", Message: "must be between -180 and 180"})
	}
	return errs
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
