package featureflags

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCacheTTL is how long a loaded snapshot is served.
const DefaultCacheTTL = time.Minute

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
	CacheTTL   time.Duration

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Service evaluates flags from a cached snapshot of the stored overrides
// merged over the defaults.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	ttl    time.Duration
	now    func() time.Time

	mu       sync.Mutex
	snapshot map[string]*Flag
	loadedAt time.Time
}

// NewService creates a new feature flag service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
		ttl:    ttl,
		now:    now,
	}
}

// current returns the snapshot, reloading it once the TTL has passed. A
// failed reload keeps serving the previous snapshot, or the defaults if
// there is none, and is retried after another TTL.
func (s *Service) current(ctx context.Context) map[string]*Flag {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.snapshot != nil && now.Sub(s.loadedAt) < s.ttl {
		return s.snapshot
	}

	stored, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load feature flags, serving last known values")
		if s.snapshot == nil {
			s.snapshot = DefaultFlags()
		}
		s.loadedAt = now
		return s.snapshot
	}

	merged := DefaultFlags()
	for key, f := range stored {
		d, ok := Lookup(key)
		if !ok {
			continue
		}
		value, err := d.Normalize(f.Value)
		if err != nil {
			s.logger.Warn().Err(err).Str("flag", key).Msg("ignoring stored flag")
			continue
		}
		merged[key] = &Flag{Key: key, Value: value, Description: d.Description, UpdatedAt: f.UpdatedAt}
	}
	s.snapshot = merged
	s.loadedAt = now
	return merged
}

// GetFlag returns a flag's current value, or nil for an unknown key.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	f, ok := s.current(ctx)[key]
	if !ok {
		return nil
	}
	out := *f
	return &out
}

// GetAllFlags returns every known flag.
func (s *Service) GetAllFlags(ctx context.Context) map[string]*Flag {
	return maps.Clone(s.current(ctx))
}

// SetFlag stores an override for one flag.
func (s *Service) SetFlag(ctx context.Context, key string, value any) (*Flag, error) {
	flags, err := s.SetFlags(ctx, []FlagUpdate{{Key: key, Value: value}})
	if err != nil {
		return nil, err
	}
	return flags[0], nil
}

// SetFlags validates every update and stores them together. Nothing is
// stored if any update is invalid.
func (s *Service) SetFlags(ctx context.Context, updates []FlagUpdate) ([]*Flag, error) {
	now := s.now().UTC()
	flags := make([]*Flag, 0, len(updates))
	for _, u := range updates {
		d, ok := Lookup(u.Key)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFlag, u.Key)
		}
		value, err := d.Normalize(u.Value)
		if err != nil {
			return nil, err
		}
		flags = append(flags, &Flag{Key: u.Key, Value: value, Description: d.Description, UpdatedAt: now})
	}

	if err := s.repo.Upsert(ctx, flags); err != nil {
		return nil, fmt.Errorf("storing feature flags: %w", err)
	}
	s.InvalidateCache()
	return flags, nil
}

// ResetFlag removes a flag's override so it reverts to its default.
// Resetting a flag that has no override succeeds.
func (s *Service) ResetFlag(ctx context.Context, key string) (*Flag, error) {
	if _, ok := Lookup(key); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlag, key)
	}
	if err := s.repo.Delete(ctx, key); err != nil && !errors.Is(err, ErrFlagNotFound) {
		return nil, fmt.Errorf("resetting %s: %w", key, err)
	}
	s.InvalidateCache()
	return DefaultFlags()[key], nil
}

// InvalidateCache drops the snapshot so the next read reloads it.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
}

// IsEnabled reports whether a boolean flag is on. Unknown keys are off.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	return s.GetFlag(ctx, key).BoolValue(false)
}

// PrioritizeAvailabilityByDefault reports whether searches use the
// availability weights when the request does not choose.
func (s *Service) PrioritizeAvailabilityByDefault(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagPrioritizeAvailability)
}

// IsNicheInterestsDisabled reports whether niche interests are excluded from
// scoring.
func (s *Service) IsNicheInterestsDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableNicheInterests)
}

// SuggestionMinScore returns the overall suggestion threshold.
func (s *Service) SuggestionMinScore(ctx context.Context) int {
	return s.GetFlag(ctx, FlagSuggestionMinScore).IntValue(50)
}

// IsSuggestionCacheDisabled reports whether suggestions must be computed
// live.
func (s *Service) IsSuggestionCacheDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableSuggestionCache)
}

// IsNearbySearchDisabled reports whether the nearby endpoint is off.
func (s *Service) IsNearbySearchDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableNearbySearch)
}
