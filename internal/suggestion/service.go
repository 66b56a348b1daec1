package suggestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/datamatch/datamatch/internal/match"
)

// DefaultTTL is how long cached suggestions are served before they are
// recomputed on read.
const DefaultTTL = 6 * time.Hour

// Matcher computes fresh suggestions. *match.Service satisfies it.
type Matcher interface {
	Suggest(ctx context.Context, userID string, count int) (match.Suggestions, error)
}

// CacheToggle reports whether the cache is bypassed.
// *featureflags.Service satisfies it.
type CacheToggle interface {
	IsSuggestionCacheDisabled(ctx context.Context) bool
}

// ServiceConfig holds configuration for the suggestion service.
type ServiceConfig struct {
	Matcher Matcher
	Repo    Repository
	Toggle  CacheToggle
	TTL     time.Duration
	Logger  zerolog.Logger

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Service serves suggestions from the cache and keeps it fresh.
type Service struct {
	matcher Matcher
	repo    Repository
	toggle  CacheToggle
	ttl     time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

// NewService creates a new suggestion service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		matcher: cfg.Matcher,
		repo:    cfg.Repo,
		toggle:  cfg.Toggle,
		ttl:     ttl,
		logger:  cfg.Logger,
		now:     now,
	}
}

// Get returns up to count suggestions per list. A fresh cache entry is
// served as is; otherwise suggestions are recomputed and stored.
func (s *Service) Get(ctx context.Context, userID string, count int) (match.Suggestions, error) {
	count = match.ClampCount(count)

	if s.toggle != nil && s.toggle.IsSuggestionCacheDisabled(ctx) {
		return s.matcher.Suggest(ctx, userID, count)
	}

	entry, err := s.repo.Get(ctx, userID)
	switch {
	case err == nil && s.now().Sub(entry.ComputedAt) < s.ttl:
		return entry.Suggestions.Truncate(count), nil
	case err != nil && !errors.Is(err, ErrNotCached):
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to read suggestion cache")
	}

	entry, err = s.Refresh(ctx, userID)
	if err != nil {
		return match.Suggestions{}, err
	}
	return entry.Suggestions.Truncate(count), nil
}

// Refresh recomputes the full suggestion lists for a member and stores them.
// A failed write is logged and the fresh entry still returned.
func (s *Service) Refresh(ctx context.Context, userID string) (*Entry, error) {
	suggestions, err := s.matcher.Suggest(ctx, userID, match.MaxSuggestionCount)
	if err != nil {
		return nil, fmt.Errorf("computing suggestions for %s: %w", userID, err)
	}

	entry := &Entry{
		ProfileID:   userID,
		Suggestions: suggestions,
		ComputedAt:  s.now(),
	}
	if err := s.repo.Put(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to store suggestions")
	}
	return entry, nil
}

// Invalidate drops a member's cached suggestions.
func (s *Service) Invalidate(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID)
}

// ProfileChanged drops the changed member's cached suggestions, so the
// service can be registered as a profile change notifier.
func (s *Service) ProfileChanged(ctx context.Context, profileID string) error {
	return s.Invalidate(ctx, profileID)
}
