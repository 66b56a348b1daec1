package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/datamatch/datamatch/internal/profile"
)

// Service errors.
var (
	ErrUnknownCategory = errors.New("unknown search category")
	ErrNearbyDisabled  = errors.New("nearby search is disabled")
)

// ProfileSource loads the requester and the candidate pool.
type ProfileSource interface {
	Get(ctx context.Context, id string) (*profile.Profile, error)
	List(ctx context.Context) ([]*profile.Profile, error)
}

// Toggles are the runtime switches the service consults on every call.
// *featureflags.Service satisfies it.
type Toggles interface {
	PrioritizeAvailabilityByDefault(ctx context.Context) bool
	IsNicheInterestsDisabled(ctx context.Context) bool
	SuggestionMinScore(ctx context.Context) int
	IsNearbySearchDisabled(ctx context.Context) bool
}

// SearchRecorder keeps the requester's free-text search history.
// *profile.Service satisfies it.
type SearchRecorder interface {
	RecordSearch(ctx context.Context, profileID, query, category string) (bool, error)
}

// ServiceConfig holds configuration for the match service.
type ServiceConfig struct {
	Engine   *Engine
	Profiles ProfileSource
	Toggles  Toggles
	Metrics  *Metrics
	Logger   zerolog.Logger

	// History records free-text searches. Optional.
	History SearchRecorder
}

// Service runs the engine against stored profiles.
type Service struct {
	engine   *Engine
	profiles ProfileSource
	toggles  Toggles
	history  SearchRecorder
	metrics  *Metrics
	tracer   trace.Tracer
	logger   zerolog.Logger
}

// NewService creates a new match service. A nil Engine uses DefaultConfig;
// nil Toggles leave every switch at its default.
func NewService(cfg ServiceConfig) *Service {
	engine := cfg.Engine
	if engine == nil {
		engine = NewEngine(DefaultConfig())
	}
	return &Service{
		engine:   engine,
		profiles: cfg.Profiles,
		toggles:  cfg.Toggles,
		history:  cfg.History,
		metrics:  cfg.Metrics,
		tracer:   otel.Tracer(instrumentationName),
		logger:   cfg.Logger,
	}
}

// Engine returns the scoring engine.
func (s *Service) Engine() *Engine {
	return s.engine
}

// Search ranks every stored profile for the requester. Free-text searches
// are added to the requester's history; a failure to record is logged and
// does not fail the search.
func (s *Service) Search(ctx context.Context, userID string, opts Options) (results []Result, err error) {
	if !ValidCategory(opts.Category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, opts.Category)
	}

	ctx, done := s.begin(ctx, "search", userID)
	defer func() { done(len(results), err) }()

	user, pool, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.toggles != nil {
		opts.PrioritizeAvailability = opts.PrioritizeAvailability || s.toggles.PrioritizeAvailabilityByDefault(ctx)
		opts.SkipNicheInterests = opts.SkipNicheInterests || s.toggles.IsNicheInterestsDisabled(ctx)
	}

	results = s.engine.Rank(user, pool, opts)
	s.logger.Debug().
		Str("user_id", userID).
		Str("query", opts.Query).
		Int("pool", len(pool)).
		Int("results", len(results)).
		Msg("search ranked")

	if s.history != nil && opts.Query != "" {
		if _, err := s.history.RecordSearch(ctx, userID, opts.Query, opts.Category); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to record search")
		}
	}
	return results, nil
}

// Suggest builds suggestion lists for the requester.
func (s *Service) Suggest(ctx context.Context, userID string, count int) (out Suggestions, err error) {
	ctx, done := s.begin(ctx, "suggest", userID)
	defer func() { done(out.TotalPotentialMatches, err) }()

	user, pool, err := s.load(ctx, userID)
	if err != nil {
		return Suggestions{}, err
	}

	opts := SuggestOptions{Count: count}
	if s.toggles != nil {
		opts.MinScore = s.toggles.SuggestionMinScore(ctx)
	}
	return s.engine.Suggest(user, pool, opts), nil
}

// Nearby lists candidates near the requester.
func (s *Service) Nearby(ctx context.Context, userID string, maxDistance float64) (matches []NearbyMatch, err error) {
	if s.toggles != nil && s.toggles.IsNearbySearchDisabled(ctx) {
		return nil, ErrNearbyDisabled
	}

	ctx, done := s.begin(ctx, "nearby", userID)
	defer func() { done(len(matches), err) }()

	user, pool, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.engine.Nearby(user, pool, maxDistance)
}

// Compatibility scores a single candidate for the requester.
func (s *Service) Compatibility(ctx context.Context, userID, candidateID string) (Compatibility, error) {
	user, err := s.requester(ctx, userID)
	if err != nil {
		return Compatibility{}, err
	}
	candidate, err := s.profiles.Get(ctx, candidateID)
	if err != nil {
		return Compatibility{}, err
	}

	prioritize, includeNiche := false, true
	if s.toggles != nil {
		prioritize = s.toggles.PrioritizeAvailabilityByDefault(ctx)
		includeNiche = !s.toggles.IsNicheInterestsDisabled(ctx)
	}
	return s.engine.Compatibility(user, candidate, prioritize, includeNiche), nil
}

func (s *Service) requester(ctx context.Context, userID string) (*profile.Profile, error) {
	user, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, profile.ErrProfileNotFound) {
		return nil, ErrMissingUser
	}
	if err != nil {
		return nil, fmt.Errorf("loading requester: %w", err)
	}
	return user, nil
}

func (s *Service) load(ctx context.Context, userID string) (*profile.Profile, []*profile.Profile, error) {
	user, err := s.requester(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	pool, err := s.profiles.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading candidates: %w", err)
	}
	return user, pool, nil
}

// begin starts a span for an operation and returns a func that ends it and
// records metrics.
func (s *Service) begin(ctx context.Context, operation, userID string) (context.Context, func(int, error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "match."+operation,
		trace.WithAttributes(attribute.String("user.id", userID)),
	)

	return ctx, func(returned int, err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("match.returned", returned))
		}
		span.End()
		s.metrics.Record(ctx, operation, returned, time.Since(start), err)
	}
}
