package match

import (
	"errors"
	"fmt"
	"time"
)

// Engine errors.
var (
	ErrMissingUser = errors.New("requesting user has no profile")
	ErrNoLocation  = errors.New("requesting user has no location set")
)

// Config is the immutable configuration of an Engine.
type Config struct {
	// Weights apply by default; AvailabilityWeights when a call asks to
	// prioritize availability.
	Weights             Weights
	AvailabilityWeights Weights

	// DefaultMaxDistance is the match radius in miles when neither the
	// call nor the requester sets one.
	DefaultMaxDistance float64

	// Clock returns the current time; it decides which availability slots
	// are upcoming. Defaults to time.Now.
	Clock func() time.Time
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		Weights:             DefaultWeights,
		AvailabilityWeights: AvailabilityWeights,
		DefaultMaxDistance:  DefaultMaxDistance,
		Clock:               time.Now,
	}
}

// Validate checks the weights and distance.
func (c Config) Validate() error {
	for name, w := range map[string]Weights{"weights": c.Weights, "availability weights": c.AvailabilityWeights} {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.DefaultMaxDistance < 0 {
		return errors.New("default max distance must not be negative")
	}
	return nil
}

// Validate checks that no weight is negative and at least one is positive.
func (w Weights) Validate() error {
	all := []float64{w.Interests, w.Professional, w.Location, w.Availability, w.NicheInterests}
	var total float64
	for _, v := range all {
		if v < 0 {
			return errors.New("weights must not be negative")
		}
		total += v
	}
	if total == 0 {
		return errors.New("at least one weight must be positive")
	}
	return nil
}

// Engine scores and ranks candidates. It holds no mutable state.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine. Zero-valued fields fall back to
// DefaultConfig.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.Weights == (Weights{}) {
		cfg.Weights = def.Weights
	}
	if cfg.AvailabilityWeights == (Weights{}) {
		cfg.AvailabilityWeights = def.AvailabilityWeights
	}
	if cfg.DefaultMaxDistance <= 0 {
		cfg.DefaultMaxDistance = def.DefaultMaxDistance
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	return &Engine{cfg: cfg}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) compositeOptions(prioritizeAvailability, includeNiche bool) CompositeOptions {
	w := e.cfg.Weights
	if prioritizeAvailability {
		w = e.cfg.AvailabilityWeights
	}
	return CompositeOptions{
		Weights:               w,
		IncludeNicheInterests: includeNiche,
		DefaultMaxDistance:    e.cfg.DefaultMaxDistance,
		Today:                 e.cfg.Clock(),
	}
}
