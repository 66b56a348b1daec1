package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/datamatch/datamatch/internal/match"
	"github.com/datamatch/datamatch/internal/profile"
)

// loadProfiles reads a JSON array of profiles into a fresh repository.
func loadProfiles(ctx context.Context, path string) (*profile.InMemoryRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiles: %w", err)
	}

	var profiles []*profile.Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parsing profiles %s: %w", path, err)
	}

	repo := profile.NewInMemoryRepository()
	for i, p := range profiles {
		if p == nil || p.ID == "" {
			return nil, fmt.Errorf("profile %d in %s has no id", i, path)
		}
		if err := repo.Create(ctx, p); err != nil {
			if errors.Is(err, profile.ErrProfileExists) {
				return nil, fmt.Errorf("duplicate profile id %q in %s", p.ID, path)
			}
			return nil, err
		}
	}
	return repo, nil
}

// weightsFile is the TOML layout of a --weights file. Keys left out keep
// their defaults.
type weightsFile struct {
	DefaultMaxDistance  float64       `toml:"default_max_distance"`
	Weights             match.Weights `toml:"weights"`
	AvailabilityWeights match.Weights `toml:"availability_weights"`
}

// loadEngineConfig returns the default engine configuration, overridden by
// the weights file when path is set.
func loadEngineConfig(path string) (match.Config, error) {
	cfg := match.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return match.Config{}, fmt.Errorf("opening weights: %w", err)
	}
	defer f.Close()

	wf := weightsFile{
		DefaultMaxDistance:  cfg.DefaultMaxDistance,
		Weights:             cfg.Weights,
		AvailabilityWeights: cfg.AvailabilityWeights,
	}
	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wf); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return match.Config{}, fmt.Errorf("weights %s: %s", path, strict.String())
		}
		return match.Config{}, fmt.Errorf("parsing weights %s: %w", path, err)
	}

	cfg.DefaultMaxDistance = wf.DefaultMaxDistance
	cfg.Weights = wf.Weights
	cfg.AvailabilityWeights = wf.AvailabilityWeights
	if err := cfg.Validate(); err != nil {
		return match.Config{}, fmt.Errorf("weights %s: %w", path, err)
	}
	return cfg, nil
}
