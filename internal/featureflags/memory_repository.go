package featureflags

import (
	"context"
	"sync"
)

// InMemoryRepository keeps overrides in process memory. Flags are copied on
// the way in and out.
type InMemoryRepository struct {
	mu    sync.RWMutex
	flags map[string]Flag
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{flags: make(map[string]Flag)}
}

// List returns every stored override.
func (r *InMemoryRepository) List(_ context.Context) (map[string]*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*Flag, len(r.flags))
	for k, v := range r.flags {
		flag := v
		out[k] = &flag
	}
	return out, nil
}

// Upsert stores overrides.
func (r *InMemoryRepository) Upsert(_ context.Context, flags []*Flag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range flags {
		r.flags[f.Key] = *f
	}
	return nil
}

// Delete removes an override.
func (r *InMemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.flags[key]; !ok {
		return ErrFlagNotFound
	}
	delete(r.flags, key)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
