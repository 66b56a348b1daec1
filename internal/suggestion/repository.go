// Package suggestion caches precomputed match suggestions per member.
package suggestion

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/datamatch/datamatch/internal/match"
)

// ErrNotCached is returned when no suggestions are stored for a member.
var ErrNotCached = errors.New("suggestions not cached")

// Entry is one member's cached suggestions.
type Entry struct {
	ProfileID   string            `json:"profileId"`
	Suggestions match.Suggestions `json:"suggestions"`
	ComputedAt  time.Time         `json:"computedAt"`
}

// Repository stores cached suggestions.
type Repository interface {
	Get(ctx context.Context, profileID string) (*Entry, error)
	Put(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, profileID string) error
}

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewInMemoryRepository creates a new in-memory suggestion cache.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{entries: make(map[string]Entry)}
}

// Get returns the cached entry for a member.
func (r *InMemoryRepository) Get(_ context.Context, profileID string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[profileID]
	if !ok {
		return nil, ErrNotCached
	}
	e.Suggestions = e.Suggestions.Truncate(match.MaxSuggestionCount)
	return &e, nil
}

// Put stores or replaces an entry.
func (r *InMemoryRepository) Put(_ context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := *entry
	e.Suggestions = e.Suggestions.Truncate(match.MaxSuggestionCount)
	r.entries[entry.ProfileID] = e
	return nil
}

// Delete removes an entry. Deleting a missing entry is not an error.
func (r *InMemoryRepository) Delete(_ context.Context, profileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, profileID)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
