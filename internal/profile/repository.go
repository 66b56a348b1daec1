package profile

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Repository errors.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
)

// Repository defines the interface for profile persistence.
type Repository interface {
	// Get retrieves a profile by ID.
	Get(ctx context.Context, id string) (*Profile, error)

	// List returns every stored profile ordered by creation time.
	// The result is a snapshot; callers may use it without further locking.
	List(ctx context.Context) ([]*Profile, error)

	// Create stores a new profile.
	Create(ctx context.Context, p *Profile) error

	// Update replaces an existing profile.
	Update(ctx context.Context, p *Profile) error

	// Delete removes a profile.
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository is an in-memory implementation of Repository.
// Used by tests, the CLI and single-process development setups.
type InMemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewInMemoryRepository creates a new in-memory profile repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		profiles: make(map[string]*Profile),
	}
}

// Get retrieves a profile by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p.Clone(), nil
}

// List returns all profiles ordered by creation time, then ID.
func (r *InMemoryRepository) List(_ context.Context) ([]*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Create stores a new profile.
func (r *InMemoryRepository) Create(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[p.ID]; ok {
		return ErrProfileExists
	}
	r.profiles[p.ID] = p.Clone()
	return nil
}

// Update replaces an existing profile.
func (r *InMemoryRepository) Update(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[p.ID]; !ok {
		return ErrProfileNotFound
	}
	r.profiles[p.ID] = p.Clone()
	return nil
}

// Delete removes a profile.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.profiles, id)
	return nil
}
