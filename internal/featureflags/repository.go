package featureflags

import "context"

// Repository stores flag overrides. Keys without a stored override use
// their default.
type Repository interface {
	// List returns every stored override by key.
	List(ctx context.Context) (map[string]*Flag, error)

	// Upsert stores overrides atomically.
	Upsert(ctx context.Context, flags []*Flag) error

	// Delete removes an override. It returns ErrFlagNotFound when none is
	// stored.
	Delete(ctx context.Context, key string) error
}
