package suggestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores suggestions in the suggestion_cache table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL suggestion cache.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get returns the cached entry for a member.
func (r *PostgresRepository) Get(ctx context.Context, profileID string) (*Entry, error) {
	query := `
		SELECT profile_id, payload, computed_at
		FROM suggestion_cache
		WHERE profile_id = $1
	`

	var (
		entry   Entry
		payload []byte
	)
	err := r.pool.QueryRow(ctx, query, profileID).Scan(&entry.ProfileID, &payload, &entry.ComputedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotCached
		}
		return nil, err
	}

	if err := json.Unmarshal(payload, &entry.Suggestions); err != nil {
		return nil, fmt.Errorf("decoding suggestions for %s: %w", profileID, err)
	}
	return &entry, nil
}

// Put stores or replaces an entry.
func (r *PostgresRepository) Put(ctx context.Context, entry *Entry) error {
	payload, err := json.Marshal(entry.Suggestions)
	if err != nil {
		return fmt.Errorf("encoding suggestions for %s: %w", entry.ProfileID, err)
	}

	query := `
		INSERT INTO suggestion_cache (profile_id, payload, computed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (profile_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			computed_at = EXCLUDED.computed_at
	`
	_, err = r.pool.Exec(ctx, query, entry.ProfileID, payload, entry.ComputedAt)
	return err
}

// Delete removes an entry.
func (r *PostgresRepository) Delete(ctx context.Context, profileID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM suggestion_cache WHERE profile_id = $1`, profileID)
	return err
}

var _ Repository = (*PostgresRepository)(nil)
