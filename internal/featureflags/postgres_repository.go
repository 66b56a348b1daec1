package featureflags

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const upsertFlagQuery = `
	INSERT INTO feature_flags (key, value, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET
		value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at
`

// PostgresRepository stores overrides in the feature_flags table with the
// value as jsonb.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL feature flags repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// List returns every stored override.
func (r *PostgresRepository) List(ctx context.Context) (map[string]*Flag, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value, updated_at FROM feature_flags`)
	if err != nil {
		return nil, fmt.Errorf("listing feature flags: %w", err)
	}

	flags, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Flag, error) {
		var (
			flag  Flag
			value []byte
		)
		if err := row.Scan(&flag.Key, &value, &flag.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(value, &flag.Value); err != nil {
			return nil, fmt.Errorf("decoding flag %s: %w", flag.Key, err)
		}
		return &flag, nil
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]*Flag, len(flags))
	for _, f := range flags {
		out[f.Key] = f
	}
	return out, nil
}

// Upsert stores overrides in one batch inside a transaction.
func (r *PostgresRepository) Upsert(ctx context.Context, flags []*Flag) error {
	batch := &pgx.Batch{}
	for _, f := range flags {
		value, err := json.Marshal(f.Value)
		if err != nil {
			return fmt.Errorf("encoding flag %s: %w", f.Key, err)
		}
		batch.Queue(upsertFlagQuery, f.Key, value, f.UpdatedAt)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

// Delete removes an override.
func (r *PostgresRepository) Delete(ctx context.Context, key string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM feature_flags WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("deleting flag %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFlagNotFound
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
