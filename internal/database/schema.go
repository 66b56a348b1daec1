package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer runs a statement. *pgxpool.Pool satisfies it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// schema creates the tables the repositories use. Every statement is
// idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		profile_id TEXT PRIMARY KEY,
		document   JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS profiles_created_at_idx ON profiles (created_at, profile_id)`,
	`CREATE TABLE IF NOT EXISTS feature_flags (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS suggestion_cache (
		profile_id  TEXT PRIMARY KEY REFERENCES profiles (profile_id) ON DELETE CASCADE,
		payload     JSONB NOT NULL,
		computed_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates any missing tables and indexes.
func EnsureSchema(ctx context.Context, db Execer) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
