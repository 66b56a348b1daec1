package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// Profiles are stored as JSONB documents keyed by profile ID.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL profile repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a profile by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Profile, error) {
	query := `
		SELECT document
		FROM profiles
		WHERE profile_id = $1
	`

	var doc []byte
	if err := r.pool.QueryRow(ctx, query, id).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	return decodeDocument(doc)
}

// List returns every stored profile ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]*Profile, error) {
	query := `
		SELECT document
		FROM profiles
		ORDER BY created_at, profile_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		p, err := decodeDocument(doc)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// Create stores a new profile.
func (r *PostgresRepository) Create(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO profiles (profile_id, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`

	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, p.ID, doc, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrProfileExists
		}
		return err
	}
	return nil
}

// Update replaces an existing profile.
func (r *PostgresRepository) Update(ctx context.Context, p *Profile) error {
	query := `
		UPDATE profiles
		SET document = $2, updated_at = $3
		WHERE profile_id = $1
	`

	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	result, err := r.pool.Exec(ctx, query, p.ID, doc, p.UpdatedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// Delete removes a profile.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE profile_id = $1`, id)
	return err
}

func decodeDocument(doc []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
