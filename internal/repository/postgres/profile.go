package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"linkvault/internal/database"
	"linkvault/internal/domain"
	"linkvault/internal/domain/models"
	"linkvault/internal/domain/repositories"
)

// PostgresProfileRepository implements the ProfileRepository interface
type PostgresProfileRepository struct {
	pool   *pgxpool.Pool
	tables *database.TableNames
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(config *RepositoryConfig) repositories.ProfileRepository {
	return &PostgresProfileRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// GetByID retrieves a profile by user ID
func (r *PostgresProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := fmt.Sprintf(`
		SELECT id, email, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Profiles)

	var p models.Profile
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id).Scan(&p.ID, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &p, nil
}

// Upsert creates or refreshes the profile row. Used by the seeder, since the
// request path never writes profiles.
func (r *PostgresProfileRepository) Upsert(ctx context.Context, p *models.Profile) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, email)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, updated_at = now()
		RETURNING created_at, updated_at
	`, r.tables.Profiles)

	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, p.ID, p.Email).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
