package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"linkvault/internal/database"
	"linkvault/internal/domain/models"
	"linkvault/internal/domain/repositories"
)

// PostgresSubgroupRepository implements the SubgroupRepository interface
type PostgresSubgroupRepository struct {
	pool   *pgxpool.Pool
	tables *database.TableNames
}

// NewSubgroupRepository creates a new subgroup repository
func NewSubgroupRepository(config *RepositoryConfig) repositories.SubgroupRepository {
	return &PostgresSubgroupRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func (r *PostgresSubgroupRepository) ListByUser(ctx context.Context, userID string) ([]models.Subgroup, error) {
	query := fmt.Sprintf(`
		SELECT id, name, group_id, user_id, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, r.tables.Subgroups)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list subgroups: %w", err)
	}
	defer rows.Close()

	subgroups := []models.Subgroup{}
	for rows.Next() {
		var s models.Subgroup
		if err := rows.Scan(&s.ID, &s.Name, &s.GroupID, &s.UserID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subgroup: %w", err)
		}
		subgroups = append(subgroups, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subgroups: %w", err)
	}

	return subgroups, nil
}

func (r *PostgresSubgroupRepository) Create(ctx context.Context, subgroup *models.Subgroup) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, group_id, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, r.tables.Subgroups)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, subgroup.Name, subgroup.GroupID, subgroup.UserID).
		Scan(&subgroup.ID, &subgroup.CreatedAt)
	if err != nil {
		return wrapWriteError("create subgroup", subgroup.Name, err)
	}
	return nil
}

func (r *PostgresSubgroupRepository) UpdateName(ctx context.Context, id, userID, name string) error {
	return updateName(ctx, r.pool, r.tables.Subgroups, "subgroup", id, userID, name)
}

func (r *PostgresSubgroupRepository) Delete(ctx context.Context, id, userID string) error {
	return deleteRow(ctx, r.pool, r.tables.Subgroups, "subgroup", id, userID)
}
