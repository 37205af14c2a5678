package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"linkvault/internal/database"
	"linkvault/internal/domain/models"
	"linkvault/internal/domain/repositories"
)

// PostgresGroupRepository implements the GroupRepository interface
type PostgresGroupRepository struct {
	pool   *pgxpool.Pool
	tables *database.TableNames
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(config *RepositoryConfig) repositories.GroupRepository {
	return &PostgresGroupRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// ListByUser returns the user's groups in creation order
func (r *PostgresGroupRepository) ListByUser(ctx context.Context, userID string) ([]models.Group, error) {
	query := fmt.Sprintf(`
		SELECT id, name, user_id, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, r.tables.Groups)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.UserID, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	return groups, nil
}

// Create inserts a group and fills in its generated fields
func (r *PostgresGroupRepository) Create(ctx context.Context, group *models.Group) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, user_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, r.tables.Groups)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, group.Name, group.UserID).
		Scan(&group.ID, &group.CreatedAt)
	if err != nil {
		return wrapWriteError("create group", group.Name, err)
	}
	return nil
}

// UpdateName renames a group
func (r *PostgresGroupRepository) UpdateName(ctx context.Context, id, userID, name string) error {
	return updateName(ctx, r.pool, r.tables.Groups, "group", id, userID, name)
}

// Delete deletes a group
func (r *PostgresGroupRepository) Delete(ctx context.Context, id, userID string) error {
	return deleteRow(ctx, r.pool, r.tables.Groups, "group", id, userID)
}
