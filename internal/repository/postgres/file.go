package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"linkvault/internal/database"
	"linkvault/internal/domain/models"
	"linkvault/internal/domain/repositories"
)

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *database.TableNames
}

// NewFileRepository creates a new file entry repository
func NewFileRepository(config *RepositoryConfig) repositories.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func (r *PostgresFileRepository) ListByUser(ctx context.Context, userID string) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT id, name, link, subgroup_id, user_id, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, r.tables.Files)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	files := []models.File{}
	for rows.Next() {
		var f models.File
		if err := rows.Scan(&f.ID, &f.Name, &f.Link, &f.SubgroupID, &f.UserID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return files, nil
}

func (r *PostgresFileRepository) Create(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, link, subgroup_id, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, r.tables.Files)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, file.Name, file.Link, file.SubgroupID, file.UserID).
		Scan(&file.ID, &file.CreatedAt)
	if err != nil {
		return wrapWriteError("create file", file.Name, err)
	}
	return nil
}

func (r *PostgresFileRepository) UpdateName(ctx context.Context, id, userID, name string) error {
	return updateName(ctx, r.pool, r.tables.Files, "file", id, userID, name)
}

func (r *PostgresFileRepository) Delete(ctx context.Context, id, userID string) error {
	return deleteRow(ctx, r.pool, r.tables.Files, "file", id, userID)
}
