package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"linkvault/internal/domain"
)

// updateName sets name on one owned row. Only the name column is ever updated.
func updateName(ctx context.Context, pool *pgxpool.Pool, table, label, id, userID, name string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1
		WHERE id = $2 AND user_id = $3
	`, table)

	result, err := GetExecutor(ctx, pool).Exec(ctx, query, name, id, userID)
	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("%s '%s': %w", label, name, domain.ErrConflict)
		}
		return fmt.Errorf("update %s: %w", label, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", label, id, domain.ErrNotFound)
	}
	return nil
}

// deleteRow removes one owned row. Children go with it through ON DELETE CASCADE.
func deleteRow(ctx context.Context, pool *pgxpool.Pool, table, label, id, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND user_id = $2
	`, table)

	result, err := GetExecutor(ctx, pool).Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", label, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", label, id, domain.ErrNotFound)
	}
	return nil
}
