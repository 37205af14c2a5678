package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"linkvault/internal/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isPgDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isPgForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// wrapWriteError maps constraint violations on insert to domain errors.
// A foreign key violation means the parent row is gone or belongs to someone else.
func wrapWriteError(op, what string, err error) error {
	switch {
	case isPgDuplicateError(err):
		return fmt.Errorf("%s '%s': %w", op, what, domain.ErrConflict)
	case isPgForeignKeyError(err):
		return &domain.ValidationError{Message: fmt.Sprintf("%s '%s': parent does not exist", op, what)}
	}
	return fmt.Errorf("%s: %w", op, err)
}
