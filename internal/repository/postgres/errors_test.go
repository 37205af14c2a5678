package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"linkvault/internal/domain"
)

func TestWrapWriteError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantIs  error
		wantMsg string
	}{
		{
			name:   "unique violation",
			err:    &pgconn.PgError{Code: "23505"},
			wantIs: domain.ErrConflict,
		},
		{
			name:   "missing parent",
			err:    fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}),
			wantIs: domain.ErrValidation,
		},
		{
			name:    "other",
			err:     errors.New("connection reset"),
			wantMsg: "create group: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapWriteError("create group", "Docs", tt.err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			if tt.wantMsg != "" {
				assert.EqualError(t, err, tt.wantMsg)
			}
		})
	}
}

func TestIsPgNoRowsError(t *testing.T) {
	assert.True(t, isPgNoRowsError(fmt.Errorf("scan: %w", pgx.ErrNoRows)))
	assert.False(t, isPgNoRowsError(errors.New("nope")))
}
