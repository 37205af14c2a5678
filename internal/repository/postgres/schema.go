package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"linkvault/internal/database"
)

// EnsureSchema creates the four tables, their indexes and the row-level
// security policies the REST backend relies on. Safe to run repeatedly.
//
// profiles.id references auth.users, so the schema only applies to a
// Supabase database (or one that carries the auth schema).
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *database.TableNames) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id uuid PRIMARY KEY REFERENCES auth.users (id) ON DELETE CASCADE,
			email text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS %[2]s (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			name text NOT NULL CHECK (length(btrim(name)) > 0),
			user_id uuid NOT NULL REFERENCES auth.users (id) ON DELETE CASCADE,
			created_at timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS %[3]s (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			name text NOT NULL CHECK (length(btrim(name)) > 0),
			group_id uuid NOT NULL REFERENCES %[2]s (id) ON DELETE CASCADE,
			user_id uuid NOT NULL REFERENCES auth.users (id) ON DELETE CASCADE,
			created_at timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS %[4]s (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			name text NOT NULL CHECK (length(btrim(name)) > 0),
			link text NOT NULL CHECK (length(btrim(link)) > 0),
			subgroup_id uuid NOT NULL REFERENCES %[3]s (id) ON DELETE CASCADE,
			user_id uuid NOT NULL REFERENCES auth.users (id) ON DELETE CASCADE,
			created_at timestamptz NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS %[2]s_user_created_idx ON %[2]s (user_id, created_at);
		CREATE INDEX IF NOT EXISTS %[3]s_user_created_idx ON %[3]s (user_id, created_at);
		CREATE INDEX IF NOT EXISTS %[4]s_user_created_idx ON %[4]s (user_id, created_at);
	`, tables.Profiles, tables.Groups, tables.Subgroups, tables.Files)

	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	// Profiles are read-only for users; the other tables are fully owner-scoped.
	policies := fmt.Sprintf(`
		ALTER TABLE %[1]s ENABLE ROW LEVEL SECURITY;
		DROP POLICY IF EXISTS owner_read ON %[1]s;
		CREATE POLICY owner_read ON %[1]s FOR SELECT USING (auth.uid() = id);
	`, tables.Profiles)
	for _, table := range []string{tables.Groups, tables.Subgroups, tables.Files} {
		policies += fmt.Sprintf(`
			ALTER TABLE %[1]s ENABLE ROW LEVEL SECURITY;
			DROP POLICY IF EXISTS owner_all ON %[1]s;
			CREATE POLICY owner_all ON %[1]s FOR ALL
				USING (auth.uid() = user_id)
				WITH CHECK (auth.uid() = user_id);
		`, table)
	}

	if _, err := pool.Exec(ctx, policies); err != nil {
		return fmt.Errorf("create row-level security policies: %w", err)
	}

	return nil
}

// DropTables removes every linkvault table for the prefix.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables *database.TableNames) error {
	query := fmt.Sprintf(`
		DROP TABLE IF EXISTS %s CASCADE;
		DROP TABLE IF EXISTS %s CASCADE;
		DROP TABLE IF EXISTS %s CASCADE;
		DROP TABLE IF EXISTS %s CASCADE;
	`, tables.Files, tables.Subgroups, tables.Groups, tables.Profiles)

	if _, err := pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}

// ClearUserData deletes every group of the user. Subgroups and files follow
// through the cascade.
func ClearUserData(ctx context.Context, pool *pgxpool.Pool, tables *database.TableNames, userID string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, tables.Groups)

	result, err := pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("clear user data: %w", err)
	}
	return result.RowsAffected(), nil
}
