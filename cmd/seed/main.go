package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"linkvault/internal/auth"
	"linkvault/internal/config"
	"linkvault/internal/database"
	"linkvault/internal/domain/models"
	"linkvault/internal/repository/postgres"
	"linkvault/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't create the user or sample tree")
	clearData := flag.Bool("clear-data", false, "Delete the seed user's groups, subgroups and files (keep schema)")
	resetUser := flag.Bool("reset-user", false, "Delete the seed user (and, by cascade, its profile and tree) and create it again with --password")
	email := flag.String("email", "dev@linkvault.local", "Email of the seed user")
	password := flag.String("password", "linkvault-dev", "Password of the seed user (only used when creating it)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData || *resetUser) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables, --clear-data or --reset-user) in production environment")
	}

	if cfg.SupabaseDBURL == "" {
		log.Fatalf("SUPABASE_DB_URL is required for seeding")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *clearData {
		log.Printf("🧹 Clearing data only (environment: %s, prefix: %q)", cfg.Environment, cfg.TablePrefix)
	} else if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %q)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %q)", cfg.Environment, cfg.TablePrefix)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := database.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := postgres.DropTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	// Creating users needs the service role key, not the anon key the server uses
	serviceKey := os.Getenv("SUPABASE_SERVICE_KEY")
	if serviceKey == "" {
		serviceKey = cfg.SupabaseKey
	}
	admin := auth.NewAdminClient(cfg.SupabaseURL, serviceKey)

	if *resetUser {
		log.Printf("♻️  Resetting seed user %s...", *email)
		if err := admin.DeleteUserByEmail(ctx, *email); err != nil {
			log.Fatalf("Failed to delete seed user %s: %v", *email, err)
		}
	}

	userID, err := admin.EnsureUser(ctx, *email, *password)
	if err != nil {
		log.Fatalf("Failed to ensure seed user %s: %v", *email, err)
	}
	log.Printf("👤 Seed user %s (ID: %s)", *email, userID)

	if *clearData {
		deleted, err := postgres.ClearUserData(ctx, pool, tables, userID)
		if err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Printf("✅ Data cleared successfully (%d groups removed)", deleted)
		return
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}

	// Profiles are normally created by a signup trigger; upsert in case the
	// project has none
	profiles := postgres.NewProfileRepository(repoConfig).(*postgres.PostgresProfileRepository)
	if err := profiles.Upsert(ctx, &models.Profile{ID: userID, Email: *email}); err != nil {
		log.Fatalf("Failed to upsert profile: %v", err)
	}

	seeder := seed.NewTreeSeeder(
		postgres.NewRepositories(repoConfig),
		postgres.NewTransactionManager(pool, logger),
		logger,
	)

	log.Println("📝 Seeding sample groups, subgroups and files...")
	counts, err := seeder.SeedTree(ctx, userID, seed.DefaultTree)
	if err != nil {
		log.Fatalf("Failed to seed sample tree: %v", err)
	}

	log.Printf("🎉 Seeding complete! (%d groups, %d subgroups, %d files)", counts.Groups, counts.Subgroups, counts.Files)
}
