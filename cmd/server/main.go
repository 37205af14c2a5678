package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"linkvault/internal/auth"
	"linkvault/internal/config"
	"linkvault/internal/database"
	"linkvault/internal/domain/repositories"
	"linkvault/internal/handler"
	"linkvault/internal/repository/postgres"
	"linkvault/internal/repository/rest"
	"linkvault/internal/sessionstore"
	"linkvault/internal/supabase"
	"linkvault/internal/workspace"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

const (
	sweepSchedule = "@every 10m"
	refreshWindow = time.Minute
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, logCloser, err := config.NewLogger(cfg.Environment, cfg.LogDir, cfg.LogMaxFiles)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"locale", cfg.Locale,
		"session_storage", cfg.SessionStorage,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	translator, err := supabase.NewTranslator(cfg.Locale)
	if err != nil {
		log.Fatalf("Failed to load message catalog: %v", err)
	}

	tables := database.NewTableNames(cfg.TablePrefix)
	client := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, logger,
		supabase.WithProbeTable(tables.Groups))

	// Legacy projects sign with a shared secret; newer ones publish a JWKS
	var jwtVerifier auth.JWTVerifier
	if cfg.SupabaseJWTSecret != "" {
		jwtVerifier, err = auth.NewHMACVerifier(cfg.SupabaseJWTSecret, logger)
	} else {
		jwtVerifier, err = auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
	}
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Direct database access when configured, PostgREST otherwise
	var repos repositories.Set
	if cfg.SupabaseDBURL != "" {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		repos = postgres.NewRepositories(&postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		})
		logger.Info("database connected", "backend", "postgres")
	} else {
		repos = rest.NewRepositories(client, tables)
		logger.Info("using PostgREST repositories", "backend", "rest")
	}

	sessions, err := sessionstore.NewManager(cfg.SessionSecret, cfg.SessionStorage, cfg.SecureCookies(), logger)
	if err != nil {
		log.Fatalf("Failed to create session store: %v", err)
	}

	scheduler := workspace.NewScheduler(logger)
	registry := workspace.NewRegistry(workspace.Deps{
		Auth:          client,
		Repos:         repos,
		Verifier:      jwtVerifier,
		Prober:        client,
		Events:        client.Events(),
		Translator:    translator,
		Scheduler:     scheduler,
		Logger:        logger,
		PollSchedule:  cfg.ConnectivitySchedule,
		RefreshWindow: refreshWindow,
	})

	if err := scheduler.AddJob("workspace-sweep", sweepSchedule, func() {
		registry.Sweep(cfg.WorkspaceIdleTimeout)
	}); err != nil {
		log.Fatalf("Failed to schedule workspace sweep: %v", err)
	}
	scheduler.Start()

	logger.Info("services initialized")

	allowedOrigins := strings.Split(cfg.CORSOrigins, ",")
	var h http.Handler = handler.NewRouter(handler.RouterConfig{
		Registry:       registry,
		Sessions:       sessions,
		AllowedOrigins: allowedOrigins,
		RefreshWindow:  refreshWindow,
		Logger:         logger,
	})

	// CORS - outermost, so OPTIONS pre-flight requests never reach the workspace middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled for the websocket event feed
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}

	scheduler.Stop()
	registry.Close()
}
