package handler

import (
	"log/slog"
	"net/http"
	"time"

	"linkvault/internal/domain/models"
	"linkvault/internal/middleware"
	"linkvault/internal/sessionstore"
	"linkvault/internal/workspace"
)

// RouterConfig holds what the HTTP surface needs.
type RouterConfig struct {
	Registry       *workspace.Registry
	Sessions       *sessionstore.Manager
	AllowedOrigins []string
	RefreshWindow  time.Duration
	Logger         *slog.Logger
}

// NewRouter builds the routes and the middleware chain below CORS:
// RequestLogger → Recovery → Workspace → RequireAuth → routes.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger

	authHandler := NewAuthHandler(cfg.Registry, logger)
	treeHandler := NewTreeHandler(logger)
	groupHandler := NewGroupHandler(logger)
	subgroupHandler := NewSubgroupHandler(logger)
	fileHandler := NewFileHandler(logger)
	eventsHandler := NewEventsHandler(cfg.AllowedOrigins, logger)
	healthHandler := NewHealthHandler(cfg.Registry)

	protected := middleware.RequireAuth(cfg.RefreshWindow, logger)
	authed := func(fn http.HandlerFunc) http.Handler {
		return protected(fn)
	}

	// Go 1.22+ enhanced patterns
	api := http.NewServeMux()

	// Session routes
	api.HandleFunc("POST "+middleware.LoginPath, authHandler.Login)
	api.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	api.HandleFunc("GET /api/auth/session", authHandler.GetSession)

	// Event feed
	api.HandleFunc("GET /api/events", eventsHandler.Stream)

	// Tree routes
	api.Handle("GET /api/tree", authed(treeHandler.GetTree))
	api.Handle("POST /api/tree/refresh", authed(treeHandler.Refresh))

	// Group routes
	api.Handle("POST /api/groups", authed(groupHandler.CreateGroup))
	api.Handle("PATCH /api/groups/{id}", authed(treeHandler.Rename(models.KindGroup)))
	api.Handle("DELETE /api/groups/{id}", authed(treeHandler.Delete(models.KindGroup)))
	api.Handle("POST /api/groups/{id}/toggle", authed(treeHandler.Toggle(models.KindGroup)))
	api.Handle("POST /api/groups/{id}/subgroups", authed(subgroupHandler.CreateSubgroup))

	// Subgroup routes
	api.Handle("PATCH /api/subgroups/{id}", authed(treeHandler.Rename(models.KindSubgroup)))
	api.Handle("DELETE /api/subgroups/{id}", authed(treeHandler.Delete(models.KindSubgroup)))
	api.Handle("POST /api/subgroups/{id}/toggle", authed(treeHandler.Toggle(models.KindSubgroup)))
	api.Handle("POST /api/subgroups/{id}/select", authed(subgroupHandler.SelectSubgroup))

	// File routes
	api.Handle("GET /api/files", authed(fileHandler.ListFiles))
	api.Handle("POST /api/files", authed(fileHandler.CreateFile))
	api.Handle("PATCH /api/files/{id}", authed(treeHandler.Rename(models.KindFile)))
	api.Handle("DELETE /api/files/{id}", authed(treeHandler.Delete(models.KindFile)))
	api.Handle("GET /api/files/{id}/link", authed(fileHandler.CopyLink))
	api.Handle("GET /api/files/{id}/open", authed(fileHandler.OpenLink))

	root := http.NewServeMux()
	root.HandleFunc("GET /health", healthHandler.HealthCheck)
	root.Handle("/api/", middleware.Workspace(cfg.Registry, cfg.Sessions, logger)(api))

	var h http.Handler = root
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLogger(logger)(h)
	return h
}
