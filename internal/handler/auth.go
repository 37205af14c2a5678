package handler

import (
	"log/slog"
	"net/http"

	"linkvault/internal/httputil"
	"linkvault/internal/service/session"
	"linkvault/internal/supabase"
	"linkvault/internal/workspace"
)

// AuthHandler handles login, logout and the session state.
type AuthHandler struct {
	registry *workspace.Registry
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(registry *workspace.Registry, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		registry: registry,
		logger:   logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	session.State
	Message string `json:"message,omitempty"`
}

// Login signs the workspace in and loads its tree
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFrom(w, r)
	if !ok {
		return
	}
	storage := storageFrom(r)
	if storage == nil {
		httputil.RespondError(w, http.StatusInternalServerError, "session storage unavailable")
		return
	}

	var req loginRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := ws.Login(r.Context(), storage, req.Email, req.Password); err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, sessionResponse{
		State:   ws.Session.State(),
		Message: ws.Notice(supabase.NoticeLoginSuccess),
	})
}

// Logout ends the session and discards the workspace
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ws := httputil.GetWorkspace(r)
	if ws == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ws.Logout(r.Context(), storageFrom(r))
	h.registry.Teardown(ws.ID)
	w.WriteHeader(http.StatusNoContent)
}

// GetSession returns the authentication state
// GET /api/auth/session
func (h *AuthHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	ws := httputil.GetWorkspace(r)
	if ws == nil {
		httputil.RespondJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	httputil.RespondJSON(w, http.StatusOK, sessionResponse{State: ws.Session.State()})
}
