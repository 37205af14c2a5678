package middleware

import (
	"log/slog"
	"net/http"

	"linkvault/internal/httputil"
	"linkvault/internal/sessionstore"
	"linkvault/internal/workspace"
)

// LoginPath is the only route that may start a workspace for a browser
// without a stored session.
const LoginPath = "/api/auth/login"

// Workspace resolves the browser's workspace from the session cookie. A
// workspace is created only to sign in or to restore the session stored in
// the cookie; anonymous requests proceed with no workspace at all. Tokens
// renewed in the background are written back to the cookie, and a workspace
// created by a request that ends unauthenticated is torn down again.
func Workspace(registry *workspace.Registry, sessions *sessionstore.Manager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			binding := sessions.Bind(w, r)

			ws, ok := registry.Get(binding.WorkspaceID())
			created := false
			if !ok {
				if !startsWorkspace(r, binding) {
					next.ServeHTTP(w, httputil.WithWorkspace(r, nil, binding))
					return
				}
				ws = registry.Create()
				created = true
				if err := binding.SetWorkspaceID(ws.ID); err != nil {
					logger.Error("failed to write session cookie", "error", err)
					registry.Teardown(ws.ID)
					httputil.RespondError(w, http.StatusInternalServerError, "failed to start session")
					return
				}
			}

			if err := ws.Initialize(r.Context(), binding); err != nil {
				logger.Warn("stored session could not be restored", "workspace_id", ws.ID, "error", err)
			}
			if err := ws.SyncStorage(binding); err != nil {
				logger.Warn("failed to persist renewed session", "workspace_id", ws.ID, "error", err)
			}

			next.ServeHTTP(w, httputil.WithWorkspace(r, ws, binding))

			if created && !ws.Session.State().Authenticated {
				logger.Debug("discarding workspace that never signed in", "workspace_id", ws.ID)
				registry.Teardown(ws.ID)
			}
		})
	}
}

// startsWorkspace reports whether a request without a live workspace needs
// one: a login attempt, or a cookie carrying a session to restore.
func startsWorkspace(r *http.Request, binding *sessionstore.Binding) bool {
	if r.Method == http.MethodPost && r.URL.Path == LoginPath {
		return true
	}
	stored, err := binding.Load()
	return err == nil && stored != nil
}
