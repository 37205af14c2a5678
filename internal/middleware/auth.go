package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"linkvault/internal/httputil"
)

// RequireAuth rejects requests whose workspace is not authenticated. An
// access token about to expire is renewed first, so handlers always run
// with a usable token.
func RequireAuth(refreshWindow time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws := httputil.GetWorkspace(r)
			if ws == nil {
				if httputil.GetBinding(r) == nil {
					logger.Error("RequireAuth used without the workspace middleware", "path", r.URL.Path)
					httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
					return
				}
				// Anonymous browsers have no workspace.
				httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if err := ws.Session.RefreshIfNeeded(r.Context(), refreshWindow); err != nil {
				logger.Debug("token renewal failed", "workspace_id", ws.ID, "error", err)
			}

			state := ws.Session.State()
			if !state.Authenticated {
				httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if binding := httputil.GetBinding(r); binding != nil {
				if err := ws.SyncStorage(binding); err != nil {
					logger.Warn("failed to persist renewed session", "workspace_id", ws.ID, "error", err)
				}
			}

			next.ServeHTTP(w, httputil.WithUserID(r, state.UserID()))
		})
	}
}
