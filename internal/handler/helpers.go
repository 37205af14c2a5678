package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"linkvault/internal/domain"
	"linkvault/internal/httputil"
	"linkvault/internal/service/session"
	"linkvault/internal/workspace"
)

// pathID returns the {id} path value after checking it is a UUID.
func pathID(r *http.Request, what string) (string, error) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: invalid %s id %q", domain.ErrValidation, what, id)
	}
	return id, nil
}

// workspaceFrom returns the request's workspace or writes a 401. Only
// signed-in browsers (or ones signing in) have a workspace.
func workspaceFrom(w http.ResponseWriter, r *http.Request) (*workspace.Workspace, bool) {
	ws := httputil.GetWorkspace(r)
	if ws == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return ws, true
}

// storageFrom returns the cookie binding as session storage, or nil.
func storageFrom(r *http.Request) session.Storage {
	if b := httputil.GetBinding(r); b != nil {
		return b
	}
	return nil
}

type nameRequest struct {
	Name httputil.OptionalString `json:"name"`
}

// messageResponse carries the notice shown after a successful action.
type messageResponse struct {
	Message string `json:"message"`
}
