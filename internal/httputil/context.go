package httputil

import (
	"context"
	"net/http"

	"linkvault/internal/sessionstore"
	"linkvault/internal/workspace"
)

type contextKey string

const (
	userIDKey    contextKey = "userID"
	workspaceKey contextKey = "workspace"
	bindingKey   contextKey = "sessionBinding"
)

// WithUserID adds userID to the request context
func WithUserID(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	return r.WithContext(ctx)
}

// GetUserID retrieves userID from context, returns empty string if not found
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

// WithWorkspace attaches the browser's workspace and its cookie binding.
func WithWorkspace(r *http.Request, ws *workspace.Workspace, binding *sessionstore.Binding) *http.Request {
	ctx := context.WithValue(r.Context(), workspaceKey, ws)
	ctx = context.WithValue(ctx, bindingKey, binding)
	return r.WithContext(ctx)
}

// GetWorkspace returns the workspace set by the workspace middleware, or nil.
func GetWorkspace(r *http.Request) *workspace.Workspace {
	ws, _ := r.Context().Value(workspaceKey).(*workspace.Workspace)
	return ws
}

// GetBinding returns the session cookie binding of the request, or nil.
func GetBinding(r *http.Request) *sessionstore.Binding {
	b, _ := r.Context().Value(bindingKey).(*sessionstore.Binding)
	return b
}
