package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"linkvault/internal/domain"
	"linkvault/internal/domain/models"
	"linkvault/internal/httputil"
	"linkvault/internal/supabase"
)

// TreeHandler serves the group tree and the node actions shared by every kind.
type TreeHandler struct {
	logger *slog.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(logger *slog.Logger) *TreeHandler {
	return &TreeHandler{logger: logger}
}

// GetTree returns the current tree view
// GET /api/tree
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFrom(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, ws.Tree.Snapshot())
}

// Refresh reloads the tree from the backend
// POST /api/tree/refresh
func (h *TreeHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFrom(w, r)
	if !ok {
		return
	}
	if err := ws.Tree.FetchAll(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, ws.Tree.Snapshot())
}

// Rename returns the inline-rename handler for nodes of kind
// PATCH /api/{groups,subgroups,files}/{id}
func (h *TreeHandler) Rename(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFrom(w, r)
		if !ok {
			return
		}
		id, err := pathID(r, string(kind))
		if err != nil {
			handleError(w, r, err)
			return
		}

		var req nameRequest
		if err := httputil.ParseJSON(w, r, &req); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		name, ok := req.Name.Get()
		if !ok {
			handleError(w, r, fmt.Errorf("%w: name is required", domain.ErrValidation))
			return
		}

		if err := ws.Tree.Rename(r.Context(), kind, id, name); err != nil {
			handleError(w, r, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, messageResponse{Message: ws.Notify(supabase.NoticeItemUpdated)})
	}
}

// Delete returns the delete handler for nodes of kind
// DELETE /api/{groups,subgroups,files}/{id}
func (h *TreeHandler) Delete(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFrom(w, r)
		if !ok {
			return
		}
		id, err := pathID(r, string(kind))
		if err != nil {
			handleError(w, r, err)
			return
		}

		if err := ws.Tree.Remove(r.Context(), kind, id); err != nil {
			handleError(w, r, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, messageResponse{Message: ws.Notify(supabase.NoticeItemDeleted)})
	}
}

// Toggle returns the expand/collapse handler for nodes of kind
// POST /api/{groups,subgroups}/{id}/toggle
func (h *TreeHandler) Toggle(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFrom(w, r)
		if !ok {
			return
		}
		id, err := pathID(r, string(kind))
		if err != nil {
			handleError(w, r, err)
			return
		}

		if err := ws.Tree.ToggleExpansion(kind, id); err != nil {
			handleError(w, r, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, ws.Tree.Snapshot())
	}
}
