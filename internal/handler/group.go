package handler

import (
	"log/slog"
	"net/http"

	"linkvault/internal/httputil"
	"linkvault/internal/supabase"
)

// GroupHandler creates groups. Rename, delete and toggle go through TreeHandler.
type GroupHandler struct {
	logger *slog.Logger
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(logger *slog.Logger) *GroupHandler {
	return &GroupHandler{logger: logger}
}

type createGroupRequest struct {
	Name string `json:"name"`
}

// CreateGroup adds a group to the tree
// POST /api/groups
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFrom(w, r)
	if !ok {
		return
	}

	var req createGroupRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	group, err := ws.Tree.AddGroup(r.Context(), req.Name)
	if err != nil {
		handleError(w, r, err)
		return
	}

	ws.Notify(supabase.NoticeGroupCreated)
	httputil.RespondJSON(w, http.StatusCreated, group)
}
