package handler

import (
	"log/slog"
	"net/http"

	"linkvault/internal/httputil"
	"linkvault/internal/supabase"
)

// SubgroupHandler creates and selects subgroups.
type SubgroupHandler struct {
	logger *slog.Logger
}

// NewSubgroupHandler creates a new subgroup handler
func NewSubgroupHandler(logger *slog.Logger) *SubgroupHandler {
	return &SubgroupHandler{logger: logger}
}

type createSubgroupRequest struct {
	Name string `json:"name"`
}

// CreateSubgroup adds a subgroup under a group and selects it
// POST /api/groups/{id}/subgroups
func (h *SubgroupHandler) CreateSubgroup(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFrom(w, r)
	if !ok {
		return
	}
	groupID, err := pathID(r, "group")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req createSubgroupRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	subgroup, err := ws.Tree.AddSubgroup(r.Context(), groupID, req.Name)
	if err != nil {
		handleError(w, r, err)
		return
	}

	ws.Notify(supabase.NoticeSubgroupCreated)
	httputil.RespondJSON(w, http.StatusCreated, subgroup)
}

// SelectSubgroup toggles the selection of a subgroup
// POST /api/subgroups/{id}/select
func (h *SubgroupHandler) SelectSubgroup(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFrom(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "subgroup")
	if err != nil {
		handleError(w, r, err)
		return
	}

	if err := ws.Tree.SelectSubgroup(id); err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, ws.Tree.Snapshot())
}
