package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"linkvault/internal/domain"
	"linkvault/internal/domain/models"
	"linkvault/internal/httputil"
	"linkvault/internal/supabase"
)

// FileHandler serves the file panel of the selected subgroup.
type FileHandler struct {
	logger *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(logger *slog.Logger) *FileHandler {
	return &FileHandler{logger: logger}
}

type selectedSubgroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type fileListResponse struct {
	Subgroup *selectedSubgroup `json:"subgroup"`
	Files    []models.File     `json:"files"`
}

// ListFiles returns the files of the selected subgroup
// GET /api/files
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFrom(w, r)
	if !ok {
		return
	}

	resp := fileListResponse{Files: []models.File{}}
	if sg := ws.Tree.SelectedSubgroup(); sg != nil {
		resp.Subgroup = &selectedSubgroup{ID: sg.ID, Name: sg.Name}
		resp.Files = sg.Files
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

type createFileRequest struct {
	Name       string `json:"name"`
	Link       string `json:"link"`
	SubgroupID string `json:"subgroup_id,omitempty"`
}

// CreateFile adds a file entry, by default to the selected subgroup
// POST /api/files
func (h *FileHandler) CreateFile(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFrom(w, r)
	if !ok {
		return
	}

	var req createFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, err := ws.Tree.AddFile(r.Context(), req.SubgroupID, req.Name, req.Link)
	if err != nil {
		handleError(w, r, err)
		return
	}

	ws.Notify(supabase.NoticeFileCreated)
	httputil.RespondJSON(w, http.StatusCreated, file)
}

type linkResponse struct {
	Link    string `json:"link"`
	Message string `json:"message"`
}

// CopyLink returns a file's link for the clipboard
// GET /api/files/{id}/link
func (h *FileHandler) CopyLink(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFrom(w, r)
	if !ok {
		return
	}
	file, err := h.lookup(r, ws.Tree.File)
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, linkResponse{
		Link:    file.Link,
		Message: ws.Notify(supabase.NoticeLinkCopied),
	})
}

// OpenLink redirects to a file's link. Only absolute http(s) links are followed.
// GET /api/files/{id}/open
func (h *FileHandler) OpenLink(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFrom(w, r)
	if !ok {
		return
	}
	file, err := h.lookup(r, ws.Tree.File)
	if err != nil {
		handleError(w, r, err)
		return
	}

	target, err := url.Parse(file.Link)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		h.logger.Info("refusing to open link", "file_id", file.ID, "link", file.Link)
		handleError(w, r, fmt.Errorf("%w: link is not an http(s) address", domain.ErrValidation))
		return
	}
	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (h *FileHandler) lookup(r *http.Request, find func(id string) (models.File, bool)) (models.File, error) {
	id, err := pathID(r, "file")
	if err != nil {
		return models.File{}, err
	}
	file, ok := find(id)
	if !ok {
		return models.File{}, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	return file, nil
}
