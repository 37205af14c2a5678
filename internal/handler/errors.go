package handler

import (
	"errors"
	"net/http"

	"linkvault/internal/domain"
	"linkvault/internal/httputil"
	"linkvault/internal/supabase"
)

// statusForCategory maps a backend failure category to the response status.
func statusForCategory(c supabase.Category) int {
	switch c {
	case supabase.CategoryNetwork:
		return http.StatusServiceUnavailable
	case supabase.CategorySessionExpired:
		return http.StatusUnauthorized
	case supabase.CategoryMalformed:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// handleError converts errors to problem responses. A session the backend
// rejected as expired also ends the workspace session.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var userErr *supabase.UserError
	var conflictErr *domain.ConflictError

	switch {
	case errors.As(err, &userErr):
		if userErr.Category == supabase.CategorySessionExpired {
			endSession(r)
		}
		httputil.RespondErrorWithExtras(w, statusForCategory(userErr.Category), userErr.Message,
			map[string]interface{}{"category": userErr.Category.String()})
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrSessionExpired):
		endSession(r)
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondError(w, http.StatusConflict, conflictErr.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func endSession(r *http.Request) {
	if ws := httputil.GetWorkspace(r); ws != nil {
		ws.Logout(r.Context(), storageFrom(r))
	}
}
