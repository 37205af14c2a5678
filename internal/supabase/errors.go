package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// APIError is a non-2xx response from GoTrue or PostgREST.
type APIError struct {
	Status  int
	Code    string // PostgREST code (e.g. PGRST301) or GoTrue error_code
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase: %d: %s", e.Status, e.Message)
}

// parseAPIError understands both error shapes:
//
//	PostgREST: {"code":"PGRST301","message":"JWT expired","details":null,"hint":null}
//	GoTrue:    {"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}
//	GoTrue v1: {"error":"invalid_grant","error_description":"Invalid login credentials"}
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
		return apiErr
	}

	apiErr.Code = firstString(raw, "error_code", "code", "error")
	apiErr.Message = firstString(raw, "message", "msg", "error_description", "error")
	apiErr.Details = firstString(raw, "details", "hint")
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Category is the user-facing class of a backend failure.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryNetwork
	CategorySessionExpired
	CategoryMalformed
)

func (c Category) String() string {
	switch c {
	case CategoryNetwork:
		return "network"
	case CategorySessionExpired:
		return "session_expired"
	case CategoryMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Classify maps an error from this package (or the transport under it) to a Category.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == "PGRST301" || apiErr.Code == "PGRST303":
			return CategorySessionExpired
		case apiErr.Status == http.StatusUnauthorized:
			return CategorySessionExpired
		case strings.HasPrefix(apiErr.Code, "PGRST"):
			return CategoryMalformed
		case apiErr.Status == http.StatusBadRequest,
			apiErr.Status == http.StatusConflict,
			apiErr.Status == http.StatusUnprocessableEntity:
			return CategoryMalformed
		}
		return CategoryUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return CategoryNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return CategoryNetwork
	}
	return CategoryUnknown
}
