package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminClient_EnsureUser(t *testing.T) {
	var created bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/auth/v1/admin/users", r.URL.Path)

		switch r.Method {
		case http.MethodGet:
			users := []AdminUser{{ID: "existing", Email: "old@example.com"}}
			if created {
				users = append(users, AdminUser{ID: "new-id", Email: "seed@example.com"})
			}
			json.NewEncoder(w).Encode(ListUsersResponse{Users: users})
		case http.MethodPost:
			var req CreateUserRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.True(t, req.EmailConfirm)
			created = true
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(AdminUser{ID: "new-id", Email: req.Email})
		}
	}))
	defer srv.Close()

	client := NewAdminClient(srv.URL, "service-key")
	ctx := context.Background()

	id, err := client.EnsureUser(ctx, "old@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "existing", id)
	assert.False(t, created)

	id, err = client.EnsureUser(ctx, "seed@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)
	assert.True(t, created)
}

func TestAdminClient_DeleteUserByEmail(t *testing.T) {
	users := map[string]string{"seed@example.com": "seed-id"}
	var deleted []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "service-key", r.Header.Get("apikey"))

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/auth/v1/admin/users":
			var list []AdminUser
			for email, id := range users {
				list = append(list, AdminUser{ID: id, Email: email})
			}
			json.NewEncoder(w).Encode(ListUsersResponse{Users: list})
		case r.Method == http.MethodDelete && r.URL.Path == "/auth/v1/admin/users/seed-id":
			deleted = append(deleted, "seed-id")
			delete(users, "seed@example.com")
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewAdminClient(srv.URL, "service-key")
	ctx := context.Background()

	require.NoError(t, client.DeleteUserByEmail(ctx, "seed@example.com"))
	assert.Equal(t, []string{"seed-id"}, deleted)

	// A user that is already gone is not an error.
	require.NoError(t, client.DeleteUserByEmail(ctx, "seed@example.com"))
	assert.Len(t, deleted, 1)
}

func TestAdminClient_DeleteUserByEmail_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(ListUsersResponse{Users: []AdminUser{{ID: "seed-id", Email: "seed@example.com"}}})
			return
		}
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"msg":"not admin"}`))
	}))
	defer srv.Close()

	err := NewAdminClient(srv.URL, "anon-key").DeleteUserByEmail(context.Background(), "seed@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
