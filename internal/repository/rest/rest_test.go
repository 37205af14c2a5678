package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkvault/internal/database"
	"linkvault/internal/domain"
	"linkvault/internal/domain/models"
	"linkvault/internal/supabase"
)

func newTestSet(t *testing.T, handler http.HandlerFunc) (context.Context, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return supabase.WithAccessToken(context.Background(), "user-token"), srv
}

func newClient(srv *httptest.Server) *supabase.Client {
	return supabase.NewClient(srv.URL, "anon-key", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGroupRepository_ListByUser(t *testing.T) {
	ctx, srv := newTestSet(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/dev_groups", r.URL.Path)
		assert.Equal(t, "eq.u1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "created_at.asc", r.URL.Query().Get("order"))
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"id":"g1","name":"Work","user_id":"u1","created_at":"2024-01-01T00:00:00Z"}]`))
	})

	repos := NewRepositories(newClient(srv), database.NewTableNames("dev_"))
	groups, err := repos.Groups.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Work", groups[0].Name)
}

func TestFileRepository_Create(t *testing.T) {
	ctx, srv := newTestSet(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var body []map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, "https://example.com/a.pdf", body[0]["link"])
		assert.Equal(t, "s1", body[0]["subgroup_id"])
		_, hasID := body[0]["id"]
		assert.False(t, hasID)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":"f1","name":"A","link":"https://example.com/a.pdf","subgroup_id":"s1","user_id":"u1","created_at":"2024-01-01T00:00:00Z"}]`))
	})

	repos := NewRepositories(newClient(srv), database.NewTableNames(""))
	file := &models.File{Name: "A", Link: "https://example.com/a.pdf", SubgroupID: "s1", UserID: "u1"}
	require.NoError(t, repos.Files.Create(ctx, file))
	assert.Equal(t, "f1", file.ID)
	assert.False(t, file.CreatedAt.IsZero())
}

func TestSubgroupRepository_UpdateName(t *testing.T) {
	var patched map[string]string
	ctx, srv := newTestSet(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
		if r.URL.Query().Get("id") == "eq.missing" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`[{"id":"s1","name":"Renamed"}]`))
	})

	repos := NewRepositories(newClient(srv), database.NewTableNames(""))
	require.NoError(t, repos.Subgroups.UpdateName(ctx, "s1", "u1", "Renamed"))
	assert.Equal(t, map[string]string{"name": "Renamed"}, patched)

	err := repos.Subgroups.UpdateName(ctx, "missing", "u1", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProfileRepository_GetByID(t *testing.T) {
	ctx, srv := newTestSet(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "eq.u1" {
			w.Write([]byte(`[{"id":"u1","email":"a@b.c"}]`))
			return
		}
		w.Write([]byte(`[]`))
	})

	repos := NewRepositories(newClient(srv), database.NewTableNames(""))
	p, err := repos.Profiles.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", p.Email)

	_, err = repos.Profiles.GetByID(ctx, "u2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGroupRepository_DeleteKeepsAPIError(t *testing.T) {
	ctx, srv := newTestSet(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"PGRST301","message":"JWT expired"}`))
	})

	repos := NewRepositories(newClient(srv), database.NewTableNames(""))
	err := repos.Groups.Delete(ctx, "g1", "u1")
	require.Error(t, err)
	assert.Equal(t, supabase.CategorySessionExpired, supabase.Classify(err))
}
