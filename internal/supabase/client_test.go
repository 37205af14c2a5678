package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkvault/internal/domain"
	"linkvault/internal/domain/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signedToken(t *testing.T, sessionID string) string {
	t.Helper()
	claims := models.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role:      "authenticated",
		SessionID: sessionID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestSignInWithPassword(t *testing.T) {
	token := signedToken(t, "sess-1")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		assert.Equal(t, ClientInfo, r.Header.Get("X-Client-Info"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@example.com", body["email"])
		assert.Equal(t, "hunter22", body["password"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  token,
			"refresh_token": "refresh-1",
			"expires_at":    time.Now().Add(time.Hour).Unix(),
			"user":          map[string]string{"id": "user-1", "email": "ana@example.com"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "anon-key", testLogger())
	events, cancel := client.Events().Subscribe()
	defer cancel()

	session, err := client.SignInWithPassword(context.Background(), "ana@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, token, session.AccessToken)
	assert.Equal(t, "refresh-1", session.RefreshToken)
	assert.Equal(t, "user-1", session.User.ID)
	assert.Equal(t, "sess-1", session.ID)
	assert.False(t, session.Expired(time.Now()))

	select {
	case ev := <-events:
		assert.Equal(t, EventSignedIn, ev.Type)
		assert.Equal(t, "user-1", ev.UserID)
	default:
		t.Fatal("expected SIGNED_IN event")
	}
}

func TestSignInWithPassword_InvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "anon-key", testLogger())
	_, err := client.SignInWithPassword(context.Background(), "ana@example.com", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid_credentials", apiErr.Code)
	assert.Equal(t, "Invalid login credentials", apiErr.Message)
	assert.Equal(t, CategoryMalformed, Classify(err))
}

func TestSignOut(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantErr    bool
		wantSignal bool
	}{
		{name: "revoked", status: http.StatusNoContent, wantSignal: true},
		{name: "already gone", status: http.StatusUnauthorized, wantSignal: true},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/auth/v1/logout", r.URL.Path)
				assert.Equal(t, "global", r.URL.Query().Get("scope"))
				assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "anon-key", testLogger())
			events, cancel := client.Events().Subscribe()
			defer cancel()

			err := client.SignOut(context.Background(), &models.Session{
				AccessToken: "access-1",
				User:        models.User{ID: "user-1"},
			})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			select {
			case ev := <-events:
				assert.True(t, tt.wantSignal, "unexpected event %v", ev.Type)
				assert.Equal(t, EventSignedOut, ev.Type)
			default:
				assert.False(t, tt.wantSignal, "expected SIGNED_OUT event")
			}
		})
	}
}

func TestQuerySelect_BuildsPostgRESTRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/groups", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "*", q.Get("select"))
		assert.Equal(t, "eq.user-1", q.Get("user_id"))
		assert.Equal(t, "created_at.asc", q.Get("order"))
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"id":"g1","name":"Docs","user_id":"user-1","created_at":"2024-01-01T00:00:00Z"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "anon-key", testLogger())
	ctx := WithAccessToken(context.Background(), "user-token")

	var groups []models.Group
	err := client.From("groups").Eq("user_id", "user-1").Order("created_at", true).Select(ctx, "*", &groups)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "g1", groups[0].ID)
	assert.Equal(t, "Docs", groups[0].Name)
}

func TestQueryInsert_RequestsRepresentation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var rows []map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rows))
		require.Len(t, rows, 1)
		assert.Equal(t, "Docs", rows[0]["name"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":"g1","name":"Docs","user_id":"user-1"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "anon-key", testLogger())
	var out []models.Group
	err := client.From("groups").Insert(context.Background(), map[string]string{"name": "Docs", "user_id": "user-1"}, &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "g1", out[0].ID)
}

func TestCheckConnection(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{name: "rows", status: http.StatusOK, body: `[{"id":"g1"}]`, want: true},
		{name: "empty table", status: http.StatusOK, body: `[]`, want: true},
		{name: "expired jwt", status: http.StatusUnauthorized, body: `{"code":"PGRST301","message":"JWT expired"}`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/rest/v1/groups", r.URL.Path)
				assert.Equal(t, "1", r.URL.Query().Get("limit"))
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "anon-key", testLogger())
			assert.Equal(t, tt.want, client.CheckConnection(context.Background()))
		})
	}
}

func TestCheckConnection_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url, "anon-key", testLogger())
	assert.False(t, client.CheckConnection(context.Background()))
}

func TestClassify(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	deadURL := srv.URL
	srv.Close()
	_, transportErr := http.Get(deadURL)
	require.Error(t, transportErr)

	tests := []struct {
		name string
		err  error
		want Category
	}{
		{name: "transport", err: transportErr, want: CategoryNetwork},
		{name: "deadline", err: context.DeadlineExceeded, want: CategoryNetwork},
		{name: "jwt expired", err: &APIError{Status: 401, Code: "PGRST301"}, want: CategorySessionExpired},
		{name: "unauthorized", err: &APIError{Status: 401, Code: "bad_jwt"}, want: CategorySessionExpired},
		{name: "postgrest", err: &APIError{Status: 400, Code: "PGRST102"}, want: CategoryMalformed},
		{name: "constraint", err: &APIError{Status: 409, Code: "23505"}, want: CategoryMalformed},
		{name: "server", err: &APIError{Status: 500}, want: CategoryUnknown},
		{name: "other", err: errors.New("boom"), want: CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestTranslator(t *testing.T) {
	pt, err := NewTranslator("pt-BR")
	require.NoError(t, err)
	assert.Equal(t, "Sessão expirada. Por favor, faça login novamente.", pt.Message(CategorySessionExpired))

	en, err := NewTranslator("en")
	require.NoError(t, err)
	assert.Equal(t, "Your session has expired. Please sign in again.", en.Message(CategorySessionExpired))

	fallback, err := NewTranslator("de")
	require.NoError(t, err)
	assert.Equal(t, DefaultLocale, fallback.Locale())

	translated := en.Translate(&APIError{Status: 401, Code: "PGRST301"})
	var ue *UserError
	require.True(t, errors.As(translated, &ue))
	assert.Equal(t, CategorySessionExpired, ue.Category)
	assert.True(t, errors.Is(translated, domain.ErrSessionExpired))
	assert.Same(t, translated, en.Translate(translated))
	assert.Nil(t, en.Translate(nil))

	assert.Equal(t, "Grupo criado com sucesso", pt.Notice(NoticeGroupCreated))
	assert.Equal(t, "Link copied to clipboard", en.Notice(NoticeLinkCopied))
	assert.Equal(t, "no_such_key", en.Notice("no_such_key"))
}

func TestBroadcaster_CancelClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Publishing after cancel must not panic
	b.Publish(AuthEvent{Type: EventSignedOut})
}
