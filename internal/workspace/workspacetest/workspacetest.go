// Package workspacetest builds workspace registries over in-memory fakes for
// tests of the HTTP layer.
package workspacetest

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"linkvault/internal/domain"
	"linkvault/internal/domain/models"
	"linkvault/internal/repository/memory"
	"linkvault/internal/supabase"
	"linkvault/internal/workspace"
)

// UserID is the only user the fake backend knows.
const UserID = "user-1"

// Password is the password Auth accepts.
const Password = "secret"

// Auth is a password backend for UserID. Tokens are "valid:<user>".
type Auth struct {
	mu       sync.Mutex
	signOuts int
}

func (a *Auth) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	if password != Password {
		return nil, &supabase.APIError{Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials"}
	}
	return &models.Session{
		ID:           "sess-1",
		AccessToken:  "valid:" + UserID,
		RefreshToken: "refresh-1",
		User:         models.User{ID: UserID, Email: email},
	}, nil
}

func (a *Auth) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	return &models.Session{
		ID:           "sess-1",
		AccessToken:  "valid:" + UserID,
		RefreshToken: refreshToken + "+",
		User:         models.User{ID: UserID},
	}, nil
}

func (a *Auth) SignOut(ctx context.Context, session *models.Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.signOuts++
	return nil
}

// SignOuts returns how many times SignOut was called.
func (a *Auth) SignOuts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.signOuts
}

// Verifier accepts "valid:<user>" tokens.
type Verifier struct{}

func (Verifier) VerifyToken(token string) (*models.AuthClaims, error) {
	user, ok := strings.CutPrefix(token, "valid:")
	if !ok || user == "" {
		return nil, domain.ErrUnauthorized
	}
	c := &models.AuthClaims{Role: "authenticated", SessionID: "sess-1"}
	c.Subject = user
	return c, nil
}

func (Verifier) Close() error { return nil }

// Prober reports a settable connectivity value.
type Prober struct {
	down atomic.Bool
}

// SetConnected changes what CheckConnection returns.
func (p *Prober) SetConnected(connected bool) {
	p.down.Store(!connected)
}

func (p *Prober) CheckConnection(ctx context.Context) bool {
	return !p.down.Load()
}

// Env is a registry wired to fakes.
type Env struct {
	Registry   *workspace.Registry
	DB         *memory.Store
	Auth       *Auth
	Prober     *Prober
	Translator *supabase.Translator
	Logger     *slog.Logger
}

// New builds an Env whose registry is closed when the test ends.
func New(t testing.TB) *Env {
	t.Helper()
	translator, err := supabase.NewTranslator("en")
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := &Env{
		DB:         memory.New(),
		Auth:       &Auth{},
		Prober:     &Prober{},
		Translator: translator,
		Logger:     logger,
	}
	e.DB.AddProfile(models.Profile{ID: UserID, Email: "ana@example.com"})
	e.Registry = workspace.NewRegistry(workspace.Deps{
		Auth:       e.Auth,
		Repos:      e.DB.Repositories(),
		Verifier:   Verifier{},
		Prober:     e.Prober,
		Translator: translator,
		Scheduler:  workspace.NewScheduler(logger),
		Logger:     logger,
	})
	t.Cleanup(e.Registry.Close)
	return e
}
