// Package session owns the authentication state of one workspace.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"linkvault/internal/auth"
	"linkvault/internal/config"
	"linkvault/internal/domain"
	"linkvault/internal/domain/models"
	"linkvault/internal/domain/repositories"
	"linkvault/internal/supabase"
)

// AuthClient is the password-session surface of the backend.
type AuthClient interface {
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error)
	SignOut(ctx context.Context, session *models.Session) error
}

// Storage persists the backend session between requests.
type Storage interface {
	// Load returns the stored session, or nil if there is none
	Load() (*models.Session, error)
	Save(session *models.Session) error
	Clear() error
}

// State is the authentication state exposed to the presentation layer.
type State struct {
	Authenticated bool            `json:"authenticated"`
	Loading       bool            `json:"loading"`
	Profile       *models.Profile `json:"profile,omitempty"`
	Session       *models.Session `json:"-"`
}

// UserID returns the authenticated user's id, or "".
func (s State) UserID() string {
	if s.Profile != nil {
		return s.Profile.ID
	}
	return ""
}

// Controller drives initialize, login and logout and mirrors session events.
type Controller struct {
	auth       AuthClient
	profiles   repositories.ProfileRepository
	verifier   auth.JWTVerifier
	translator *supabase.Translator
	logger     *slog.Logger

	mu        sync.Mutex
	state     State
	listeners []func(State)
}

// NewController creates a controller in the loading state.
func NewController(
	authClient AuthClient,
	profiles repositories.ProfileRepository,
	verifier auth.JWTVerifier,
	translator *supabase.Translator,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		auth:       authClient,
		profiles:   profiles,
		verifier:   verifier,
		translator: translator,
		logger:     logger,
		state:      State{Loading: true},
	}
}

// OnChange registers fn to receive every state change. fn runs without the
// controller lock held.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	listeners := append([]func(State){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}

func (c *Controller) setLoading() {
	c.mu.Lock()
	s := c.state
	c.mu.Unlock()
	s.Loading = true
	c.setState(s)
}

// Initialize restores the persisted session. An expired access token is
// refreshed when a refresh token is stored. Any failure leaves the controller
// unauthenticated with storage cleared; the returned error is then the
// translated cause, or nil when there was simply nothing to restore.
func (c *Controller) Initialize(ctx context.Context, storage Storage) error {
	c.setLoading()

	sess, err := storage.Load()
	if err != nil {
		c.logger.Warn("discarding unreadable session", "error", err)
		c.clear(storage)
		return nil
	}
	if sess == nil {
		c.setState(State{})
		return nil
	}

	claims, err := c.verifier.VerifyToken(sess.AccessToken)
	if errors.Is(err, domain.ErrSessionExpired) && sess.RefreshToken != "" {
		c.logger.Debug("access token expired, refreshing", "user_id", sess.User.ID)
		sess, err = c.refresh(ctx, storage, sess.RefreshToken)
		if err == nil {
			claims, err = c.verifier.VerifyToken(sess.AccessToken)
		}
	}
	if err != nil {
		c.logger.Info("stored session rejected", "error", err)
		c.clear(storage)
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) || supabase.Classify(err) == supabase.CategoryNetwork {
			return c.translator.Translate(err)
		}
		return nil
	}

	if sess.ID == "" {
		sess.ID = claims.SessionID
	}
	if sess.User.ID == "" {
		sess.User.ID = claims.GetUserID()
	}

	return c.authenticate(ctx, storage, sess, claims.GetUserID())
}

func (c *Controller) refresh(ctx context.Context, storage Storage, refreshToken string) (*models.Session, error) {
	sess, err := c.auth.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if err := storage.Save(sess); err != nil {
		return nil, fmt.Errorf("save refreshed session: %w", err)
	}
	return sess, nil
}

// authenticate fetches the profile for userID. A failed or missing profile
// always ends in a full logout.
func (c *Controller) authenticate(ctx context.Context, storage Storage, sess *models.Session, userID string) error {
	profile, err := c.profiles.GetByID(supabase.WithAccessToken(ctx, sess.AccessToken), userID)
	if err != nil {
		c.logger.Warn("profile fetch failed, signing out", "user_id", userID, "error", err)
		c.endSession(ctx, storage, sess)
		return c.translator.Translate(err)
	}

	c.setState(State{
		Authenticated: true,
		Profile:       profile,
		Session:       sess,
	})
	c.logger.Info("session authenticated", "user_id", userID)
	return nil
}

// RefreshIfNeeded renews the access token when it expires within window.
// A rejected refresh token ends the session; transport failures leave it for
// the next attempt.
func (c *Controller) RefreshIfNeeded(ctx context.Context, window time.Duration) error {
	current := c.State()
	if !current.Authenticated || current.Session == nil {
		return nil
	}
	if !current.Session.Expired(time.Now().Add(window)) {
		return nil
	}

	sess, err := c.auth.RefreshSession(ctx, current.Session.RefreshToken)
	if err != nil {
		userErr := c.translator.Translate(err)
		if supabase.Classify(err) == supabase.CategoryNetwork {
			c.logger.Warn("token refresh deferred", "user_id", current.UserID(), "error", err)
			return userErr
		}
		c.logger.Info("token refresh rejected, ending session", "user_id", current.UserID(), "error", err)
		c.endSession(ctx, nil, current.Session)
		return userErr
	}
	if sess.ID == "" {
		sess.ID = current.Session.ID
	}

	c.mu.Lock()
	still := c.state.Authenticated && c.state.Session != nil && sameSession(c.state.Session, current.Session)
	c.mu.Unlock()
	if !still {
		return nil
	}

	current.Session = sess
	c.setState(current)
	c.logger.Debug("access token refreshed", "user_id", current.UserID())
	return nil
}

type credentials struct {
	Email    string
	Password string
}

func (in *credentials) validate() error {
	in.Email = strings.TrimSpace(in.Email)
	return validation.ValidateStruct(in,
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Password,
			validation.Required,
			validation.Length(1, config.MaxPasswordLength),
		),
	)
}

// Login exchanges credentials for a session, loads the profile and persists
// the session. Backend failures come back as *supabase.UserError.
func (c *Controller) Login(ctx context.Context, storage Storage, email, password string) error {
	in := credentials{Email: email, Password: password}
	if err := in.validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	c.setLoading()

	sess, err := c.auth.SignInWithPassword(ctx, in.Email, in.Password)
	if err != nil {
		c.logger.Info("sign in failed", "email", in.Email, "error", err)
		c.setState(State{})
		return c.translator.Translate(err)
	}

	if err := storage.Save(sess); err != nil {
		c.logger.Error("failed to persist session", "user_id", sess.User.ID, "error", err)
		c.endSession(ctx, storage, sess)
		return c.translator.Translate(err)
	}

	return c.authenticate(ctx, storage, sess, sess.User.ID)
}

// Logout clears local state first, then revokes the backend session and the
// stored copy. Backend failures are logged and never returned.
func (c *Controller) Logout(ctx context.Context, storage Storage) {
	c.mu.Lock()
	sess := c.state.Session
	c.mu.Unlock()

	c.endSession(ctx, storage, sess)
}

func (c *Controller) endSession(ctx context.Context, storage Storage, sess *models.Session) {
	c.setState(State{})

	if sess != nil {
		if err := c.auth.SignOut(ctx, sess); err != nil {
			c.logger.Warn("backend sign out failed", "user_id", sess.User.ID, "error", err)
		}
	}

	if storage != nil {
		if err := storage.Clear(); err != nil {
			c.logger.Warn("failed to clear stored session", "error", err)
		}
	}
	c.logger.Info("session ended")
}

// clear resets state and storage without contacting the backend.
func (c *Controller) clear(storage Storage) {
	c.setState(State{})
	if err := storage.Clear(); err != nil {
		c.logger.Warn("failed to clear stored session", "error", err)
	}
}

// Watch mirrors session events until ctx is done or events is closed.
//
//   - SIGNED_OUT for the current user clears the state.
//   - TOKEN_REFRESHED for the current session adopts the new tokens.
//
// SIGNED_IN needs no mirroring: Login authenticates synchronously, and a
// workspace never adopts a session created by another browser. storage
// receives adopted tokens and may be nil.
func (c *Controller) Watch(ctx context.Context, events <-chan supabase.AuthEvent, storage Storage) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.handleEvent(ev, storage)
		}
	}
}

func (c *Controller) handleEvent(ev supabase.AuthEvent, storage Storage) {
	current := c.State()
	if current.Session == nil {
		return
	}

	switch ev.Type {
	case supabase.EventSignedOut:
		if ev.UserID == current.Session.User.ID && current.Authenticated {
			c.logger.Info("signed out elsewhere", "user_id", ev.UserID)
			c.setState(State{})
		}

	case supabase.EventTokenRefreshed:
		if ev.Session == nil || !sameSession(ev.Session, current.Session) {
			return
		}
		current.Session = ev.Session
		c.setState(current)
		if storage != nil {
			if err := storage.Save(ev.Session); err != nil {
				c.logger.Warn("failed to persist refreshed session", "error", err)
			}
		}
		c.logger.Debug("adopted refreshed tokens", "user_id", ev.UserID)
	}
}

func sameSession(a, b *models.Session) bool {
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}
	return a.User.ID == b.User.ID && a.RefreshToken == b.RefreshToken
}
