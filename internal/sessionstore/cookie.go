// Package sessionstore persists backend sessions and the workspace id in an
// encrypted browser cookie.
package sessionstore

import (
	"crypto/sha256"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"linkvault/internal/config"
	"linkvault/internal/domain/models"
)

// CookieName is the name of the session cookie.
const CookieName = "linkvault-session"

// DurableMaxAge is how long a durable session cookie lives.
const DurableMaxAge = 7 * 24 * time.Hour

const (
	keyWorkspace    = "workspace_id"
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyExpiresAt    = "expires_at"
	keySessionID    = "session_id"
	keyUserID       = "user_id"
	keyEmail        = "email"
)

// ErrWeakSecret is returned when production runs without a strong SESSION_SECRET.
var ErrWeakSecret = errors.New("session secret must be at least 32 characters in production")

// Manager creates per-request bindings to the session cookie.
type Manager struct {
	store  *sessions.CookieStore
	logger *slog.Logger
}

// NewManager configures the cookie store. Keys are derived from secret; an
// empty secret outside production gets a random key, so sessions do not
// survive a restart. mode is config.SessionStorageDurable or
// config.SessionStorageTab.
func NewManager(secret, mode string, secure bool, logger *slog.Logger) (*Manager, error) {
	if len(secret) < 32 {
		if secure {
			return nil, ErrWeakSecret
		}
		if secret == "" {
			secret = string(securecookie.GenerateRandomKey(32))
			logger.Warn("SESSION_SECRET not set; using an ephemeral key")
		} else {
			logger.Warn("session secret is weak; 32+ random chars required in production", "length", len(secret))
		}
	}

	hashKey := sha256.Sum256([]byte("linkvault-hash:" + secret))
	blockKey := sha256.Sum256([]byte("linkvault-block:" + secret))
	store := sessions.NewCookieStore(hashKey[:], blockKey[:])

	opts := &sessions.Options{
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	switch mode {
	case config.SessionStorageTab:
		// No Max-Age: the browser drops the cookie when the session ends
		opts.MaxAge = 0
		store.MaxAge(0)
	default:
		opts.MaxAge = int(DurableMaxAge.Seconds())
		store.MaxAge(opts.MaxAge)
	}
	store.Options = opts

	logger.Info("session store initialized", "mode", mode, "secure", secure)
	return &Manager{store: store, logger: logger}, nil
}

// Bind reads the session cookie of r. A missing or undecodable cookie yields
// an empty binding.
func (m *Manager) Bind(w http.ResponseWriter, r *http.Request) *Binding {
	sess, err := m.store.Get(r, CookieName)
	if err != nil {
		m.logger.Debug("session cookie rejected, starting fresh", "error", err, "path", r.URL.Path)
	}
	return &Binding{w: w, r: r, sess: sess}
}

// Binding is the session cookie of one request. It implements the session
// controller's Storage.
type Binding struct {
	w    http.ResponseWriter
	r    *http.Request
	sess *sessions.Session
}

// WorkspaceID returns the workspace id stored in the cookie, or "".
func (b *Binding) WorkspaceID() string {
	return getString(b.sess, keyWorkspace)
}

// SetWorkspaceID records id and writes the cookie.
func (b *Binding) SetWorkspaceID(id string) error {
	b.sess.Values[keyWorkspace] = id
	return b.sess.Save(b.r, b.w)
}

// Load returns the stored backend session, or nil.
func (b *Binding) Load() (*models.Session, error) {
	access := getString(b.sess, keyAccessToken)
	if access == "" {
		return nil, nil
	}
	s := &models.Session{
		ID:           getString(b.sess, keySessionID),
		AccessToken:  access,
		RefreshToken: getString(b.sess, keyRefreshToken),
		User: models.User{
			ID:    getString(b.sess, keyUserID),
			Email: getString(b.sess, keyEmail),
		},
	}
	if exp, ok := b.sess.Values[keyExpiresAt].(int64); ok && exp > 0 {
		s.ExpiresAt = time.Unix(exp, 0)
	}
	return s, nil
}

// Save stores s and writes the cookie.
func (b *Binding) Save(s *models.Session) error {
	b.sess.Values[keyAccessToken] = s.AccessToken
	b.sess.Values[keyRefreshToken] = s.RefreshToken
	b.sess.Values[keySessionID] = s.ID
	b.sess.Values[keyUserID] = s.User.ID
	b.sess.Values[keyEmail] = s.User.Email
	var exp int64
	if !s.ExpiresAt.IsZero() {
		exp = s.ExpiresAt.Unix()
	}
	b.sess.Values[keyExpiresAt] = exp
	return b.sess.Save(b.r, b.w)
}

// Clear removes the stored session. The workspace id is kept so the same
// workspace serves the next login.
func (b *Binding) Clear() error {
	for _, k := range []string{keyAccessToken, keyRefreshToken, keySessionID, keyUserID, keyEmail, keyExpiresAt} {
		delete(b.sess.Values, k)
	}
	return b.sess.Save(b.r, b.w)
}

func getString(sess *sessions.Session, key string) string {
	s, _ := sess.Values[key].(string)
	return s
}
