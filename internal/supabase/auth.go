package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"linkvault/internal/domain/models"
)

// tokenResponse is the GoTrue /token payload.
type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

// SignInWithPassword exchanges email and password for a session.
// Emits SIGNED_IN on success.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	var resp tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body: map[string]string{
			"email":    email,
			"password": password,
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	session, err := c.sessionFromResponse(&resp)
	if err != nil {
		return nil, err
	}

	c.logger.Info("signed in", "user_id", session.User.ID)
	c.events.Publish(AuthEvent{Type: EventSignedIn, UserID: session.User.ID, Session: session})
	return session, nil
}

// RefreshSession trades a refresh token for a new session.
// Emits TOKEN_REFRESHED on success.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	if refreshToken == "" {
		return nil, errors.New("refresh token is empty")
	}

	var resp tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	}, &resp)
	if err != nil {
		return nil, err
	}

	session, err := c.sessionFromResponse(&resp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("session refreshed", "user_id", session.User.ID)
	c.events.Publish(AuthEvent{Type: EventTokenRefreshed, UserID: session.User.ID, Session: session})
	return session, nil
}

// SignOut revokes every refresh token of the session's user (GoTrue global scope).
// SIGNED_OUT is emitted when the backend confirms, or when it reports the
// session as already gone.
func (c *Client) SignOut(ctx context.Context, session *models.Session) error {
	if session == nil {
		return nil
	}

	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		query:  url.Values{"scope": {"global"}},
		token:  session.AccessToken,
	}, nil)

	var apiErr *APIError
	if err != nil && !(errors.As(err, &apiErr) && sessionGone(apiErr.Status)) {
		return err
	}

	c.events.Publish(AuthEvent{Type: EventSignedOut, UserID: session.User.ID})
	return nil
}

func sessionGone(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusNotFound
}

// GetUser returns the user that owns accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*models.User, error) {
	var user models.User
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		token:  accessToken,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) sessionFromResponse(resp *tokenResponse) (*models.Session, error) {
	if resp.AccessToken == "" || resp.User.ID == "" {
		return nil, fmt.Errorf("token response missing access token or user")
	}

	session := &models.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         resp.User,
	}
	switch {
	case resp.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(resp.ExpiresAt, 0)
	case resp.ExpiresIn > 0:
		session.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	// The session_id claim identifies this login across refreshes. The token
	// comes straight from GoTrue over TLS, so the signature is not rechecked.
	var claims models.AuthClaims
	if _, _, err := jwt.NewParser().ParseUnverified(resp.AccessToken, &claims); err == nil {
		session.ID = claims.SessionID
	} else {
		c.logger.Debug("access token claims unreadable", "error", err)
	}

	return session, nil
}
