package auth

import "linkvault/internal/domain/models"

// JWTVerifier validates Supabase access tokens.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Expired tokens yield domain.ErrSessionExpired; any other failure yields
	// domain.ErrUnauthorized.
	VerifyToken(tokenString string) (*models.AuthClaims, error)

	// Close releases any resources held by the verifier (e.g., HTTP connections for JWKS).
	Close() error
}
