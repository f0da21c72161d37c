package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer is stamped into every JWT we sign and checked on validation,
// so tokens minted by other apps sharing a secret are rejected.
const tokenIssuer = "find-backend"

// sessionLifetime is how long a sign-in stays valid. The cookie carries
// nothing but the actor ID, so "session state" is just this token plus a
// database read per request.
const sessionLifetime = 24 * time.Hour

// TokenService issues and validates session JWTs.
//
// The token's Subject claim holds the actor ID — not a user or org ID. The
// middleware resolves the actor back into a full principal on every request,
// which is what keeps the client-side state minimal: delete the actor row
// and every outstanding session for it dies on its next request.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given HMAC secret.
// The secret should be at least 32 bytes of random data in production.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given actor ID.
func (s *TokenService) Generate(actorID string) (string, error) {
	return s.GenerateWithDuration(actorID, sessionLifetime)
}

// GenerateWithDuration creates a token with a custom expiry. Used by tests
// to exercise the expired-token path without sleeping.
func (s *TokenService) GenerateWithDuration(actorID string, d time.Duration) (string, error) {
	now := time.Now()

	c := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a session token, returning the actor ID.
//
// Restricting the accepted algorithms to HS256 prevents algorithm-confusion
// attacks where a token claims to be signed with "none".
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&sessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: session token expired")
		}
		return "", fmt.Errorf("auth: invalid session token: %w", err)
	}

	c, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid session token claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: session token has no subject")
	}
	return c.Subject, nil
}
