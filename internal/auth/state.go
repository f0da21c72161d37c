package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/findteam/find-backend/internal/model"
)

// stateLifetime is how long the user has to finish the provider's consent
// screen. Long enough to read the prompt, short enough to limit replay.
const stateLifetime = 10 * time.Minute

// stateAudience separates state tokens from session tokens. Both are HS256
// JWTs signed with the same secret, so without this a session token pasted
// into the state parameter would verify.
const stateAudience = "oauth-state"

// StateService issues and verifies the OAuth state parameter.
//
// The state does double duty:
//   - CSRF protection: it is signed and unguessable (random jti), so a
//     callback with a forged or missing state is rejected
//   - role transport: the requested role (USER/ORG/ADMIN) chosen on the
//     sign-in page rides inside the token through the provider redirect,
//     instead of being stashed in server-side session state where two
//     concurrent sign-ins from the same browser could overwrite each other
type StateService struct {
	secret []byte
}

// NewStateService creates a StateService with the given HMAC secret.
func NewStateService(secret string) (*StateService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: state secret must be at least 16 characters")
	}
	return &StateService{secret: []byte(secret)}, nil
}

type stateClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a state token carrying the requested role.
func (s *StateService) Issue(role model.ActorKind) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("auth: cannot issue state for unknown role %q", role)
	}

	now := time.Now()
	c := stateClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Audience:  jwt.ClaimStrings{stateAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateLifetime)),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing state token: %w", err)
	}
	return signed, nil
}

// Verify validates a state token echoed back by the provider and returns
// the role the sign-in started with.
func (s *StateService) Verify(tokenStr string) (model.ActorKind, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&stateClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(stateAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: state token expired")
		}
		return "", fmt.Errorf("auth: invalid state token: %w", err)
	}

	c, ok := token.Claims.(*stateClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid state token claims")
	}

	role := model.ActorKind(c.Role)
	if !role.Valid() {
		return "", fmt.Errorf("auth: state token carries unknown role %q", c.Role)
	}
	return role, nil
}
