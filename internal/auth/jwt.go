// Package auth provides session tokens, password hashing, and the request
// middleware that turns a bearer token into a caller identity.
//
// SESSION MODEL:
// A successful login or signup issues a signed JWT binding the record's id
// and role for one hour. Every later request presents it in the
// Authorization header. The token's role is trusted as the role at issuance
// time — the policy does not re-read the record's current role on each call.
// Since roles never change after signup that staleness window is only
// reachable through deletion (a token can outlive its record).
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims → {"sub":"<record id>","role":"student",...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// The server verifies the signature with just the secret — no store lookup.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/rahim/student-portal/internal/model"
)

// DefaultTokenTTL is the session length issued on login/signup.
const DefaultTokenTTL = time.Hour

const issuer = "student-portal"

// Identity is the (id, role) pair recovered from a valid session token.
// Anywhere a caller identity is optional, absence is represented by a nil
// *Identity, never by a zero value.
type Identity struct {
	ID   string
	Role model.Role
}

// TokenService mints and resolves session tokens.
//
// It holds the HMAC secret used to sign and verify. The same secret must be
// used for both — keep it out of source control and rotate it periodically.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the default one-hour TTL.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: DefaultTokenTTL}, nil
}

// claims is the JWT payload: the standard registered claims plus the role
// the identity held when the token was minted.
//
// The "sub" (Subject) claim carries the record id. The ID claim ("jti") is
// a fresh xid per token, so two logins in the same second still produce
// distinct token strings.
type claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issue creates and signs a session token for the given record id and role.
//
// Signing algorithm: HS256 (HMAC-SHA256). Symmetric — the same key signs
// and verifies, which is all a single-server deployment needs.
func (s *TokenService) Issue(id string, role model.Role) (string, error) {
	return s.IssueWithTTL(id, role, s.ttl)
}

// IssueWithTTL creates a token with a custom expiry. Used by tests to mint
// already-expired tokens.
func (s *TokenService) IssueWithTTL(id string, role model.Role, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			ID:        xid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Resolve parses and verifies a token string, returning the identity it
// encodes.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired
//   - Issuer matches (prevents tokens from other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// Callers that treat an invalid token as an anonymous request — which is
// every route in this service — discard the error and pass a nil identity
// to the policy. Resolve itself never panics on garbage input.
func (s *TokenService) Resolve(tokenStr string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}
	if !c.Role.Valid() {
		return nil, fmt.Errorf("auth: token has unknown role %q", c.Role)
	}

	return &Identity{ID: c.Subject, Role: c.Role}, nil
}
