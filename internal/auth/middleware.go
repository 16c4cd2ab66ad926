package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// errNoToken marks the "no Authorization header at all" case; callers treat
// it the same as a failed resolution (anonymous request).
var errNoToken = errors.New("auth: no bearer token")

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the identity value by guessing a string
// key.
type contextKey string

const identityKey contextKey = "identity"

// ResolveIdentity is a middleware that extracts the caller identity from the
// Authorization header if a valid bearer token is present.
//
// It never rejects a request. A missing, malformed, expired, or tampered
// token simply leaves the request anonymous — the policy layer decides
// per-operation whether anonymity is acceptable. That keeps "who are you"
// (transport) separate from "may you do this" (policy), and means login and
// signup flow through the same middleware as everything else.
func ResolveIdentity(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := extractIdentity(r, tokens); err == nil && id != nil {
				r = r.WithContext(context.WithValue(r.Context(), identityKey, id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext retrieves the authenticated caller from the request
// context.
//
// Returns (nil, false) if the request is anonymous.
//
// Usage in handlers:
//
//	caller, _ := auth.IdentityFromContext(r.Context())
//	// caller may be nil — the service treats nil as "no identity"
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

// extractIdentity reads the bearer token from the Authorization header and
// resolves it. Accepts both "Bearer <token>" and a bare token value, the
// latter because some clients send the raw JWT without the scheme prefix.
func extractIdentity(r *http.Request, tokens *TokenService) (*Identity, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return nil, errNoToken
	}

	tokenStr := header
	if rest, found := strings.CutPrefix(header, "Bearer "); found {
		tokenStr = strings.TrimSpace(rest)
	}

	return tokens.Resolve(tokenStr)
}
