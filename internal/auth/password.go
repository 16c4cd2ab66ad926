// Package auth — password hashing.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, which makes brute-force attacks expensive,
// and it salts automatically: two users with the same password get
// different hashes, and the salt travels inside the hash string itself —
// no separate salt column needed.
//
// The stored value is a self-contained string like:
//
//	$2a$12$<22-char salt><31-char hash>
//
// Equality checks always go through CompareHashAndPassword; nothing in this
// codebase compares a plaintext against a hash directly.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly ~250ms on a
// modern server — negligible for a login, brutal for an attacker.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be injected in tests —
// cost 4 (the bcrypt minimum) makes test suites fast without changing the
// logic under test.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom (low)
// cost. Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// Returns an error if the plaintext exceeds 72 bytes — bcrypt silently
// truncates beyond that, so we reject explicitly instead.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether a plaintext password matches a stored bcrypt hash.
//
// A malformed or truncated hash is a mismatch, never a panic — the login
// path treats any false here as "invalid credentials" without caring why.
//
// TIMING SAFETY:
// bcrypt.CompareHashAndPassword compares in constant time, so response
// timing doesn't leak how close a guess was.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
