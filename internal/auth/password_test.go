package auth

import (
	"strings"
	"testing"
)

// newTestPasswordService returns a PasswordService with bcrypt cost 4, the
// minimum the library allows. Keeps each hash in the low milliseconds.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(4)
}

func TestHash_ReturnsNonEmptyHash(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("my-secret-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "" {
		t.Error("Hash() returned empty string")
	}
}

func TestHash_NeverEqualsPlaintext(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "secret1" {
		t.Error("Hash() returned the plaintext")
	}
	// bcrypt hashes always start with $2a$ or $2b$
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
}

func TestHash_SamePasswordProducesDifferentHashes(t *testing.T) {
	ps := newTestPasswordService()

	// The salt varies per call, so two hashes of the same plaintext must
	// differ while both still verifying.
	hash1, _ := ps.Hash("same-password")
	hash2, _ := ps.Hash("same-password")

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password (salt must be random)")
	}
	if err := ps.Verify(hash1, "same-password"); err != nil {
		t.Errorf("Verify(hash1) error = %v", err)
	}
	if err := ps.Verify(hash2, "same-password"); err != nil {
		t.Errorf("Verify(hash2) error = %v", err)
	}
}

func TestHash_RejectsOverlongPassword(t *testing.T) {
	ps := newTestPasswordService()

	if _, err := ps.Hash(strings.Repeat("x", 73)); err == nil {
		t.Error("Hash() should reject passwords longer than 72 bytes")
	}
}

func TestVerify_CorrectPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, _ := ps.Hash("correct-horse")
	if err := ps.Verify(hash, "correct-horse"); err != nil {
		t.Errorf("Verify() error = %v, want nil", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, _ := ps.Hash("correct-horse")
	if err := ps.Verify(hash, "battery-staple"); err == nil {
		t.Error("Verify() should fail for the wrong password")
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	ps := newTestPasswordService()

	// A garbage hash must report a mismatch, never panic.
	for _, bad := range []string{"", "not-a-hash", "$2a$garbage"} {
		if err := ps.Verify(bad, "whatever"); err == nil {
			t.Errorf("Verify(%q) should fail", bad)
		}
	}
}
