package security

import (
	"strings"
	"testing"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	hasher := NewBcryptHasher(4)

	hash, err := hasher.Hash("password1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}
	if hash == "password1" {
		t.Fatalf("hash must not equal the plaintext")
	}

	if !hasher.Verify("password1", hash) {
		t.Fatalf("correct password rejected")
	}
	if hasher.Verify("password2", hash) {
		t.Fatalf("wrong password accepted")
	}
	if hasher.Verify("password1", "not-a-hash") {
		t.Fatalf("garbage hash accepted")
	}
}

func TestBcryptHasherOutOfRangeCost(t *testing.T) {
	hasher := NewBcryptHasher(99)

	hash, err := hasher.Hash("password1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !hasher.Verify("password1", hash) {
		t.Fatalf("round trip failed with default cost")
	}
}
