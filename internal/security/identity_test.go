package security

import (
	"encoding/hex"
	"testing"
)

func TestNewIdentityTokenShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		tok, err := NewIdentityToken()
		if err != nil {
			t.Fatalf("mint token: %v", err)
		}
		if len(tok) != 32 {
			t.Fatalf("expected 32 hex chars (128 bits), got %d: %q", len(tok), tok)
		}
		if _, err := hex.DecodeString(tok); err != nil {
			t.Fatalf("token is not hex: %q", tok)
		}
		if seen[tok] {
			t.Fatalf("duplicate token minted: %q", tok)
		}
		seen[tok] = true
	}
}

func TestIdentityHashDeterministicPerSecret(t *testing.T) {
	const secret = "server-secret"
	h1 := IdentityHash(secret, "alice-token")
	h2 := IdentityHash(secret, "alice-token")
	if h1 != h2 {
		t.Fatalf("same (secret, token) must hash identically: %q vs %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("expected 64 hex chars for sha256 digest, got %d", len(h1))
	}
	if IdentityHash(secret, "bob-token") == h1 {
		t.Fatal("different tokens must not collide")
	}
	if IdentityHash("rotated-secret", "alice-token") == h1 {
		t.Fatal("rotating the secret must unlink prior hashes")
	}
}

func TestSubnetHashCollapsesCoarseSubnet(t *testing.T) {
	const secret = "server-secret"
	if SubnetHash(secret, "203.0.113.7") != SubnetHash(secret, "203.0.113.250") {
		t.Fatal("addresses in the same /24 must share a subnet hash")
	}
	if SubnetHash(secret, "203.0.113.7") == SubnetHash(secret, "203.0.114.7") {
		t.Fatal("addresses in different /24s must not share a subnet hash")
	}
	if SubnetHash(secret, "2001:db8:1:2::aaaa") != SubnetHash(secret, "2001:db8:1:2:ffff::1") {
		t.Fatal("addresses in the same /64 must share a subnet hash")
	}
}
