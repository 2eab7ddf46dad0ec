package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NewIdentityToken mints the per-browser anonymous identity: 128 bits from
// crypto/rand, hex encoded. An entropy failure is returned to the caller and
// must be treated as fatal for the request.
func NewIdentityToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate identity token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// KeyedHash is HMAC-SHA256 over value using the server secret as key, hex
// encoded. Stored identifiers derived through it are unlinkable without the
// secret; rotating the secret orphans prior rows rather than deleting them.
func KeyedHash(secret, value string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

// IdentityHash derives the stable join key for vote rows from an identity token.
func IdentityHash(secret, token string) string {
	return KeyedHash(secret, token)
}

// SubnetHash derives the coarse network fingerprint used by the vote rate cap.
func SubnetHash(secret, address string) string {
	return KeyedHash(secret, NormalizeSubnet(address))
}
