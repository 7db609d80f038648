package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Header is the request header carrying the provider's signature.
const Header = "X-Webhook-Signature"

// Sign computes the HMAC-SHA256 hex digest of the payload.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a provided signature against the payload using constant-time
// comparison. An empty provided signature never verifies.
func Verify(secret string, payload []byte, provided string) bool {
	if provided == "" {
		return false
	}
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(provided))
}
