package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// verifyHMAC checks a hex-encoded HMAC-SHA256 signature over the raw body.
func verifyHMAC(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	return hmac.Equal(mac.Sum(nil), expected)
}

// Sign produces the hex-encoded HMAC-SHA256 signature for a body. Used by
// tests and the CLI when replaying deliveries.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	return hex.EncodeToString(mac.Sum(nil))
}
