package trigger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Sign computes the hex HMAC-SHA256 signature a trigger request carries.
// The signed string is "<method>|<path>|<timestamp>|<body>".
func Sign(secret, method, path string, timestamp int64, body string) string {
	payload := fmt.Sprintf("%s|%s|%d|%s", method, path, timestamp, body)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a received signature against the expected one in constant time.
func Verify(secret, method, path string, timestamp int64, body, signature string) bool {
	expected := Sign(secret, method, path, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
