package trigger

import (
	"crypto/subtle"
	"io"
	"net/http"
	"strconv"
	"time"
)

// maxClockSkew bounds how stale a signed timestamp may be before the request
// is rejected, limiting replay of captured signatures.
const maxClockSkew = 5 * time.Minute

// Middleware authenticates trigger requests: X-API-Key must match, and
// X-Signature must be a valid HMAC over method, path, X-Timestamp, and body.
func Middleware(apiKey, secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey := r.Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(gotKey), []byte(apiKey)) != 1 {
			http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
			return
		}

		timestamp, err := strconv.ParseInt(r.Header.Get("X-Timestamp"), 10, 64)
		if err != nil {
			http.Error(w, `{"error":"invalid timestamp"}`, http.StatusUnauthorized)
			return
		}
		skew := time.Since(time.Unix(timestamp, 0))
		if skew < 0 {
			skew = -skew
		}
		if skew > maxClockSkew {
			http.Error(w, `{"error":"stale timestamp"}`, http.StatusUnauthorized)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, `{"error":"unreadable body"}`, http.StatusBadRequest)
			return
		}
		r.Body.Close()

		if !Verify(secret, r.Method, r.URL.Path, timestamp, string(body), r.Header.Get("X-Signature")) {
			http.Error(w, `{"error":"invalid signature"}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
