package middleware

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jonny/times-relay/internal/metrics"
	"github.com/jonny/times-relay/pkg/apierror"
)

// Discord signs every interaction with these headers.
const (
	HeaderSignature = "X-Signature-Ed25519"
	HeaderTimestamp = "X-Signature-Timestamp"
)

// ErrBadSignature is the message returned for any verification failure.
const ErrBadSignature = "Bad request signature"

// ParsePublicKey decodes the application's hex-encoded Ed25519 public key.
func ParsePublicKey(hexKey string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("decoding public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, errors.New("invalid public key: want 32 bytes")
	}
	return ed25519.PublicKey(raw), nil
}

// VerifySignature reports whether signature is a valid Ed25519 signature by key
// over timestamp followed by rawBody. Malformed input yields false.
func VerifySignature(rawBody []byte, signature, timestamp string, key ed25519.PublicKey) bool {
	if signature == "" || timestamp == "" || len(key) != ed25519.PublicKeySize {
		return false
	}
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	msg := make([]byte, 0, len(timestamp)+len(rawBody))
	msg = append(msg, timestamp...)
	msg = append(msg, rawBody...)
	return ed25519.Verify(key, msg, sig)
}

// Ed25519Auth rejects POST requests whose body is not signed by key.
// It must run after BodyReader. Other methods pass through.
func Ed25519Auth(key ed25519.PublicKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			body, ok := RawBody(r.Context())
			if !ok || !VerifySignature(body, r.Header.Get(HeaderSignature), r.Header.Get(HeaderTimestamp), key) {
				metrics.SignatureFailuresTotal.Inc()
				apierror.Write(w, apierror.Unauthorized(ErrBadSignature))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
