// Package pkce implements the Proof Key for Code Exchange verifier/challenge
// pair (RFC 7636, S256 method) used to bind an authorization code to the
// client request that generated it.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/pkg/errors"
)

const verifierByteLength = 32

// GenerateCodeVerifier returns a fresh code verifier: 32 cryptographically
// random bytes, hex encoded (64 characters). An unavailable random source
// fails the whole authorization flow rather than degrading silently.
func GenerateCodeVerifier() (string, error) {
	buf := make([]byte, verifierByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "[GenerateCodeVerifier] reading random bytes")
	}
	return hex.EncodeToString(buf), nil
}

// ComputeCodeChallenge derives the S256 code challenge for a verifier:
// the SHA-256 digest of the verifier's ASCII bytes, base64url encoded
// without padding. The challenge must be computed from the exact verifier
// that is later persisted and exchanged; a mismatch is rejected by the
// provider at code exchange.
func ComputeCodeChallenge(verifier string) string {
	digest := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}
