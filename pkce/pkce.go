// Package pkce generates OAuth state tokens and PKCE verifier/challenge pairs.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const (
	// MethodS256 is the only challenge method the relay uses.
	MethodS256 = "S256"

	stateBytes    = 32
	verifierBytes = 32
)

// Pair holds a code verifier and its S256 challenge. The verifier never leaves
// the server; the challenge goes to the identity provider.
type Pair struct {
	Verifier  string
	Challenge string
}

// GenerateState returns 32 random bytes as 64 hex characters.
func GenerateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Generate creates a new verifier from 32 random bytes (base64url, no padding)
// and derives its challenge.
func Generate() (Pair, error) {
	b := make([]byte, verifierBytes)
	if _, err := rand.Read(b); err != nil {
		return Pair{}, fmt.Errorf("failed to generate random bytes for PKCE: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(b)
	return Pair{Verifier: verifier, Challenge: ChallengeFromVerifier(verifier)}, nil
}

// ChallengeFromVerifier returns base64url(sha256(verifier)) without padding.
func ChallengeFromVerifier(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
