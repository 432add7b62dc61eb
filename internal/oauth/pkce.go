package oauth

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/oauth2"
)

// GenerateState returns a URL-safe random state parameter for the
// authorization request.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateVerifier returns a PKCE code verifier (RFC 7636).
func GenerateVerifier() string {
	return oauth2.GenerateVerifier()
}

// S256Challenge derives the code challenge for a verifier.
func S256Challenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}
