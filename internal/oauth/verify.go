package oauth

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Issuer values Google publishes in its OIDC discovery document. Both forms
// appear in the wild.
var googleIssuers = []string{
	"https://accounts.google.com",
	"accounts.google.com",
}

// IDTokenVerifier validates Google ID tokens: signature against Google's
// published JWKS, then issuer, audience, expiry, and the verified-email
// claim. All four checks must pass before an assertion is trusted.
type IDTokenVerifier struct {
	clientID string
	verifier *oidc.IDTokenVerifier
	now      func() time.Time
}

// NewIDTokenVerifier performs OIDC discovery against Google and prepares a
// verifier bound to this application's client id.
func NewIDTokenVerifier(ctx context.Context, clientID string) (*IDTokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuers[0])
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	return &IDTokenVerifier{
		clientID: clientID,
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
		now:      time.Now,
	}, nil
}

// Verify checks the raw ID token and returns the identity claims it carries.
func (v *IDTokenVerifier) Verify(ctx context.Context, rawIDToken string) (*Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("id token signature: %w", err)
	}

	var ident Identity
	if err := idToken.Claims(&ident); err != nil {
		return nil, fmt.Errorf("id token claims: %w", err)
	}

	if err := checkClaims(idToken.Issuer, idToken.Audience, idToken.Expiry, ident, v.clientID, v.now()); err != nil {
		return nil, err
	}
	return &ident, nil
}

// checkClaims applies the trust-boundary checks explicitly even though the
// underlying verifier covers some of them, so the policy stays visible and
// testable in one place.
func checkClaims(issuer string, audience []string, expiry time.Time, ident Identity, clientID string, now time.Time) error {
	if !slices.Contains(googleIssuers, issuer) {
		return fmt.Errorf("unexpected issuer %q", issuer)
	}
	if !slices.Contains(audience, clientID) {
		return fmt.Errorf("token not intended for this client")
	}
	if !expiry.After(now) {
		return fmt.Errorf("token expired")
	}
	if !ident.EmailVerified {
		return fmt.Errorf("email not verified")
	}
	return nil
}
