package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
)

// Headers populated by the OAuth proxy in front of the service once the
// provider handshake has completed. The core never performs the handshake
// itself; it consumes the verified result.
const (
	HeaderProfile      = "X-Auth-Request-Profile"
	HeaderAccessToken  = "X-Auth-Request-Access-Token"
	HeaderRefreshToken = "X-Auth-Request-Refresh-Token"
)

// VerifierFunc adapts a function to the IdentityVerifier interface.
type VerifierFunc func(ctx context.Context, r *http.Request) (*ProviderIdentity, error)

// Verify implements IdentityVerifier.
func (f VerifierFunc) Verify(ctx context.Context, r *http.Request) (*ProviderIdentity, error) {
	return f(ctx, r)
}

// NewGatewayVerifier builds a verifier that reads the provider profile and
// token pair forwarded by the authenticating proxy. The profile arrives
// base64-encoded in HeaderProfile.
func NewGatewayVerifier(p Provider) VerifierFunc {
	return func(ctx context.Context, r *http.Request) (*ProviderIdentity, error) {
		encoded := r.Header.Get(HeaderProfile)
		if encoded == "" {
			return nil, errors.New("auth: no verified profile on request")
		}
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("auth: decode %s profile: %w", p.Name, err)
		}
		accessToken := r.Header.Get(HeaderAccessToken)
		if accessToken == "" {
			return nil, fmt.Errorf("auth: %s callback carries no access token", p.Name)
		}
		return p.ExtractIdentity(raw, accessToken, r.Header.Get(HeaderRefreshToken))
	}
}
