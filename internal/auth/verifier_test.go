package auth_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logify-app/logify/internal/auth"
)

func gatewayRequest(profile, accessToken, refreshToken string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback", nil)
	if profile != "" {
		req.Header.Set(auth.HeaderProfile, base64.StdEncoding.EncodeToString([]byte(profile)))
	}
	if accessToken != "" {
		req.Header.Set(auth.HeaderAccessToken, accessToken)
	}
	if refreshToken != "" {
		req.Header.Set(auth.HeaderRefreshToken, refreshToken)
	}
	return req
}

func TestGatewayVerifier(t *testing.T) {
	verify := auth.NewGatewayVerifier(auth.GitHub)
	profile := `{"id":"77","displayName":"Gia","emails":[{"value":"gia@x.com"}]}`

	identity, err := verify(context.Background(), gatewayRequest(profile, "at", "rt"))
	require.NoError(t, err)
	assert.Equal(t, "77", identity.ProviderID)
	assert.Equal(t, "gia@x.com", identity.Email)
	assert.Equal(t, "at", identity.AccessToken)
	assert.Equal(t, "rt", identity.RefreshToken)
}

func TestGatewayVerifierRejections(t *testing.T) {
	verify := auth.NewGatewayVerifier(auth.GitHub)
	ctx := context.Background()

	// No forwarded profile at all.
	_, err := verify(ctx, gatewayRequest("", "at", ""))
	assert.Error(t, err)

	// Profile present but no access token.
	_, err = verify(ctx, gatewayRequest(`{"id":"77"}`, "", ""))
	assert.Error(t, err)

	// Header is not valid base64.
	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback", nil)
	req.Header.Set(auth.HeaderProfile, "%%%not-base64%%%")
	req.Header.Set(auth.HeaderAccessToken, "at")
	_, err = verify(ctx, req)
	assert.Error(t, err)
}
