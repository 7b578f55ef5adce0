package auth

import (
	"encoding/json"
	"fmt"
)

// ProviderField names the user-record column holding a provider's external id.
type ProviderField string

// Known provider id fields.
const (
	FieldGitHubID ProviderField = "github_id"
	FieldGoogleID ProviderField = "google_id"
)

// Provider is the capability record that parameterizes the reconciliation
// algorithm. GitHub and Google share one code path and differ only in the
// values below.
type Provider struct {
	Name    string
	IDField ProviderField
	Scopes  []string
}

var (
	// GitHub describes the GitHub OAuth provider.
	GitHub = Provider{Name: "github", IDField: FieldGitHubID, Scopes: []string{"user:email"}}
	// Google describes the Google OAuth provider.
	Google = Provider{Name: "google", IDField: FieldGoogleID, Scopes: []string{"email", "profile"}}
)

// Providers lists every provider the core understands.
func Providers() []Provider {
	return []Provider{GitHub, Google}
}

// rawProfile mirrors the normalized profile shape handed over by the
// completed OAuth handshake upstream.
type rawProfile struct {
	ID          json.Number `json:"id"`
	DisplayName string      `json:"displayName"`
	Emails      []struct {
		Value string `json:"value"`
	} `json:"emails"`
	Photos []struct {
		Value string `json:"value"`
	} `json:"photos"`
}

// ExtractIdentity normalizes a raw provider profile plus its token pair into
// a ProviderIdentity.
func (p Provider) ExtractIdentity(raw []byte, accessToken, refreshToken string) (*ProviderIdentity, error) {
	var profile rawProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("auth: invalid %s profile: %w", p.Name, err)
	}
	if profile.ID.String() == "" {
		return nil, fmt.Errorf("auth: %s profile has no id", p.Name)
	}
	identity := &ProviderIdentity{
		ProviderID:   profile.ID.String(),
		Name:         profile.DisplayName,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	if len(profile.Emails) > 0 {
		identity.Email = profile.Emails[0].Value
	}
	if len(profile.Photos) > 0 {
		identity.AvatarURL = profile.Photos[0].Value
	}
	return identity, nil
}

// ProviderConfig carries the OAuth client settings for one provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Enabled reports whether the provider is fully configured.
func (c ProviderConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.CallbackURL != ""
}

// Validate rejects a partial configuration. A provider missing only some of
// its settings is a deployment mistake and must fail startup rather than
// every request; one with no settings at all simply stays unmounted.
func (c ProviderConfig) Validate(name string) error {
	if c.Enabled() {
		return nil
	}
	if c.ClientID == "" && c.ClientSecret == "" && c.CallbackURL == "" {
		return nil
	}
	return fmt.Errorf("auth: incomplete %s oauth configuration", name)
}
