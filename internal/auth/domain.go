package auth

import "time"

// User represents one account record as stored. It can carry sensitive
// fields (password hash, provider tokens); Redact must be applied before the
// record crosses this package's boundary.
type User struct {
	ID              string
	Email           string
	Name            string
	PasswordHash    string
	GitHubID        string
	GoogleID        string
	AccessToken     string
	RefreshToken    string
	AvatarURL       string
	IsEmailVerified bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProviderIdentity is the transient projection of an already-verified
// external provider profile. It is consumed once by Reconcile and discarded,
// never persisted as-is.
type ProviderIdentity struct {
	ProviderID   string
	Email        string
	Name         string
	AvatarURL    string
	AccessToken  string
	RefreshToken string
}
