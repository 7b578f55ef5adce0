package shared

import "time"

// Principal is the redacted user projection attached to an authenticated
// session. It never carries the password hash or provider tokens; the auth
// package produces it and nothing downstream can reach the full record.
type Principal struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name,omitempty"`
	AvatarURL       string    `json:"avatarUrl,omitempty"`
	GitHubID        string    `json:"githubId,omitempty"`
	GoogleID        string    `json:"googleId,omitempty"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
