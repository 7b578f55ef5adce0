package auth

import "github.com/logify-app/logify/internal/shared"

// Redact strips the password hash and provider tokens from a user record and
// returns the outward-facing projection. Every exit point of this package
// goes through here; handing a *User to a caller directly is a defect.
func Redact(u *User) *shared.Principal {
	if u == nil {
		return nil
	}
	return &shared.Principal{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		AvatarURL:       u.AvatarURL,
		GitHubID:        u.GitHubID,
		GoogleID:        u.GoogleID,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}
