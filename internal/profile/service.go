package profile

import (
	"context"
	"fmt"

	"github.com/logify-app/logify/internal/auth"
	"github.com/logify-app/logify/internal/shared"
)

// Service handles profile reads and updates. Every returned value is the
// redacted projection; the raw record never leaves this package.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the redacted profile of a user.
func (s *Service) Get(ctx context.Context, userID string) (*shared.Principal, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile: find user: %w", err)
	}
	return auth.Redact(user), nil
}

// Update changes the mutable profile fields and returns the redacted result.
func (s *Service) Update(ctx context.Context, userID string, params UpdateParams) (*shared.Principal, error) {
	user, err := s.repo.Update(ctx, userID, params)
	if err != nil {
		return nil, fmt.Errorf("profile: update user: %w", err)
	}
	return auth.Redact(user), nil
}

// UpdateOAuth changes the provider link fields and returns the redacted result.
func (s *Service) UpdateOAuth(ctx context.Context, userID string, params OAuthParams) (*shared.Principal, error) {
	user, err := s.repo.UpdateOAuth(ctx, userID, params)
	if err != nil {
		return nil, fmt.Errorf("profile: update oauth info: %w", err)
	}
	return auth.Redact(user), nil
}

// Delete removes the account.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("profile: delete user: %w", err)
	}
	return nil
}
