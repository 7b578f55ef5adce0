package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/logify-app/logify/internal/observability"
	"github.com/logify-app/logify/internal/shared"
)

// Service wraps credential validation, registration, and OAuth identity
// reconciliation. It never returns a raw User; every result is redacted.
type Service struct {
	repo     Repository
	hasher   *Hasher
	logger   *slog.Logger
	counters *observability.AuthCounters

	// reconcileGroup collapses concurrent callbacks for one external account
	// onto a single flight. The store's unique indexes remain the primary
	// defense against duplicate records.
	reconcileGroup singleflight.Group
}

// NewService constructs a Service.
func NewService(repo Repository, hasher *Hasher, logger *slog.Logger, counters *observability.AuthCounters) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, hasher: hasher, logger: logger, counters: counters}
}

// Validate checks email/password credentials. Unknown email, missing
// password capability, and wrong password are indistinguishable to the
// caller: all yield ErrInvalidCredentials.
func (s *Service) Validate(ctx context.Context, email, password string) (*shared.Principal, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.counters.Login("rejected")
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: find by email: %w", err)
	}
	if user.PasswordHash == "" || !s.hasher.Verify(user.PasswordHash, password) {
		s.counters.Login("rejected")
		return nil, shared.ErrInvalidCredentials
	}
	s.counters.Login("ok")
	return Redact(user), nil
}

// Register creates a password-backed account. The email must not be taken.
func (s *Service) Register(ctx context.Context, email, password, name string) (*shared.Principal, error) {
	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil, shared.ErrAlreadyExists
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("auth: find by email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user, err := s.repo.CreateLocal(ctx, CreateLocalParams{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrAlreadyExists
		}
		return nil, fmt.Errorf("auth: create user: %w", err)
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return Redact(user), nil
}

// Reconcile maps an external provider identity onto a local user record.
// The branch order is fixed: match by provider id, then match by email and
// link, then create. Id-match takes priority so a changed provider email
// cannot fork a second account.
func (s *Service) Reconcile(ctx context.Context, provider Provider, identity ProviderIdentity) (*shared.Principal, error) {
	key := provider.Name + "|" + identity.ProviderID
	v, err, _ := s.reconcileGroup.Do(key, func() (any, error) {
		return s.reconcile(ctx, provider, identity, true)
	})
	if err != nil {
		return nil, err
	}
	return v.(*shared.Principal), nil
}

func (s *Service) reconcile(ctx context.Context, provider Provider, identity ProviderIdentity, retryOnConflict bool) (*shared.Principal, error) {
	user, err := s.repo.FindByProviderID(ctx, provider.IDField, identity.ProviderID)
	if err == nil {
		s.counters.Reconcile(provider.Name, "id-match")
		return Redact(user), nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("auth: find by %s: %w", provider.IDField, err)
	}

	if identity.Email != "" {
		existing, err := s.repo.FindByEmail(ctx, identity.Email)
		if err == nil {
			linked, err := s.repo.LinkProvider(ctx, existing.ID, LinkProviderParams{
				Field:        provider.IDField,
				ProviderID:   identity.ProviderID,
				AvatarURL:    identity.AvatarURL,
				AccessToken:  identity.AccessToken,
				RefreshToken: identity.RefreshToken,
			})
			if err != nil {
				if isUniqueViolation(err) && retryOnConflict {
					return s.reconcile(ctx, provider, identity, false)
				}
				return nil, fmt.Errorf("auth: link %s account: %w", provider.Name, err)
			}
			s.logger.Info("provider linked",
				slog.String("provider", provider.Name),
				slog.String("user_id", linked.ID),
			)
			s.counters.Reconcile(provider.Name, "email-link")
			return Redact(linked), nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("auth: find by email: %w", err)
		}
	}

	if identity.Email == "" {
		return nil, shared.ErrMissingEmail
	}

	created, err := s.repo.CreateFromProvider(ctx, CreateProviderParams{
		Email:        identity.Email,
		Name:         identity.Name,
		Field:        provider.IDField,
		ProviderID:   identity.ProviderID,
		AvatarURL:    identity.AvatarURL,
		AccessToken:  identity.AccessToken,
		RefreshToken: identity.RefreshToken,
	})
	if err != nil {
		// Lost a write race for the same external account. The unique index
		// turns the conflict into a lookup on retry.
		if isUniqueViolation(err) && retryOnConflict {
			return s.reconcile(ctx, provider, identity, false)
		}
		return nil, fmt.Errorf("auth: create user from %s: %w", provider.Name, err)
	}
	s.logger.Info("user created from provider",
		slog.String("provider", provider.Name),
		slog.String("user_id", created.ID),
	)
	s.counters.Reconcile(provider.Name, "create")
	return Redact(created), nil
}

// RegisterSession persists the session audit record in postgres.
func (s *Service) RegisterSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session audit record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
