package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/logify-app/logify/internal/shared"
)

// CreateLocalParams describes a user created through registration.
type CreateLocalParams struct {
	Email        string
	PasswordHash string
	Name         string
}

// CreateProviderParams describes a user created by OAuth reconciliation.
type CreateProviderParams struct {
	Email        string
	Name         string
	Field        ProviderField
	ProviderID   string
	AvatarURL    string
	AccessToken  string
	RefreshToken string
}

// LinkProviderParams describes an account-linking update on an existing user.
type LinkProviderParams struct {
	Field        ProviderField
	ProviderID   string
	AvatarURL    string
	AccessToken  string
	RefreshToken string
}

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByProviderID(ctx context.Context, field ProviderField, providerID string) (*User, error)
	CreateLocal(ctx context.Context, params CreateLocalParams) (*User, error)
	CreateFromProvider(ctx context.Context, params CreateProviderParams) (*User, error)
	LinkProvider(ctx context.Context, userID string, params LinkProviderParams) (*User, error)

	CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, COALESCE(name, ''), COALESCE(password_hash, ''),
	COALESCE(github_id, ''), COALESCE(google_id, ''), COALESCE(access_token, ''),
	COALESCE(refresh_token, ''), COALESCE(avatar_url, ''), is_email_verified,
	created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.GitHubID, &user.GoogleID, &user.AccessToken,
		&user.RefreshToken, &user.AvatarURL, &user.IsEmailVerified,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByID fetches a user by primary key.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByEmail fetches a user by exact email match.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByProviderID fetches a user by the given provider's external id.
func (r *PGRepository) FindByProviderID(ctx context.Context, field ProviderField, providerID string) (*User, error) {
	column, err := providerColumn(field)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, providerID)
	return scanUser(row)
}

// CreateLocal inserts a password-backed user record.
func (r *PGRepository) CreateLocal(ctx context.Context, params CreateLocalParams) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, now(), now())
		RETURNING `+userColumns,
		uuid.New().String(), params.Email, params.Name, params.PasswordHash,
	)
	return scanUser(row)
}

// CreateFromProvider inserts a user record for a first-time OAuth login. No
// password hash is set; the provider id is the sole authentication method.
func (r *PGRepository) CreateFromProvider(ctx context.Context, params CreateProviderParams) (*User, error) {
	column, err := providerColumn(params.Field)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, `+column+`, avatar_url, access_token, refresh_token, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), now(), now())
		RETURNING `+userColumns,
		uuid.New().String(), params.Email, params.Name, params.ProviderID,
		params.AvatarURL, params.AccessToken, params.RefreshToken,
	)
	return scanUser(row)
}

// LinkProvider attaches a provider id and its tokens to an existing user.
// The avatar is only overwritten when the identity supplies one; the password
// hash and other provider links stay untouched.
func (r *PGRepository) LinkProvider(ctx context.Context, userID string, params LinkProviderParams) (*User, error) {
	column, err := providerColumn(params.Field)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET `+column+` = $2,
			avatar_url = COALESCE(NULLIF($3, ''), avatar_url),
			access_token = NULLIF($4, ''),
			refresh_token = NULLIF($5, ''),
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		userID, params.ProviderID, params.AvatarURL, params.AccessToken, params.RefreshToken,
	)
	return scanUser(row)
}

// CreateSession persists a login session record for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, created_at, expires_at, ip, ua)
		VALUES ($1, $2, now(), $3, NULLIF($4, ''), NULLIF($5, ''))
		ON CONFLICT (id) DO UPDATE SET user_id = $2, expires_at = $3`,
		id, userID, expiresAt.UTC(), ip, ua,
	)
	return err
}

// DeleteSession removes a session audit record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// PurgeExpiredSessions deletes audit records past their expiry.
func (r *PGRepository) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// providerColumn whitelists the columns reachable through a ProviderField.
func providerColumn(field ProviderField) (string, error) {
	switch field {
	case FieldGitHubID, FieldGoogleID:
		return string(field), nil
	}
	return "", fmt.Errorf("auth: unknown provider field %q", field)
}

// isUniqueViolation reports whether err is a unique-constraint conflict.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
