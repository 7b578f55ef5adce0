package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/logify-app/logify/internal/auth"
	"github.com/logify-app/logify/internal/shared"
)

// UpdateParams carries profile fields to change. Empty fields are left as-is.
type UpdateParams struct {
	Name      string
	AvatarURL string
	Email     string
}

// OAuthParams carries provider link fields to change. Empty fields are left as-is.
type OAuthParams struct {
	GitHubID     string
	GoogleID     string
	AccessToken  string
	RefreshToken string
	AvatarURL    string
}

// Repository defines persistence operations for the profile module.
type Repository interface {
	FindByID(ctx context.Context, id string) (*auth.User, error)
	Update(ctx context.Context, id string, params UpdateParams) (*auth.User, error)
	UpdateOAuth(ctx context.Context, id string, params OAuthParams) (*auth.User, error)
	Delete(ctx context.Context, id string) error
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

func scanUser(row pgx.Row) (*auth.User, error) {
	var user auth.User
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
func (r *PGRepository) FindByID(ctx context.Context, id string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// Update changes the mutable profile fields of a user.
func (r *PGRepository) Update(ctx context.Context, id string, params UpdateParams) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET name = COALESCE(NULLIF($2, ''), name),
			avatar_url = COALESCE(NULLIF($3, ''), avatar_url),
			email = COALESCE(NULLIF($4, ''), email),
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, params.Name, params.AvatarURL, params.Email,
	)
	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

// UpdateOAuth changes the provider link fields of a user.
func (r *PGRepository) UpdateOAuth(ctx context.Context, id string, params OAuthParams) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET github_id = COALESCE(NULLIF($2, ''), github_id),
			google_id = COALESCE(NULLIF($3, ''), google_id),
			access_token = COALESCE(NULLIF($4, ''), access_token),
			refresh_token = COALESCE(NULLIF($5, ''), refresh_token),
			avatar_url = COALESCE(NULLIF($6, ''), avatar_url),
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, params.GitHubID, params.GoogleID, params.AccessToken, params.RefreshToken, params.AvatarURL,
	)
	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

// Delete removes the user record.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
