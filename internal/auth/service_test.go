package auth_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/logify-app/logify/internal/auth"
	"github.com/logify-app/logify/internal/shared"
	_ "github.com/logify-app/logify/internal/testing/guard"
)

// memRepo is an in-memory Repository honoring the store's unique-index
// contract, including 23505 conflicts on duplicate writes.
type memRepo struct {
	mu       sync.Mutex
	users    map[string]*auth.User
	sessions map[string]string

	failCreateOnce error
	createCalls    int
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:    make(map[string]*auth.User),
		sessions: make(map[string]string),
	}
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

func providerID(u *auth.User, field auth.ProviderField) string {
	if field == auth.FieldGitHubID {
		return u.GitHubID
	}
	return u.GoogleID
}

func setProviderID(u *auth.User, field auth.ProviderField, id string) {
	if field == auth.FieldGitHubID {
		u.GitHubID = id
		return
	}
	u.GoogleID = id
}

func (m *memRepo) FindByID(ctx context.Context, id string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRepo) FindByProviderID(ctx context.Context, field auth.ProviderField, id string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if providerID(u, field) == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRepo) CreateLocal(ctx context.Context, params auth.CreateLocalParams) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == params.Email {
			return nil, uniqueViolation()
		}
	}
	now := time.Now().UTC()
	user := &auth.User{
		ID:           uuid.New().String(),
		Email:        params.Email,
		Name:         params.Name,
		PasswordHash: params.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[user.ID] = user
	clone := *user
	return &clone, nil
}

func (m *memRepo) CreateFromProvider(ctx context.Context, params auth.CreateProviderParams) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.failCreateOnce != nil {
		err := m.failCreateOnce
		m.failCreateOnce = nil
		// The competing writer's row becomes visible with the conflict.
		now := time.Now().UTC()
		user := &auth.User{
			ID:          uuid.New().String(),
			Email:       params.Email,
			Name:        params.Name,
			AccessToken: params.AccessToken,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		setProviderID(user, params.Field, params.ProviderID)
		m.users[user.ID] = user
		return nil, err
	}
	for _, u := range m.users {
		if u.Email == params.Email || providerID(u, params.Field) == params.ProviderID {
			return nil, uniqueViolation()
		}
	}
	now := time.Now().UTC()
	user := &auth.User{
		ID:           uuid.New().String(),
		Email:        params.Email,
		Name:         params.Name,
		AvatarURL:    params.AvatarURL,
		AccessToken:  params.AccessToken,
		RefreshToken: params.RefreshToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	setProviderID(user, params.Field, params.ProviderID)
	m.users[user.ID] = user
	clone := *user
	return &clone, nil
}

func (m *memRepo) LinkProvider(ctx context.Context, userID string, params auth.LinkProviderParams) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	for id, u := range m.users {
		if id != userID && providerID(u, params.Field) == params.ProviderID {
			return nil, uniqueViolation()
		}
	}
	setProviderID(user, params.Field, params.ProviderID)
	if params.AvatarURL != "" {
		user.AvatarURL = params.AvatarURL
	}
	user.AccessToken = params.AccessToken
	user.RefreshToken = params.RefreshToken
	user.UpdatedAt = time.Now().UTC()
	clone := *user
	return &clone, nil
}

func (m *memRepo) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = userID
	return nil
}

func (m *memRepo) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memRepo) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

var _ auth.Repository = (*memRepo)(nil)

func newService(repo auth.Repository) *auth.Service {
	return auth.NewService(repo, auth.NewHasher(bcrypt.MinCost), nil, nil)
}

func TestRegisterAndValidate(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "a@x.com", "pw1secret", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", registered.Email)
	assert.Equal(t, "Ann", registered.Name)
	assert.NotEmpty(t, registered.ID)

	validated, err := svc.Validate(ctx, "a@x.com", "pw1secret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, validated.ID)

	_, err = svc.Validate(ctx, "a@x.com", "wrong-password")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestValidateUnknownEmail(t *testing.T) {
	svc := newService(newMemRepo())

	_, err := svc.Validate(context.Background(), "nobody@x.com", "whatever1")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestValidateOAuthOnlyAccount(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	ctx := context.Background()

	_, err := svc.Reconcile(ctx, auth.GitHub, auth.ProviderIdentity{
		ProviderID: "g9", Email: "oauth@x.com", AccessToken: "tok",
	})
	require.NoError(t, err)

	// An account without a password hash can never log in with one.
	_, err = svc.Validate(ctx, "oauth@x.com", "any-password")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestPrincipalCarriesNoSecrets(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	ctx := context.Background()

	principal, err := svc.Register(ctx, "a@x.com", "pw1secret", "Ann")
	require.NoError(t, err)

	payload, err := json.Marshal(principal)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(payload, &fields))
	assert.NotContains(t, fields, "passwordHash")
	assert.NotContains(t, fields, "accessToken")
	assert.NotContains(t, fields, "refreshToken")

	linked, err := svc.Reconcile(ctx, auth.Google, auth.ProviderIdentity{
		ProviderID: "go1", Email: "a@x.com", AccessToken: "secret-token", RefreshToken: "secret-refresh",
	})
	require.NoError(t, err)
	payload, err = json.Marshal(linked)
	require.NoError(t, err)
	fields = nil
	require.NoError(t, json.Unmarshal(payload, &fields))
	assert.NotContains(t, fields, "accessToken")
	assert.NotContains(t, fields, "refreshToken")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	ctx := context.Background()

	first, err := svc.Register(ctx, "a@x.com", "pw1secret", "Ann")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "a@x.com", "pw2secret", "Imposter")
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	// First registration unaffected.
	validated, err := svc.Validate(ctx, "a@x.com", "pw1secret")
	require.NoError(t, err)
	assert.Equal(t, first.ID, validated.ID)
	assert.Equal(t, 1, repo.count())
}

func TestReconcileCreatesThenMatchesByID(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	ctx := context.Background()
	identity := auth.ProviderIdentity{ProviderID: "g1", Email: "b@x.com", AccessToken: "tok"}

	created, err := svc.Reconcile(ctx, auth.GitHub, identity)
	require.NoError(t, err)
	assert.Equal(t, "g1", created.GitHubID)
	assert.Equal(t, "b@x.com", created.Email)

	again, err := svc.Reconcile(ctx, auth.GitHub, identity)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, 1, repo.count())
}

func TestReconcileLinksExistingLocalUser(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	ctx := context.Background()

	local, err := svc.Register(ctx, "c@x.com", "pw1secret", "Cara")
	require.NoError(t, err)

	linked, err := svc.Reconcile(ctx, auth.GitHub, auth.ProviderIdentity{
		ProviderID: "g2", Email: "c@x.com", AvatarURL: "https://a/img.png", AccessToken: "tok",
	})
	require.NoError(t, err)
	assert.Equal(t, local.ID, linked.ID)
	assert.Equal(t, "c@x.com", linked.Email)
	assert.Equal(t, "g2", linked.GitHubID)
	assert.Equal(t, "https://a/img.png", linked.AvatarURL)

	// Password capability retained after linking.
	validated, err := svc.Validate(ctx, "c@x.com", "pw1secret")
	require.NoError(t, err)
	assert.Equal(t, local.ID, validated.ID)
}

func TestReconcileLinkKeepsAvatarWhenIdentityHasNone(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	ctx := context.Background()

	_, err := svc.Reconcile(ctx, auth.GitHub, auth.ProviderIdentity{
		ProviderID: "g3", Email: "d@x.com", AvatarURL: "https://a/original.png", AccessToken: "tok",
	})
	require.NoError(t, err)

	linked, err := svc.Reconcile(ctx, auth.Google, auth.ProviderIdentity{
		ProviderID: "go3", Email: "d@x.com", AccessToken: "tok2",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://a/original.png", linked.AvatarURL)
	assert.Equal(t, "g3", linked.GitHubID)
	assert.Equal(t, "go3", linked.GoogleID)
}

func TestReconcileIDMatchBeatsEmailMatch(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	ctx := context.Background()

	owner, err := svc.Reconcile(ctx, auth.GitHub, auth.ProviderIdentity{
		ProviderID: "g4", Email: "old@x.com", AccessToken: "tok",
	})
	require.NoError(t, err)

	other, err := svc.Register(ctx, "new@x.com", "pw1secret", "")
	require.NoError(t, err)

	// The provider account changed its email to one owned by another user.
	// The id match must win; the other account stays untouched.
	matched, err := svc.Reconcile(ctx, auth.GitHub, auth.ProviderIdentity{
		ProviderID: "g4", Email: "new@x.com", AccessToken: "tok",
	})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, matched.ID)

	otherAfter, err := repo.FindByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, otherAfter.GitHubID)
}

func TestReconcileMissingEmail(t *testing.T) {
	svc := newService(newMemRepo())

	_, err := svc.Reconcile(context.Background(), auth.Google, auth.ProviderIdentity{
		ProviderID: "go5", AccessToken: "tok",
	})
	assert.ErrorIs(t, err, shared.ErrMissingEmail)
}

func TestReconcileConflictRetriesAsLookup(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	ctx := context.Background()
	identity := auth.ProviderIdentity{ProviderID: "g6", Email: "race@x.com", AccessToken: "tok"}

	// Simulate losing the insert race: the write hits the unique index while
	// the competing row commits. The retry must resolve by lookup.
	repo.failCreateOnce = uniqueViolation()
	resolved, err := svc.Reconcile(ctx, auth.GitHub, identity)
	require.NoError(t, err)
	assert.Equal(t, "g6", resolved.GitHubID)
	assert.Equal(t, 1, repo.count())
	assert.Equal(t, 1, repo.createCalls)
}

func TestConcurrentReconcileSingleRecord(t *testing.T) {
	repo := newMemRepo()
	svc := newService(repo)
	identity := auth.ProviderIdentity{ProviderID: "g7", Email: "burst@x.com", AccessToken: "tok"}

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			principal, err := svc.Reconcile(context.Background(), auth.GitHub, identity)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = principal.ID
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, repo.count())
	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}
}
