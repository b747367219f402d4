package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/flow4ops/backend/internal/authz"
	"github.com/flow4ops/backend/internal/models"
)

type fakeStore struct {
	users       map[string]*models.User // by email
	byID        map[uuid.UUID]*models.User
	lastLoginID uuid.UUID
}

func newFakeStore(users ...*models.User) *fakeStore {
	s := &fakeStore{users: map[string]*models.User{}, byID: map[uuid.UUID]*models.User{}}
	for _, u := range users {
		s.users[u.Email] = u
		s.byID[u.ID] = u
	}
	return s
}

func (s *fakeStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (s *fakeStore) TouchLastLogin(_ context.Context, id uuid.UUID) error {
	s.lastLoginID = id
	return nil
}

type fakeSink struct {
	events []string
}

func (f *fakeSink) Record(_ context.Context, event string, _ map[string]any) {
	f.events = append(f.events, event)
}

func testUser(t *testing.T, password string, active bool) *models.User {
	t.Helper()
	hash, err := NewHasher(bcrypt.MinCost).Hash(password)
	require.NoError(t, err)
	orgID := uuid.New()
	return &models.User{
		ID:             uuid.New(),
		OrgID:          orgID,
		Email:          "user@acme.test",
		HashedPassword: hash,
		IsActive:       active,
		Name:           "Test User",
		Role:           models.RoleUser,
		Organization: &models.Organization{
			ID:             orgID,
			Name:           "Acme",
			EnabledModules: []string{"sales"},
		},
	}
}

func newTestService(store UserStore, sink AuditSink) *Service {
	tokens := NewTokenService("svc-test-secret", "HS256", 30*time.Minute, 7*24*time.Hour)
	return NewService(store, tokens, NewHasher(bcrypt.MinCost), sink, nil)
}

func TestLoginSuccess(t *testing.T) {
	user := testUser(t, "Secret123!", true)
	store := newFakeStore(user)
	sink := &fakeSink{}
	svc := newTestService(store, sink)

	pair, got, err := svc.Login(context.Background(), user.Email, "Secret123!")
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.ID, store.lastLoginID, "last login recorded")
	assert.Contains(t, sink.events, "login.success")

	claims, err := svc.Authenticate(pair.AccessToken)
	require.NoError(t, err)
	sub, err := claims.SubjectID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, sub)
	tenant, err := claims.TenantID()
	require.NoError(t, err)
	assert.Equal(t, user.OrgID, tenant)
}

func TestLoginUnknownEmailAndWrongPasswordIndistinguishable(t *testing.T) {
	user := testUser(t, "Secret123!", true)
	svc := newTestService(newFakeStore(user), nil)

	_, _, errUnknown := svc.Login(context.Background(), "nobody@acme.test", "Secret123!")
	_, _, errWrong := svc.Login(context.Background(), user.Email, "wrong-password")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := testUser(t, "Secret123!", false)
	sink := &fakeSink{}
	svc := newTestService(newFakeStore(user), sink)

	_, _, err := svc.Login(context.Background(), user.Email, "Secret123!")
	assert.ErrorIs(t, err, ErrAccountInactive)
	assert.Contains(t, sink.events, "login.failed")
}

func TestRefreshRotatesPair(t *testing.T) {
	user := testUser(t, "Secret123!", true)
	svc := newTestService(newFakeStore(user), nil)

	pair, _, err := svc.Login(context.Background(), user.Email, "Secret123!")
	require.NoError(t, err)

	newPair, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, newPair)

	claims, err := svc.Authenticate(newPair.AccessToken)
	require.NoError(t, err)
	tenant, err := claims.TenantID()
	require.NoError(t, err)
	assert.Equal(t, user.OrgID, tenant, "tenant re-read from storage")
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	user := testUser(t, "Secret123!", true)
	svc := newTestService(newFakeStore(user), nil)

	pair, _, err := svc.Login(context.Background(), user.Email, "Secret123!")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshDeniedAfterDeactivation(t *testing.T) {
	user := testUser(t, "Secret123!", true)
	store := newFakeStore(user)
	svc := newTestService(store, nil)

	pair, _, err := svc.Login(context.Background(), user.Email, "Secret123!")
	require.NoError(t, err)

	user.IsActive = false
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestRefreshUnknownUser(t *testing.T) {
	user := testUser(t, "Secret123!", true)
	svc := newTestService(newFakeStore(user), nil)

	pair, _, err := svc.Login(context.Background(), user.Email, "Secret123!")
	require.NoError(t, err)

	// Same secret, so the token verifies but the subject no longer exists.
	empty := newTestService(newFakeStore(), nil)
	_, err = empty.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// End-to-end: login, then authorize against role floor and module
// entitlement, mirroring the request path.
func TestLoginThenAuthorize(t *testing.T) {
	user := testUser(t, "Secret123!", true)
	store := newFakeStore(user)
	svc := newTestService(store, nil)

	pair, _, err := svc.Login(context.Background(), user.Email, "Secret123!")
	require.NoError(t, err)

	claims, err := svc.Authenticate(pair.AccessToken)
	require.NoError(t, err)
	sub, err := claims.SubjectID()
	require.NoError(t, err)

	loaded, err := store.GetByID(context.Background(), sub)
	require.NoError(t, err)

	assert.NoError(t, authz.Authorize(loaded, models.RoleUser, "sales"))
	assert.ErrorIs(t, authz.Authorize(loaded, models.RoleUser, "procurement"), authz.ErrForbidden)
	assert.ErrorIs(t, authz.Authorize(loaded, models.RoleAdmin, ""), authz.ErrForbidden)
}
