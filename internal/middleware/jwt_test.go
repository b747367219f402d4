package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flow4ops/backend/internal/auth"
	"github.com/flow4ops/backend/internal/models"
)

type fakeLoader struct {
	users map[uuid.UUID]*models.User
	err   error
}

func (f *fakeLoader) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeLoader) GetByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, auth.ErrUserNotFound
}

func (f *fakeLoader) TouchLastLogin(_ context.Context, _ uuid.UUID) error { return nil }

func authRequest(svc *auth.Service, loader *fakeLoader, token string) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/probe", Auth(svc, loader), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenService("middleware-test-secret", "HS256", time.Hour, 24*time.Hour)
	user := &models.User{
		ID:       uuid.New(),
		OrgID:    uuid.New(),
		IsActive: true,
		Role:     models.RoleUser,
	}
	loader := &fakeLoader{users: map[uuid.UUID]*models.User{user.ID: user}}
	svc := auth.NewService(loader, tokens, auth.NewHasher(0), nil, nil)

	token, err := tokens.IssueAccessToken(user.ID, user.OrgID)
	require.NoError(t, err)

	t.Run("active user passes", func(t *testing.T) {
		w := authRequest(svc, loader, token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("deactivated user rejected despite valid token", func(t *testing.T) {
		user.IsActive = false
		defer func() { user.IsActive = true }()
		w := authRequest(svc, loader, token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("deleted user rejected", func(t *testing.T) {
		w := authRequest(svc, &fakeLoader{users: map[uuid.UUID]*models.User{}}, token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("storage failure is not unauthorized", func(t *testing.T) {
		w := authRequest(svc, &fakeLoader{err: errors.New("connection refused")}, token)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		w := authRequest(svc, loader, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("refresh token rejected on access path", func(t *testing.T) {
		refresh, err := tokens.IssueRefreshToken(user.ID)
		require.NoError(t, err)
		w := authRequest(svc, loader, refresh)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
