package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flow4ops/backend/internal/models"
)

func activeUser(role models.Role, modules ...string) *models.User {
	return &models.User{
		IsActive:     true,
		Role:         role,
		Organization: &models.Organization{EnabledModules: modules},
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name   string
		user   *models.User
		floor  models.Role
		module string
		want   error
	}{
		{"nil user", nil, models.RoleViewer, "", ErrUnauthenticated},
		{"active user meets floor", activeUser(models.RoleUser, "sales"), models.RoleUser, "", nil},
		{"viewer below user floor", activeUser(models.RoleViewer, "sales"), models.RoleUser, "", ErrForbidden},
		{"admin meets any floor", activeUser(models.RoleAdmin), models.RoleManager, "", nil},
		{"module enabled", activeUser(models.RoleUser, "sales"), models.RoleUser, "sales", nil},
		{"module missing", activeUser(models.RoleUser, "sales"), models.RoleUser, "procurement", ErrForbidden},
		{"no module requirement ignores entitlements", activeUser(models.RoleUser), models.RoleUser, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.user, tt.floor, tt.module))
		})
	}
}

func TestAuthorizeInactiveUser(t *testing.T) {
	u := activeUser(models.RoleAdmin, "sales")
	u.IsActive = false
	assert.Equal(t, ErrForbidden, Authorize(u, models.RoleViewer, ""))
}
