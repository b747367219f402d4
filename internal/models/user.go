package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated person within a tenant.
type User struct {
	ID             uuid.UUID  `json:"id"`
	OrgID          uuid.UUID  `json:"org_id"`
	DepartmentID   *uuid.UUID `json:"department_id,omitempty"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"-"`
	IsActive       bool       `json:"is_active"`
	Name           string     `json:"name"`
	AvatarURL      *string    `json:"avatar_url,omitempty"`
	Phone          *string    `json:"phone,omitempty"`
	Role           Role       `json:"role"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Organization is populated by repositories that join the tenant row.
	// Nil when the user was loaded without it.
	Organization *Organization `json:"-"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsManagerOrAbove reports whether the user is a manager or admin.
func (u *User) IsManagerOrAbove() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}

// CanAccessModule reports whether the user's organization has the module
// enabled. False when the organization was not loaded.
func (u *User) CanAccessModule(name string) bool {
	if u.Organization == nil {
		return false
	}
	return u.Organization.HasModule(name)
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID           uuid.UUID  `json:"id"`
	OrgID        uuid.UUID  `json:"org_id"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	Email        string     `json:"email"`
	IsActive     bool       `json:"is_active"`
	Name         string     `json:"name"`
	AvatarURL    *string    `json:"avatar_url,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	Role         Role       `json:"role"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:           u.ID,
		OrgID:        u.OrgID,
		DepartmentID: u.DepartmentID,
		Email:        u.Email,
		IsActive:     u.IsActive,
		Name:         u.Name,
		AvatarURL:    u.AvatarURL,
		Phone:        u.Phone,
		Role:         u.Role,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
}
