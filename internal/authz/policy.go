// Package authz decides whether an authenticated user may perform a request,
// given a role floor and an optional module entitlement. Deny maps to a
// caller-visible forbidden, distinct from unauthenticated.
package authz

import (
	"errors"

	"github.com/flow4ops/backend/internal/models"
)

var (
	// ErrUnauthenticated means no valid user identity was presented.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the user is authenticated but lacks the required
	// role or module entitlement.
	ErrForbidden = errors.New("forbidden")
)

// Authorize permits the request iff the user is active, their role meets the
// floor, and the module (when non-empty) is enabled for their organization.
// Pure function over already-loaded entity state.
func Authorize(user *models.User, floor models.Role, module string) error {
	if user == nil {
		return ErrUnauthenticated
	}
	if !user.IsActive {
		return ErrForbidden
	}
	if !user.Role.AtLeast(floor) {
		return ErrForbidden
	}
	if module != "" && !user.CanAccessModule(module) {
		return ErrForbidden
	}
	return nil
}
