package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/flow4ops/backend/internal/authz"
	"github.com/flow4ops/backend/internal/models"
	"github.com/flow4ops/backend/pkg/response"
)

// RequireRole returns a middleware that allows only users whose role meets
// the floor. Call after Auth.
func RequireRole(floor models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		enforce(c, floor, "")
	}
}

// RequireModule returns a middleware that allows only users whose
// organization has the module enabled. Call after Auth.
func RequireModule(module string) gin.HandlerFunc {
	return func(c *gin.Context) {
		enforce(c, models.RoleViewer, module)
	}
}

// RequireRoleAndModule combines a role floor with a module entitlement.
func RequireRoleAndModule(floor models.Role, module string) gin.HandlerFunc {
	return func(c *gin.Context) {
		enforce(c, floor, module)
	}
}

func enforce(c *gin.Context, floor models.Role, module string) {
	userVal, ok := c.Get(ContextUser)
	if !ok {
		response.Unauthorized(c, "missing user context")
		c.Abort()
		return
	}
	user, _ := userVal.(*models.User)
	switch err := authz.Authorize(user, floor, module); err {
	case nil:
		c.Next()
	case authz.ErrUnauthenticated:
		response.Unauthorized(c, "missing user context")
		c.Abort()
	default:
		response.Forbidden(c, "insufficient permissions")
		c.Abort()
	}
}
