package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flow4ops/backend/internal/auth"
	"github.com/flow4ops/backend/internal/models"
	"github.com/flow4ops/backend/pkg/response"
)

const (
	// ContextUser is the key for the loaded *models.User in gin context.
	ContextUser = "user"
	// ContextClaims is the key for the validated token claims.
	ContextClaims = "claims"
)

// UserLoader loads the authenticated user with their organization.
// *auth.Repository satisfies it.
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Auth returns a middleware that validates the bearer access token, loads
// the user with their organization, and stores both in the context.
// Refresh tokens, tokens for deleted users and tokens for deactivated users
// are rejected, so a still-valid token stops working the moment the account
// is disabled.
func Auth(svc *auth.Service, repo UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := svc.Authenticate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		userID, err := claims.SubjectID()
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		user, err := repo.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				response.Unauthorized(c, "invalid or expired token")
			} else {
				response.Internal(c, "failed to load user")
			}
			c.Abort()
			return
		}
		if !user.IsActive {
			response.Unauthorized(c, "account disabled")
			c.Abort()
			return
		}
		c.Set(ContextClaims, claims)
		c.Set(ContextUser, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user from the context. Panics if
// called on a route without the Auth middleware.
func CurrentUser(c *gin.Context) *models.User {
	return c.MustGet(ContextUser).(*models.User)
}
