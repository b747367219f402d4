package users

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flow4ops/backend/internal/auth"
	"github.com/flow4ops/backend/internal/middleware"
	"github.com/flow4ops/backend/internal/models"
	"github.com/flow4ops/backend/pkg/response"
	"github.com/flow4ops/backend/pkg/storage"
)

// Handler handles the admin user-management endpoints and the caller's own
// avatar, scoped to the caller's tenant.
type Handler struct {
	repo   *Repository
	hasher *auth.Hasher
	s3     *storage.S3
	audit  auth.AuditSink
	logger *zap.Logger
}

// NewHandler creates a users handler. s3 and audit may be nil; a nil s3
// makes the avatar endpoints return 503.
func NewHandler(repo *Repository, hasher *auth.Hasher, s3 *storage.S3, sink auth.AuditSink, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, hasher: hasher, s3: s3, audit: sink, logger: logger}
}

// CreateRequest is the body for POST /users.
type CreateRequest struct {
	Email        string     `json:"email" binding:"required,email"`
	Password     string     `json:"password" binding:"required,min=8"`
	Name         string     `json:"name" binding:"required"`
	Role         string     `json:"role"`
	DepartmentID *uuid.UUID `json:"department_id"`
	Phone        *string    `json:"phone"`
}

// UpdateRequest is the body for PATCH /users/:id.
type UpdateRequest struct {
	Name         *string    `json:"name"`
	Role         *string    `json:"role"`
	DepartmentID *uuid.UUID `json:"department_id"`
	ClearDept    bool       `json:"clear_department"`
	Phone        *string    `json:"phone"`
	AvatarURL    *string    `json:"avatar_url"`
}

// List handles GET /users (admin only).
func (h *Handler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	list, err := h.repo.ListByOrg(c.Request.Context(), user.OrgID)
	if err != nil {
		h.logger.Error("list users", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}

// Get handles GET /users/:id (admin only).
func (h *Handler) Get(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	u, err := h.repo.GetByID(c.Request.Context(), caller.OrgID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.Internal(c, "failed to load user")
		return
	}
	response.OK(c, u.ToPublic())
}

// Create handles POST /users (admin only). The new user inherits the
// caller's tenant.
func (h *Handler) Create(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email, password and name required")
		return
	}

	role := models.RoleUser
	if req.Role != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil {
			response.BadRequest(c, "invalid role")
			return
		}
		role = parsed
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentialInput) {
			response.BadRequest(c, "invalid password")
			return
		}
		h.logger.Error("hash password", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	u := &models.User{
		OrgID:          caller.OrgID,
		DepartmentID:   req.DepartmentID,
		Email:          strings.TrimSpace(req.Email),
		HashedPassword: hash,
		IsActive:       true,
		Name:           strings.TrimSpace(req.Name),
		Phone:          req.Phone,
		Role:           role,
	}
	if err := h.repo.Create(c.Request.Context(), u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			response.Conflict(c, "email already registered")
			return
		}
		h.logger.Error("create user", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}
	h.record(c.Request.Context(), "user.created", map[string]any{
		"user_id": u.ID.String(), "by": caller.ID.String(),
	})
	response.Created(c, u.ToPublic())
}

// Update handles PATCH /users/:id (admin only).
func (h *Handler) Update(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	u, err := h.repo.GetByID(c.Request.Context(), caller.OrgID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.Internal(c, "failed to load user")
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			response.BadRequest(c, "name cannot be empty")
			return
		}
		u.Name = name
	}
	if req.Role != nil {
		role, err := models.ParseRole(*req.Role)
		if err != nil {
			response.BadRequest(c, "invalid role")
			return
		}
		u.Role = role
	}
	if req.ClearDept {
		u.DepartmentID = nil
	} else if req.DepartmentID != nil {
		u.DepartmentID = req.DepartmentID
	}
	if req.Phone != nil {
		u.Phone = req.Phone
	}
	if req.AvatarURL != nil {
		u.AvatarURL = req.AvatarURL
	}

	if err := h.repo.Update(c.Request.Context(), u); err != nil {
		h.logger.Error("update user", zap.Error(err))
		response.Internal(c, "failed to update user")
		return
	}
	response.OK(c, u.ToPublic())
}

// PasswordRequest is the body for POST /users/:id/password.
type PasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

// SetPassword handles POST /users/:id/password (admin only). Outstanding
// tokens stay valid until expiry; only new logins use the new password.
func (h *Handler) SetPassword(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "password of at least 8 characters required")
		return
	}
	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentialInput) {
			response.BadRequest(c, "invalid password")
			return
		}
		h.logger.Error("hash password", zap.Error(err))
		response.Internal(c, "failed to set password")
		return
	}
	if err := h.repo.SetPassword(c.Request.Context(), caller.OrgID, id, hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		h.logger.Error("set password", zap.Error(err))
		response.Internal(c, "failed to set password")
		return
	}
	h.record(c.Request.Context(), "user.password_reset", map[string]any{
		"user_id": id.String(), "by": caller.ID.String(),
	})
	response.NoContent(c)
}

// Deactivate handles POST /users/:id/deactivate (admin only). The flag is
// enforced at login and refresh.
func (h *Handler) Deactivate(c *gin.Context) {
	h.setActive(c, false, "user.deactivated")
}

// Activate handles POST /users/:id/activate (admin only).
func (h *Handler) Activate(c *gin.Context) {
	h.setActive(c, true, "user.activated")
}

// Delete handles DELETE /users/:id (admin only). Admins cannot delete
// themselves.
func (h *Handler) Delete(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	if id == caller.ID {
		response.BadRequest(c, "cannot delete your own account")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), caller.OrgID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		h.logger.Error("delete user", zap.Error(err))
		response.Internal(c, "failed to delete user")
		return
	}
	h.record(c.Request.Context(), "user.deleted", map[string]any{
		"user_id": id.String(), "by": caller.ID.String(),
	})
	response.NoContent(c)
}

func (h *Handler) setActive(c *gin.Context, active bool, event string) {
	caller := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	if !active && id == caller.ID {
		response.BadRequest(c, "cannot deactivate your own account")
		return
	}
	if err := h.repo.SetActive(c.Request.Context(), caller.OrgID, id, active); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		h.logger.Error("set active", zap.Error(err))
		response.Internal(c, "failed to update user")
		return
	}
	h.record(c.Request.Context(), event, map[string]any{
		"user_id": id.String(), "by": caller.ID.String(),
	})
	response.NoContent(c)
}

func (h *Handler) record(ctx context.Context, event string, fields map[string]any) {
	if h.audit != nil {
		h.audit.Record(ctx, event, fields)
	}
}
