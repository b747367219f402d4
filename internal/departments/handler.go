package departments

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flow4ops/backend/internal/middleware"
	"github.com/flow4ops/backend/internal/models"
	"github.com/flow4ops/backend/pkg/response"
)

// Handler handles department HTTP endpoints, always scoped to the caller's
// tenant.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a departments handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// CreateRequest is the body for POST /departments.
type CreateRequest struct {
	Name       string     `json:"name" binding:"required"`
	HeadUserID *uuid.UUID `json:"head_user_id"`
}

// UpdateRequest is the body for PATCH /departments/:id.
type UpdateRequest struct {
	Name       *string    `json:"name"`
	HeadUserID *uuid.UUID `json:"head_user_id"`
	ClearHead  bool       `json:"clear_head"`
}

// List handles GET /departments.
func (h *Handler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	list, err := h.repo.ListByOrg(c.Request.Context(), user.OrgID)
	if err != nil {
		h.logger.Error("list departments", zap.Error(err))
		response.Internal(c, "failed to list departments")
		return
	}
	response.OK(c, list)
}

// Get handles GET /departments/:id.
func (h *Handler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid department id")
		return
	}
	d, err := h.repo.GetByID(c.Request.Context(), user.OrgID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "department not found")
			return
		}
		response.Internal(c, "failed to load department")
		return
	}
	response.OK(c, d)
}

// Create handles POST /departments (manager or above).
func (h *Handler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name required")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 100 {
		response.BadRequest(c, "name must be 1-100 characters")
		return
	}
	if req.HeadUserID != nil {
		ok, err := h.repo.UserInOrg(c.Request.Context(), user.OrgID, *req.HeadUserID)
		if err != nil || !ok {
			response.BadRequest(c, "head user must belong to your organization")
			return
		}
	}
	d := &models.Department{OrgID: user.OrgID, Name: name, HeadUserID: req.HeadUserID}
	if err := h.repo.Create(c.Request.Context(), d); err != nil {
		h.logger.Error("create department", zap.Error(err))
		response.Internal(c, "failed to create department")
		return
	}
	response.Created(c, d)
}

// Update handles PATCH /departments/:id (manager or above).
func (h *Handler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid department id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	d, err := h.repo.GetByID(c.Request.Context(), user.OrgID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "department not found")
			return
		}
		response.Internal(c, "failed to load department")
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || len(name) > 100 {
			response.BadRequest(c, "name must be 1-100 characters")
			return
		}
		d.Name = name
	}
	if req.ClearHead {
		d.HeadUserID = nil
	} else if req.HeadUserID != nil {
		ok, err := h.repo.UserInOrg(c.Request.Context(), user.OrgID, *req.HeadUserID)
		if err != nil || !ok {
			response.BadRequest(c, "head user must belong to your organization")
			return
		}
		d.HeadUserID = req.HeadUserID
	}

	if err := h.repo.Update(c.Request.Context(), d); err != nil {
		h.logger.Error("update department", zap.Error(err))
		response.Internal(c, "failed to update department")
		return
	}
	response.OK(c, d)
}

// Delete handles DELETE /departments/:id (manager or above).
func (h *Handler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid department id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), user.OrgID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "department not found")
			return
		}
		h.logger.Error("delete department", zap.Error(err))
		response.Internal(c, "failed to delete department")
		return
	}
	response.NoContent(c)
}
