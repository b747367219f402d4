package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/flow4ops/backend/internal/models"
	"github.com/flow4ops/backend/pkg/response"
)

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the body for POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LoginResponse is the auth response with the token pair and user profile.
type LoginResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	User         models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Login handles POST /auth/login.
// An inactive account answers exactly like a wrong password; the difference
// lives only in the audit trail.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email and password required")
		return
	}

	pair, user, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		response.OK(c, LoginResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			User:         user.ToPublic(),
		})
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrAccountInactive):
		response.Unauthorized(c, "invalid email or password")
	default:
		h.logger.Error("login", zap.Error(err))
		response.Internal(c, "login failed")
	}
}

// Refresh handles POST /auth/refresh.
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "refresh_token required")
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	switch {
	case err == nil:
		response.OK(c, pair)
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrAccountInactive):
		response.Unauthorized(c, "invalid or expired token")
	default:
		h.logger.Error("refresh", zap.Error(err))
		response.Internal(c, "refresh failed")
	}
}

// Me handles GET /auth/me. Requires the Auth middleware.
func (h *Handler) Me(c *gin.Context) {
	user := c.MustGet("user").(*models.User)
	response.OK(c, user.ToPublic())
}
