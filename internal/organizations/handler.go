package organizations

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/flow4ops/backend/internal/middleware"
	"github.com/flow4ops/backend/internal/models"
	"github.com/flow4ops/backend/pkg/response"
	"github.com/flow4ops/backend/pkg/storage"
)

var validTiers = map[string]bool{
	models.TierFree:         true,
	models.TierStarter:      true,
	models.TierProfessional: true,
	models.TierEnterprise:   true,
}

// Handler handles organization HTTP endpoints. All routes operate on the
// caller's own tenant; the org id comes from the authenticated user, never
// from the request.
type Handler struct {
	repo   *Repository
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates an organizations handler. s3 may be nil (logo upload
// endpoints then return 503).
func NewHandler(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, s3: s3, logger: logger}
}

// UpdateRequest is the body for PATCH /organization.
type UpdateRequest struct {
	Name             *string        `json:"name"`
	LogoURL          *string        `json:"logo_url"`
	Settings         map[string]any `json:"settings"`
	SubscriptionTier *string        `json:"subscription_tier"`
}

// ModulesRequest is the body for PUT /organization/modules.
type ModulesRequest struct {
	Modules []string `json:"modules" binding:"required"`
}

// LogoUploadRequest is the body for POST /organization/logo/upload-url.
type LogoUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes" binding:"required,gt=0"`
}

// LogoConfirmRequest is the body for POST /organization/logo.
type LogoConfirmRequest struct {
	LogoURL string `json:"logo_url" binding:"required"`
}

// LogoUploadResponse carries the pre-signed PUT URL and the final object URL.
type LogoUploadResponse struct {
	UploadURL string `json:"upload_url"`
	LogoURL   string `json:"logo_url"`
}

// GetCurrent handles GET /organization. Returns the caller's tenant.
func (h *Handler) GetCurrent(c *gin.Context) {
	user := middleware.CurrentUser(c)
	org, err := h.repo.GetByID(c.Request.Context(), user.OrgID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "organization not found")
			return
		}
		h.logger.Error("get organization", zap.Error(err))
		response.Internal(c, "failed to load organization")
		return
	}
	response.OK(c, org)
}

// Update handles PATCH /organization (admin only).
func (h *Handler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	org, err := h.repo.GetByID(c.Request.Context(), user.OrgID)
	if err != nil {
		response.Internal(c, "failed to load organization")
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || len(name) > 255 {
			response.BadRequest(c, "name must be 1-255 characters")
			return
		}
		org.Name = name
	}
	if req.LogoURL != nil {
		org.LogoURL = req.LogoURL
	}
	if req.Settings != nil {
		org.Settings = req.Settings
	}
	if req.SubscriptionTier != nil {
		if !validTiers[*req.SubscriptionTier] {
			response.BadRequest(c, "invalid subscription tier")
			return
		}
		org.SubscriptionTier = *req.SubscriptionTier
	}

	if err := h.repo.UpdateProfile(c.Request.Context(), org); err != nil {
		h.logger.Error("update organization", zap.Error(err))
		response.Internal(c, "failed to update organization")
		return
	}
	response.OK(c, org)
}

// SetModules handles PUT /organization/modules (admin only). The module set
// must stay non-empty.
func (h *Handler) SetModules(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req ModulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "modules required")
		return
	}
	modules := dedupe(req.Modules)
	if len(modules) == 0 {
		response.BadRequest(c, "at least one module must remain enabled")
		return
	}
	if err := h.repo.SetModules(c.Request.Context(), user.OrgID, modules); err != nil {
		h.logger.Error("set modules", zap.Error(err))
		response.Internal(c, "failed to update modules")
		return
	}
	response.OK(c, gin.H{"enabled_modules": modules})
}

// LogoUploadURL handles POST /organization/logo/upload-url (admin only).
// Returns a pre-signed PUT URL; the client uploads directly to S3 and then
// confirms with POST /organization/logo. Nothing is persisted here, so an
// abandoned upload never leaves a dangling logo reference.
func (h *Handler) LogoUploadURL(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "object storage not configured")
		return
	}
	user := middleware.CurrentUser(c)
	var req LogoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "filename and size_bytes required")
		return
	}
	if req.SizeBytes > h.s3.MaxFileSize() {
		response.BadRequest(c, "file too large")
		return
	}
	if !storage.ValidateImageType(req.ContentType, req.Filename) {
		response.BadRequest(c, "unsupported image type")
		return
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(req.Filename)
	}

	key := storage.LogoKey(user.OrgID.String(), storage.UniqueFilename(req.Filename))
	uploadURL, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), key, contentType)
	if err != nil {
		h.logger.Error("presign logo upload", zap.Error(err))
		response.Internal(c, "failed to create upload url")
		return
	}
	response.OK(c, LogoUploadResponse{UploadURL: uploadURL, LogoURL: h.s3.ObjectURL(key)})
}

// ConfirmLogo handles POST /organization/logo (admin only). Called after the
// pre-signed upload succeeded; only then is logo_url persisted. The URL must
// point into the assets bucket.
func (h *Handler) ConfirmLogo(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "object storage not configured")
		return
	}
	user := middleware.CurrentUser(c)
	var req LogoConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "logo_url required")
		return
	}
	if _, ok := h.s3.KeyFromURL(req.LogoURL); !ok {
		response.BadRequest(c, "logo_url must point into the assets bucket")
		return
	}
	if err := h.repo.SetLogoURL(c.Request.Context(), user.OrgID, req.LogoURL); err != nil {
		h.logger.Error("store logo url", zap.Error(err))
		response.Internal(c, "failed to store logo url")
		return
	}
	response.OK(c, gin.H{"logo_url": req.LogoURL})
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, m := range in {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
