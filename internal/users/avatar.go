package users

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/flow4ops/backend/internal/middleware"
	"github.com/flow4ops/backend/pkg/response"
	"github.com/flow4ops/backend/pkg/storage"
)

// UploadAvatar handles POST /auth/me/avatar. The file is streamed straight
// to the assets bucket, so avatar_url is only stored once the object exists.
// The previous avatar object is removed on replacement.
func (h *Handler) UploadAvatar(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "object storage not configured")
		return
	}
	caller := middleware.CurrentUser(c)

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file required")
		return
	}
	if file.Size > h.s3.MaxFileSize() {
		response.BadRequest(c, "file too large")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !storage.ValidateImageType(contentType, file.Filename) {
		response.BadRequest(c, "unsupported image type")
		return
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(file.Filename)
	}

	src, err := file.Open()
	if err != nil {
		response.BadRequest(c, "unreadable file")
		return
	}
	defer src.Close()

	key := storage.AvatarKey(caller.ID.String(), storage.UniqueFilename(file.Filename))
	url, err := h.s3.Upload(c.Request.Context(), key, contentType, src, file.Size)
	if err != nil {
		h.logger.Error("upload avatar", zap.Error(err))
		response.Internal(c, "failed to upload avatar")
		return
	}

	if caller.AvatarURL != nil {
		if oldKey, ok := h.s3.KeyFromURL(*caller.AvatarURL); ok {
			if err := h.s3.DeleteObject(c.Request.Context(), oldKey); err != nil {
				h.logger.Warn("delete old avatar", zap.Error(err), zap.String("key", oldKey))
			}
		}
	}

	if err := h.repo.SetAvatarURL(c.Request.Context(), caller.OrgID, caller.ID, url); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		h.logger.Error("store avatar url", zap.Error(err))
		response.Internal(c, "failed to store avatar url")
		return
	}
	caller.AvatarURL = &url
	response.OK(c, gin.H{"avatar_url": url})
}

// AvatarDownloadURL handles GET /auth/me/avatar/download-url. The bucket is
// private; clients fetch avatars through short-lived pre-signed GET URLs.
func (h *Handler) AvatarDownloadURL(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "object storage not configured")
		return
	}
	caller := middleware.CurrentUser(c)
	if caller.AvatarURL == nil {
		response.NotFound(c, "no avatar set")
		return
	}
	key, ok := h.s3.KeyFromURL(*caller.AvatarURL)
	if !ok {
		response.NotFound(c, "no avatar set")
		return
	}
	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), key)
	if err != nil {
		h.logger.Error("presign avatar download", zap.Error(err))
		response.Internal(c, "failed to create download url")
		return
	}
	response.OK(c, gin.H{"download_url": url})
}
