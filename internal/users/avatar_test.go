package users

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flow4ops/backend/internal/auth"
	"github.com/flow4ops/backend/internal/middleware"
	"github.com/flow4ops/backend/internal/models"
	"github.com/flow4ops/backend/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func avatarS3(t *testing.T) *storage.S3 {
	t.Helper()
	s3, err := storage.NewS3(context.Background(), storage.S3Config{
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		AssetsBucket:    "assets",
		MaxFileSizeMB:   1,
	}, zap.NewNop())
	require.NoError(t, err)
	return s3
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func uploadAvatar(h *Handler, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	caller := &models.User{ID: uuid.New(), OrgID: uuid.New(), IsActive: true, Role: models.RoleUser}
	r := gin.New()
	r.POST("/auth/me/avatar", func(c *gin.Context) { c.Set(middleware.ContextUser, caller) }, h.UploadAvatar)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/me/avatar", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)
	return w
}

func TestUploadAvatarValidation(t *testing.T) {
	h := NewHandler(nil, auth.NewHasher(0), avatarS3(t), nil, zap.NewNop())

	t.Run("oversize rejected", func(t *testing.T) {
		body, ct := multipartBody(t, "file", "me.png", bytes.Repeat([]byte("a"), 1024*1024+1))
		w := uploadAvatar(h, body, ct)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "file too large")
	})

	t.Run("non-image rejected", func(t *testing.T) {
		body, ct := multipartBody(t, "file", "cv.pdf", []byte("%PDF"))
		w := uploadAvatar(h, body, ct)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing file rejected", func(t *testing.T) {
		body, ct := multipartBody(t, "other", "me.png", []byte("png"))
		w := uploadAvatar(h, body, ct)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no storage configured", func(t *testing.T) {
		bare := NewHandler(nil, auth.NewHasher(0), nil, nil, zap.NewNop())
		body, ct := multipartBody(t, "file", "me.png", []byte("png"))
		w := uploadAvatar(bare, body, ct)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestAvatarDownloadURLWithoutAvatar(t *testing.T) {
	h := NewHandler(nil, auth.NewHasher(0), avatarS3(t), nil, zap.NewNop())
	caller := &models.User{ID: uuid.New(), OrgID: uuid.New(), IsActive: true, Role: models.RoleUser}

	r := gin.New()
	r.GET("/auth/me/avatar/download-url", func(c *gin.Context) { c.Set(middleware.ContextUser, caller) }, h.AvatarDownloadURL)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me/avatar/download-url", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
