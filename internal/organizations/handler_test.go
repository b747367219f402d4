package organizations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flow4ops/backend/internal/middleware"
	"github.com/flow4ops/backend/internal/models"
	"github.com/flow4ops/backend/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testS3(t *testing.T) *storage.S3 {
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

func postJSON(h gin.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	admin := &models.User{ID: uuid.New(), OrgID: uuid.New(), IsActive: true, Role: models.RoleAdmin}
	r := gin.New()
	r.POST(path, func(c *gin.Context) { c.Set(middleware.ContextUser, admin) }, h)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestLogoUploadURLValidation(t *testing.T) {
	h := NewHandler(nil, testS3(t), zap.NewNop())

	t.Run("oversize rejected", func(t *testing.T) {
		w := postJSON(h.LogoUploadURL, "/organization/logo/upload-url",
			`{"filename":"logo.png","size_bytes":2097152}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "file too large")
	})

	t.Run("size required", func(t *testing.T) {
		w := postJSON(h.LogoUploadURL, "/organization/logo/upload-url",
			`{"filename":"logo.png"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-image rejected", func(t *testing.T) {
		w := postJSON(h.LogoUploadURL, "/organization/logo/upload-url",
			`{"filename":"report.pdf","size_bytes":1024}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no storage configured", func(t *testing.T) {
		bare := NewHandler(nil, nil, zap.NewNop())
		w := postJSON(bare.LogoUploadURL, "/organization/logo/upload-url",
			`{"filename":"logo.png","size_bytes":1024}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestConfirmLogoRejectsForeignURL(t *testing.T) {
	h := NewHandler(nil, testS3(t), zap.NewNop())

	w := postJSON(h.ConfirmLogo, "/organization/logo",
		`{"logo_url":"https://evil.example.com/logos/x/logo.png"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(h.ConfirmLogo, "/organization/logo", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
