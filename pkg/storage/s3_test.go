package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateImageType(t *testing.T) {
	assert.True(t, ValidateImageType("image/png", "logo.png"))
	assert.True(t, ValidateImageType("", "logo.PNG"))
	assert.True(t, ValidateImageType("image/jpeg", "photo"))
	assert.False(t, ValidateImageType("application/pdf", "doc.pdf"))
	assert.False(t, ValidateImageType("", "archive.zip"))
	assert.False(t, ValidateImageType("", ""))
}

func TestObjectKeys(t *testing.T) {
	assert.Equal(t, "logos/org-1/logo.png", LogoKey("org-1", "logo.png"))
	assert.Equal(t, "avatars/user-1/me.jpg", AvatarKey("user-1", "me.jpg"))
	// Path components in filenames are stripped.
	assert.Equal(t, "logos/org-1/evil.png", LogoKey("org-1", "../../evil.png"))
}

func TestContentTypeForFilename(t *testing.T) {
	assert.Equal(t, "image/png", ContentTypeForFilename("a.png"))
	assert.Equal(t, "image/jpeg", ContentTypeForFilename("a.JPEG"))
	assert.Equal(t, "application/octet-stream", ContentTypeForFilename("a.bin"))
}

func TestObjectURLRoundTrip(t *testing.T) {
	s := &S3{cfg: S3Config{Region: "us-east-1", AssetsBucket: "assets"}}

	url := s.ObjectURL("avatars/user-1/me.png")
	assert.Equal(t, "https://assets.s3.us-east-1.amazonaws.com/avatars/user-1/me.png", url)

	key, ok := s.KeyFromURL(url)
	assert.True(t, ok)
	assert.Equal(t, "avatars/user-1/me.png", key)

	_, ok = s.KeyFromURL("https://elsewhere.example.com/avatars/user-1/me.png")
	assert.False(t, ok)
	_, ok = s.KeyFromURL("https://assets.s3.us-east-1.amazonaws.com/")
	assert.False(t, ok)
}

func TestMaxFileSize(t *testing.T) {
	assert.Equal(t, int64(5*1024*1024), (&S3{cfg: S3Config{MaxFileSizeMB: 5}}).MaxFileSize())
	// Unset falls back to 10 MB.
	assert.Equal(t, int64(10*1024*1024), (&S3{}).MaxFileSize())
}
