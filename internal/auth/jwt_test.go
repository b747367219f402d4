package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func testTokenService() *TokenService {
	return NewTokenService(testSecret, "HS256", 30*time.Minute, 7*24*time.Hour)
}

func TestIssueAndValidateAccessToken(t *testing.T) {
	svc := testTokenService()
	userID := uuid.New()
	orgID := uuid.New()

	token, err := svc.IssueAccessToken(userID, orgID)
	require.NoError(t, err)

	claims, err := svc.ValidateAccess(token)
	require.NoError(t, err)

	sub, err := claims.SubjectID()
	require.NoError(t, err)
	assert.Equal(t, userID, sub)

	tenant, err := claims.TenantID()
	require.NoError(t, err)
	assert.Equal(t, orgID, tenant)
	assert.Empty(t, claims.Type)
}

func TestAccessTokenTTLOverride(t *testing.T) {
	base := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	svc := testTokenService().WithClock(func() time.Time { return base })

	token, err := svc.IssueAccessToken(uuid.New(), uuid.New(), 5*time.Minute)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, base.Add(5*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestExpiredTokenRejected(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	svc := testTokenService().WithClock(func() time.Time { return issued })

	token, err := svc.IssueAccessToken(uuid.New(), uuid.New())
	require.NoError(t, err)

	// Validate with the real clock; the 30-minute TTL elapsed long ago.
	svc.WithClock(time.Now)
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenCarriesTypeMarker(t *testing.T) {
	svc := testTokenService()
	userID := uuid.New()

	token, err := svc.IssueRefreshToken(userID)
	require.NoError(t, err)

	claims, err := svc.ValidateRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
	assert.Empty(t, claims.OrgID, "refresh tokens carry no tenant claim")
}

func TestRefreshTokenRejectedAsAccessToken(t *testing.T) {
	svc := testTokenService()

	refresh, err := svc.IssueRefreshToken(uuid.New())
	require.NoError(t, err)
	_, err = svc.ValidateAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	access, err := svc.IssueAccessToken(uuid.New(), uuid.New())
	require.NoError(t, err)
	_, err = svc.ValidateRefresh(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTamperedSignatureRejected(t *testing.T) {
	svc := testTokenService()

	token, err := svc.IssueAccessToken(uuid.New(), uuid.New())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = svc.Validate(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestWrongSecretRejected(t *testing.T) {
	token, err := testTokenService().IssueAccessToken(uuid.New(), uuid.New())
	require.NoError(t, err)

	other := NewTokenService("rotated-secret", "HS256", 30*time.Minute, 7*24*time.Hour)
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "secret rotation invalidates outstanding tokens")
}

func TestMalformedTokenRejected(t *testing.T) {
	svc := testTokenService()
	for _, tok := range []string{"", "garbage", "a.b", "a.b.c"} {
		_, err := svc.Validate(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestAlgorithmVariants(t *testing.T) {
	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		svc := NewTokenService(testSecret, alg, time.Minute, time.Hour)
		token, err := svc.IssueAccessToken(uuid.New(), uuid.New())
		require.NoError(t, err, alg)
		_, err = svc.Validate(token)
		assert.NoError(t, err, alg)
	}
}
