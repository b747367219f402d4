package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTypeRefresh marks refresh tokens so they are structurally
// distinguishable from access tokens.
const TokenTypeRefresh = "refresh"

// Claims holds the token payload: subject (user id), tenant (org id, access
// tokens only) and a type marker on refresh tokens.
type Claims struct {
	OrgID string `json:"org_id,omitempty"`
	Type  string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID returns the subject claim parsed as a user id.
func (c *Claims) SubjectID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TenantID returns the org_id claim parsed as an organization id.
func (c *Claims) TenantID() (uuid.UUID, error) {
	return uuid.Parse(c.OrgID)
}

// TokenService issues and validates signed access and refresh tokens.
// The secret is set once at construction and never mutated, so concurrent
// use needs no synchronization. Rotating the secret invalidates every
// outstanding token at once.
type TokenService struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a token service. algorithm is one of HS256, HS384,
// HS512; anything else falls back to HS256.
func NewTokenService(secret, algorithm string, accessTTL, refreshTTL time.Duration) *TokenService {
	var method jwt.SigningMethod
	switch algorithm {
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		method = jwt.SigningMethodHS256
	}
	return &TokenService{
		secret:     []byte(secret),
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Used by tests to exercise expiry.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// IssueAccessToken creates a signed access token carrying the user and
// tenant ids. ttlOverride, when given, replaces the configured access TTL.
func (s *TokenService) IssueAccessToken(userID, orgID uuid.UUID, ttlOverride ...time.Duration) (string, error) {
	ttl := s.accessTTL
	if len(ttlOverride) > 0 {
		ttl = ttlOverride[0]
	}
	now := s.now()
	claims := Claims{
		OrgID: orgID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}

// IssueRefreshToken creates a signed refresh token. It carries only the
// subject; the tenant is re-read from storage at refresh time.
func (s *TokenService) IssueRefreshToken(userID uuid.UUID) (string, error) {
	now := s.now()
	claims := Claims{
		Type: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}

// Validate verifies signature and expiry and returns the decoded claims.
// Every failure collapses to ErrInvalidToken; callers must treat it as
// unauthenticated without distinguishing why.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAccess validates an access token. Refresh tokens presented here
// are rejected by their type marker.
func (s *TokenService) ValidateAccess(tokenString string) (*Claims, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type == TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateRefresh validates a refresh token, requiring the type marker.
func (s *TokenService) ValidateRefresh(tokenString string) (*Claims, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
