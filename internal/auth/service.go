package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/flow4ops/backend/internal/models"
)

// UserStore is the storage collaborator the auth service needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}

// AuditSink receives security events (login success/failure, refresh).
type AuditSink interface {
	Record(ctx context.Context, event string, fields map[string]any)
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service implements the session lifecycle: password login, token refresh
// and access-token authentication.
type Service struct {
	store  UserStore
	tokens *TokenService
	hasher *Hasher
	audit  AuditSink
	logger *zap.Logger

	// dummyHash keeps login timing flat when the email is unknown: bcrypt
	// still runs against it before the not-found error is returned.
	dummyHash string
}

// NewService creates the auth service. audit may be nil.
func NewService(store UserStore, tokens *TokenService, hasher *Hasher, sink AuditSink, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("flow4ops-timing-pad"), bcrypt.MinCost)
	return &Service{
		store:     store,
		tokens:    tokens,
		hasher:    hasher,
		audit:     sink,
		logger:    logger,
		dummyHash: string(dummy),
	}
}

// Login verifies credentials and mints an access+refresh token pair.
// Unknown email and wrong password both return ErrInvalidCredentials so the
// caller cannot tell which. An inactive account with correct credentials
// returns ErrAccountInactive; handlers present it identically to
// ErrInvalidCredentials and only the audit trail keeps the distinction.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error) {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			s.record(ctx, "login.failed", map[string]any{"email": email, "reason": "unknown_email"})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !s.hasher.Verify(password, user.HashedPassword) {
		s.record(ctx, "login.failed", map[string]any{"user_id": user.ID.String(), "reason": "wrong_password"})
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.record(ctx, "login.failed", map[string]any{"user_id": user.ID.String(), "reason": "inactive"})
		return nil, nil, ErrAccountInactive
	}

	pair, err := s.mintPair(user)
	if err != nil {
		return nil, nil, err
	}

	// Fire-and-forget; a failed timestamp write must not fail the login.
	if err := s.store.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("update last_login_at", zap.Error(err), zap.String("user_id", user.ID.String()))
	}
	s.record(ctx, "login.success", map[string]any{"user_id": user.ID.String(), "org_id": user.OrgID.String()})
	return pair, user, nil
}

// Refresh exchanges a valid refresh token for a new token pair. The user row
// is re-read so the tenant id comes from storage, not the old token, and a
// deactivated user cannot refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := claims.SubjectID()
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		s.record(ctx, "token.refresh.denied", map[string]any{"user_id": user.ID.String(), "reason": "inactive"})
		return nil, ErrAccountInactive
	}

	pair, err := s.mintPair(user)
	if err != nil {
		return nil, err
	}
	s.record(ctx, "token.refresh", map[string]any{"user_id": user.ID.String()})
	return pair, nil
}

// Authenticate validates an access token and returns its claims.
func (s *Service) Authenticate(token string) (*Claims, error) {
	return s.tokens.ValidateAccess(token)
}

func (s *Service) mintPair(user *models.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user.ID, user.OrgID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) record(ctx context.Context, event string, fields map[string]any) {
	if s.audit != nil {
		s.audit.Record(ctx, event, fields)
	}
}
