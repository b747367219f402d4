package auth

import "errors"

// Error taxonomy for the auth core. Handlers collapse these to the
// caller-visible outcomes: ErrInvalidCredentials and ErrAccountInactive
// both surface as a generic invalid-credentials 401, ErrInvalidToken as
// an unauthenticated 401. The distinction exists for audit logging only.
var (
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrAccountInactive        = errors.New("account is inactive")
	ErrInvalidToken           = errors.New("invalid token")
	ErrInvalidCredentialInput = errors.New("invalid credential input")
)
