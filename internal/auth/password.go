package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when no cost is configured.
const DefaultBcryptCost = 12

// bcrypt truncates input beyond 72 bytes, so longer passwords are rejected
// rather than silently weakened.
const maxPasswordBytes = 72

// Hasher hashes and verifies user passwords with bcrypt. The zero value is
// not usable; construct with NewHasher.
type Hasher struct {
	cost int
}

// NewHasher creates a password hasher. Costs outside bcrypt's valid range
// fall back to DefaultBcryptCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a bcrypt hash of the password. Each call salts independently,
// so hashes of the same password differ. The hash string self-describes
// algorithm, cost and salt.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: empty password", ErrInvalidCredentialInput)
	}
	if len(password) > maxPasswordBytes {
		return "", fmt.Errorf("%w: password exceeds %d bytes", ErrInvalidCredentialInput, maxPasswordBytes)
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(bytes), nil
}

// Verify compares a plain password with a stored hash in constant time.
// Malformed hashes return false, never an error.
func (h *Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
