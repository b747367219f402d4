package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Tests use bcrypt.MinCost to keep them fast; the production default is 12.
func testHasher() *Hasher {
	return NewHasher(bcrypt.MinCost)
}

func TestHashAndVerify(t *testing.T) {
	h := testHasher()

	hash, err := h.Hash("Secret123!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"), "hash self-describes algorithm")
	assert.True(t, h.Verify("Secret123!", hash))
	assert.False(t, h.Verify("secret123!", hash))
	assert.False(t, h.Verify("", hash))
}

func TestHashSaltsEachCall(t *testing.T) {
	h := testHasher()

	h1, err := h.Hash("Secret123!")
	require.NoError(t, err)
	h2, err := h.Hash("Secret123!")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "random salt makes repeated hashes differ")
	assert.True(t, h.Verify("Secret123!", h1))
	assert.True(t, h.Verify("Secret123!", h2))
}

func TestHashRejectsBadInput(t *testing.T) {
	h := testHasher()

	_, err := h.Hash("")
	assert.ErrorIs(t, err, ErrInvalidCredentialInput)

	_, err = h.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrInvalidCredentialInput)

	_, err = h.Hash(strings.Repeat("x", 72))
	assert.NoError(t, err)
}

func TestVerifyMalformedHash(t *testing.T) {
	h := testHasher()
	assert.False(t, h.Verify("Secret123!", "not-a-bcrypt-hash"))
	assert.False(t, h.Verify("Secret123!", ""))
}

func TestNewHasherCostFallback(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewHasher(0).cost)
	assert.Equal(t, DefaultBcryptCost, NewHasher(99).cost)
	assert.Equal(t, 10, NewHasher(10).cost)
}
