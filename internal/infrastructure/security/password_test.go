package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	ok, rehash, err := h.Verify(hash, "secret1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, rehash)

	ok, _, err = h.Verify(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_LegacyDigest(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	legacy := LegacyHash("secret1")
	assert.Len(t, legacy, 64)

	ok, rehash, err := h.Verify(legacy, "secret1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, rehash)

	ok, rehash, err = h.Verify(legacy, "secret2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, rehash)
}

func TestBcryptHasher_CostUpgrade(t *testing.T) {
	weak := NewBcryptHasher(bcrypt.MinCost)
	hash, err := weak.Hash("secret1")
	require.NoError(t, err)

	strong := NewBcryptHasher(bcrypt.MinCost + 1)
	ok, rehash, err := strong.Verify(hash, "secret1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, rehash)
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	_, _, err := NewBcryptHasher(0).Verify("not-a-hash", "x")
	assert.Error(t, err)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
}
