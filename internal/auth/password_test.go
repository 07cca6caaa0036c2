package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ErlanBelekov/contacts-api/internal/auth"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)

	hash, err := h.HashPassword("qwerty123")
	require.NoError(t, err)

	assert.True(t, h.VerifyPassword("qwerty123", hash))
	assert.False(t, h.VerifyPassword("wrong", hash))
}

func TestHashPassword_FreshSaltEachTime(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)

	first, err := h.HashPassword("same-password")
	require.NoError(t, err)
	second, err := h.HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.VerifyPassword("same-password", first))
	assert.True(t, h.VerifyPassword("same-password", second))
}

func TestVerifyPassword_DifferentPlaintexts(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)

	for _, pair := range [][2]string{
		{"alpha", "beta"},
		{"password", "Password"},
		{"", " "},
		{"qwerty123", "qwerty1234"},
	} {
		hash, err := h.HashPassword(pair[1])
		require.NoError(t, err)
		assert.False(t, h.VerifyPassword(pair[0], hash), "%q must not verify against hash of %q", pair[0], pair[1])
	}
}

func TestVerifyPassword_MalformedHash_ReturnsFalse(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)

	for _, hash := range []string{"", "plain-text", "$2a$10$short", "$9z$04$abcdefghijklmnopqrstuv"} {
		assert.False(t, h.VerifyPassword("anything", hash), "hash %q", hash)
	}
}

func TestVerifyPassword_OlderCostStillVerifies(t *testing.T) {
	old := auth.NewHasher(bcrypt.MinCost)
	hash, err := old.HashPassword("qwerty123")
	require.NoError(t, err)

	current := auth.NewHasher(bcrypt.MinCost + 2)
	assert.True(t, current.VerifyPassword("qwerty123", hash))
}

func TestNewHasher_OutOfRangeCost_FallsBackToDefault(t *testing.T) {
	h := auth.NewHasher(99)

	hash, err := h.HashPassword("x")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestHashPassword_LongAndMultibyte(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)

	for _, pw := range []string{
		strings.Repeat("ж", 72),
		strings.Repeat("a", 200),
		"пароль-密码-🔑",
	} {
		hash, err := h.HashPassword(pw)
		require.NoError(t, err, "len %d bytes", len(pw))
		assert.True(t, h.VerifyPassword(pw, hash))
	}
}

func TestVerifyPassword_BytesPast72Count(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)
	prefix := strings.Repeat("a", 72)

	hash, err := h.HashPassword(prefix)
	require.NoError(t, err)

	assert.False(t, h.VerifyPassword(prefix+"b", hash))

	hash, err = h.HashPassword(prefix + "b")
	require.NoError(t, err)
	assert.False(t, h.VerifyPassword(prefix+"c", hash))
	assert.True(t, h.VerifyPassword(prefix+"b", hash))
}
