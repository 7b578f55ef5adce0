package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/logify-app/logify/internal/auth"
)

func TestHasherRoundTrip(t *testing.T) {
	hasher := auth.NewHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.True(t, hasher.Verify(hash, "correct horse battery"))
	assert.False(t, hasher.Verify(hash, "wrong password"))
	assert.False(t, hasher.Verify("", "correct horse battery"))
}

func TestHasherCostFallback(t *testing.T) {
	hasher := auth.NewHasher(0)

	hash, err := hasher.Hash("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 10, cost)
}
