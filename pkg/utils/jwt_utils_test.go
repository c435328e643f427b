package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "librarian")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "librarian", claims.Username)
	assert.Equal(t, "mediatheque-backend", claims.Issuer)
}

func TestRefreshTokensAreDistinct(t *testing.T) {
	first, err := GenerateRefreshToken(42)
	require.NoError(t, err)
	second, err := GenerateRefreshToken(42)
	require.NoError(t, err)

	// The jti makes every refresh token unique even for the same user.
	assert.NotEqual(t, first, second)

	claims, err := ValidateToken(first)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)

	_, err = ValidateToken("")
	assert.Error(t, err)
}
