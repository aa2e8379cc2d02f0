package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-storefront/utils"
)

func TestGenerateAndParseJWT(t *testing.T) {
	utils.JwtKey = []byte("test-secret")

	token, err := utils.GenerateJWT("64f000000000000000000009", "amina@example.com", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := utils.ParseJWT(token)
	require.NoError(t, err)
	require.Equal(t, "64f000000000000000000009", claims.UserID)
	require.Equal(t, "amina@example.com", claims.Email)
	require.Equal(t, "admin", claims.Role)
	require.Greater(t, claims.ExpiresAt, time.Now().Unix())
}

func TestParseJWTRejectsWrongKey(t *testing.T) {
	utils.JwtKey = []byte("test-secret")
	token, err := utils.GenerateJWT("64f000000000000000000009", "amina@example.com", "user")
	require.NoError(t, err)

	utils.JwtKey = []byte("another-secret")
	_, err = utils.ParseJWT(token)
	require.Error(t, err)
}

func TestParseJWTRejectsGarbage(t *testing.T) {
	utils.JwtKey = []byte("test-secret")
	_, err := utils.ParseJWT("not-a-jwt")
	require.Error(t, err)
}
