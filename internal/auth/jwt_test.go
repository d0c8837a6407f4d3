package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123"

func TestNewAuthenticator_WeakSecret(t *testing.T) {
	_, err := NewAuthenticator("short")
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestGenerateAndValidate(t *testing.T) {
	a, err := NewAuthenticator(testSecret)
	require.NoError(t, err)

	token, err := a.GenerateToken("ops", true, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))

	claims, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Operator)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestValidate_Rejects(t *testing.T) {
	a, err := NewAuthenticator(testSecret)
	require.NoError(t, err)
	other, err := NewAuthenticator("another-secret-0123456789")
	require.NoError(t, err)

	expired, err := a.GenerateToken("ops", true, -time.Minute)
	require.NoError(t, err)
	foreign, err := other.GenerateToken("ops", true, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Operator: "ops", IsAdmin: true}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage": "not.a.token",
		"expired": expired,
		"foreign": foreign,
		"none":    none,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := a.ValidateToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRandomAuthenticator(t *testing.T) {
	a, err := NewRandomAuthenticator()
	require.NoError(t, err)

	token, err := a.GenerateToken("ops", false, time.Hour)
	require.NoError(t, err)
	claims, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin)
}
