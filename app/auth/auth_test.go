package auth

import (
	"testing"
	"time"

	"yatube/app/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withJWT(t *testing.T, secret string, hours int) {
	t.Helper()
	prevSecret, prevHours := jwtSecret, jwtExpirationHours
	t.Cleanup(func() { jwtSecret, jwtExpirationHours = prevSecret, prevHours })
	ConfigureJWT(secret, hours)
}

func TestGenerateAndValidateToken(t *testing.T) {
	withJWT(t, "test-secret", 1)
	user := &models.User{ID: 42, Username: "leo"}

	token, err := GenerateToken(user)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "leo", claims.Username)
	assert.Equal(t, "42", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestValidateTokenRejects(t *testing.T) {
	withJWT(t, "test-secret", 1)

	t.Run("garbage", func(t *testing.T) {
		_, err := ValidateToken("not-a-jwt")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := GenerateToken(&models.User{ID: 1, Username: "a"})
		require.NoError(t, err)
		ConfigureJWT("other-secret", 0)
		_, err = ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		claims := Claims{
			UserID: 1,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
		require.NoError(t, err)
		_, err = ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("unsigned", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = ValidateToken(token)
		assert.Error(t, err)
	})
}

func TestConfigureJWTKeepsDefaultsForZeroValues(t *testing.T) {
	withJWT(t, "s", 5)
	ConfigureJWT("", 0)
	assert.Equal(t, []byte("s"), jwtSecret)
	assert.Equal(t, 5*time.Hour, TokenLifetime())
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "correct horse"))
}

func TestNewAPIToken(t *testing.T) {
	a, err := NewAPIToken()
	require.NoError(t, err)
	b, err := NewAPIToken()
	require.NoError(t, err)
	assert.Len(t, a, 40)
	assert.NotEqual(t, a, b)
}
