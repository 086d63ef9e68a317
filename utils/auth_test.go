package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-booking-server/config"
	"event-booking-server/types"
)

func useJWTConfig(t *testing.T, secret string, previous ...string) {
	t.Helper()
	old := config.AppConfig
	config.AppConfig = &config.Config{JWT: config.JWTConfig{
		Secret:          secret,
		PreviousSecrets: previous,
		ExpiryHours:     1,
		Issuer:          "event-booking-server",
	}}
	t.Cleanup(func() { config.AppConfig = old })
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestGenerateAndVerifyToken(t *testing.T) {
	useJWTConfig(t, "current")

	token, err := GenerateToken(42, "admin")
	require.NoError(t, err)

	claims, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "event-booking-server", claims.Issuer)
}

func TestVerifyTokenAcceptsRotatedSecret(t *testing.T) {
	useJWTConfig(t, "old-secret")
	token, err := GenerateToken(7, "")
	require.NoError(t, err)

	useJWTConfig(t, "new-secret", "old-secret")
	claims, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)

	useJWTConfig(t, "new-secret")
	_, err = VerifyToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestVerifyTokenRejectsExpiredAndForeignTokens(t *testing.T) {
	useJWTConfig(t, "current")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &types.Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("current"))
	require.NoError(t, err)

	_, err = VerifyToken(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = VerifyToken("not-a-token")
	assert.Error(t, err)

	_, err = VerifyToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
