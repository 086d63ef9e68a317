package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"event-booking-server/config"
	"event-booking-server/types"
)

var ErrInvalidToken = errors.New("invalid token")

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateToken generates a JWT token for a user. The role is embedded so
// admin checks can rely on a server-issued claim.
func GenerateToken(userID uint, role string) (string, error) {
	cfg := config.AppConfig.JWT
	now := time.Now()

	claims := &types.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpiryHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    cfg.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// VerifyToken verifies a JWT token against the current secret and every
// previous secret still accepted after a rotation.
func VerifyToken(tokenString string) (*types.Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	var lastErr error
	for _, secret := range config.AppConfig.JWT.VerificationSecrets() {
		key := []byte(secret)
		token, err := parser.ParseWithClaims(tokenString, &types.Claims{}, func(token *jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil {
			lastErr = err
			if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
				continue
			}
			return nil, err
		}

		claims, ok := token.Claims.(*types.Claims)
		if !ok || !token.Valid {
			return nil, ErrInvalidToken
		}
		return claims, nil
	}

	if lastErr == nil {
		lastErr = ErrInvalidToken
	}
	return nil, lastErr
}
