package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	err := Load()
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "current")
	t.Setenv("JWT_PREVIOUS_SECRETS", "old-1, old-2,,")
	t.Setenv("JWT_EXPIRY_HOURS", "12")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("UPLOAD_MAX_MB", "not-a-number")

	require.NoError(t, Load())

	assert.Equal(t, "current", AppConfig.JWT.Secret)
	assert.Equal(t, []string{"old-1", "old-2"}, AppConfig.JWT.PreviousSecrets)
	assert.Equal(t, 12, AppConfig.JWT.ExpiryHours)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, AppConfig.CORS.AllowedOrigins)
	assert.Equal(t, 5, AppConfig.Upload.MaxSizeMB)
	assert.Equal(t, []string{"current", "old-1", "old-2"}, AppConfig.JWT.VerificationSecrets())
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5433", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable TimeZone=UTC", d.DSN())

	d.URL = "postgresql://u:p@db/n"
	assert.Equal(t, "postgresql://u:p@db/n", d.DSN())
}
