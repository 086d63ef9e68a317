package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Upload   UploadConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Jobs     JobsConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds the signing secret and the secrets that are still accepted
// for verification after a rotation.
type JWTConfig struct {
	Secret          string
	PreviousSecrets []string
	ExpiryHours     int
	Issuer          string
}

type UploadConfig struct {
	Dir           string
	MaxSizeMB     int
	CloudinaryURL string
}

type RedisConfig struct {
	URL             string
	StatsTTLSeconds int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type JobsConfig struct {
	NotificationRetentionDays int
	RetentionSchedule         string
}

var AppConfig *Config

// ErrMissingJWTSecret is returned by Load when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

func Load() error {
	cfg := &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Database: DatabaseFromEnv(),
		JWT: JWTConfig{
			Secret:          os.Getenv("JWT_SECRET"),
			PreviousSecrets: getEnvAsList("JWT_PREVIOUS_SECRETS"),
			ExpiryHours:     getEnvAsInt("JWT_EXPIRY_HOURS", 24),
			Issuer:          getEnv("JWT_ISSUER", "event-booking-server"),
		},
		Upload: UploadConfig{
			Dir:           getEnv("UPLOAD_DIR", "uploads"),
			MaxSizeMB:     getEnvAsInt("UPLOAD_MAX_MB", 5),
			CloudinaryURL: getEnv("CLOUDINARY_URL", ""),
		},
		Redis: RedisConfig{
			URL:             getEnv("REDIS_URL", ""),
			StatsTTLSeconds: getEnvAsInt("FEEDBACK_STATS_TTL_SECONDS", 300),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		},
		Jobs: JobsConfig{
			NotificationRetentionDays: getEnvAsInt("NOTIFICATION_RETENTION_DAYS", 90),
			RetentionSchedule:         getEnv("RETENTION_SCHEDULE", "@daily"),
		},
	}

	if cfg.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	}

	AppConfig = cfg
	return nil
}

// DatabaseFromEnv reads only the database settings, for tools that do not serve HTTP.
func DatabaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		URL:      getEnv("DB_URL", ""),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "event_booking_db"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
}

// DSN returns DB_URL when set, otherwise a key/value Postgres DSN built from the parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// VerificationSecrets lists every secret a token may have been signed with,
// the current one first.
func (j JWTConfig) VerificationSecrets() []string {
	secrets := make([]string, 0, 1+len(j.PreviousSecrets))
	secrets = append(secrets, j.Secret)
	return append(secrets, j.PreviousSecrets...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
