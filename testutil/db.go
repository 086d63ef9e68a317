// Package testutil holds fixtures shared by the package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"event-booking-server/config"
	"event-booking-server/database"
	"event-booking-server/models"
	"event-booking-server/utils"
)

const TestSecret = "test-secret-key"

// NewDB returns a migrated in-memory SQLite database. A single connection is
// used so every query sees the same memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:"), logger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// UseConfig installs a config suitable for tests and restores the previous one afterwards.
func UseConfig(t *testing.T) *config.Config {
	t.Helper()

	previous := config.AppConfig
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "0", GinMode: "test"},
		JWT: config.JWTConfig{
			Secret:      TestSecret,
			ExpiryHours: 1,
			Issuer:      "event-booking-server",
		},
		Upload: config.UploadConfig{Dir: t.TempDir(), MaxSizeMB: 5},
		Redis:  config.RedisConfig{StatsTTLSeconds: 60},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Jobs:   config.JobsConfig{NotificationRetentionDays: 30, RetentionSchedule: "@daily"},
	}
	config.AppConfig = cfg
	t.Cleanup(func() { config.AppConfig = previous })
	return cfg
}

// CreateUser inserts a user with password "password123".
func CreateUser(t *testing.T, db *gorm.DB, username string, role string) models.User {
	t.Helper()

	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Phone:        "0100000000",
		Address:      "1 Main Street",
	}
	if role != "" {
		user.Role = &role
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func CreatePost(t *testing.T, db *gorm.DB, title string) models.Post {
	t.Helper()

	post := models.Post{
		Title:       title,
		Description: title + " description",
		Category:    "wedding",
		Image:       "https://img.example/" + title + ".png",
		BasePrice:   decimal.NewFromInt(100),
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func CreateBooking(t *testing.T, db *gorm.DB, userID, postID uint, status models.BookingStatus) models.Booking {
	t.Helper()

	booking := models.Booking{
		EventDate:     time.Now().Add(72 * time.Hour),
		TotalPrice:    decimal.NewFromInt(250),
		PaymentMethod: "cash",
		PhoneNumber:   "0100000000",
		Address:       "1 Main Street",
		Status:        status,
		UserID:        userID,
		PostID:        postID,
	}
	require.NoError(t, db.Create(&booking).Error)
	return booking
}

// Token issues a signed access token for the user with the test config.
func Token(t *testing.T, user models.User) string {
	t.Helper()

	token, err := utils.GenerateToken(user.ID, user.RoleName())
	require.NoError(t, err)
	return token
}
