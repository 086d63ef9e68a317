package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"event-booking-server/models"
	"event-booking-server/types"
	"event-booking-server/utils"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID = "user_id"
	ContextUser   = "user"
	ContextRole   = "role"
)

func abortUnauthorized(c *gin.Context, errMsg, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   errMsg,
		"message": message,
	})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || strings.TrimSpace(tokenString) == "" {
		return "", false
	}
	return strings.TrimSpace(tokenString), true
}

// authenticate verifies the token, loads the user and fills the gin context
func authenticate(c *gin.Context, db *gorm.DB, tokenString string) bool {
	claims, err := utils.VerifyToken(tokenString)
	if err != nil {
		log.Printf("⚠️ Token rejected on %s %s: %v", c.Request.Method, c.FullPath(), err)
		abortUnauthorized(c, "Invalid token", "Token is invalid or expired")
		return false
	}

	var user models.User
	if err := db.First(&user, claims.UserID).Error; err != nil {
		abortUnauthorized(c, "User not found", "User associated with token not found")
		return false
	}

	setUser(c, &user, claims)
	return true
}

func setUser(c *gin.Context, user *models.User, claims *types.Claims) {
	c.Set(ContextUser, *user)
	c.Set(ContextUserID, user.ID)
	c.Set(ContextRole, claims.Role)
}

// AuthMiddleware validates Bearer tokens and sets user context
func AuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "Authorization header required", "Token must be in format: Bearer <token>")
			return
		}
		if !authenticate(c, db, tokenString) {
			return
		}
		c.Next()
	}
}

// WebSocketAuthMiddleware validates the token passed as ?token= since browsers
// cannot set headers on a websocket upgrade
func WebSocketAuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			abortUnauthorized(c, "Token required", "Please provide a valid token in query parameters")
			return
		}
		if !authenticate(c, db, tokenString) {
			return
		}
		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware. Both the signed role claim and
// the stored role have to grant admin access.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Admin access required",
				"message": "You do not have permission to perform this action",
			})
			return
		}
		c.Next()
	}
}

// IsAdmin reports whether the authenticated request belongs to an administrator
func IsAdmin(c *gin.Context) bool {
	if !models.IsAdminRole(c.GetString(ContextRole)) {
		return false
	}
	user, ok := CurrentUser(c)
	return ok && user.IsAdmin()
}

// CurrentUser returns the user loaded by AuthMiddleware
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, exists := c.Get(ContextUser)
	if !exists {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}
