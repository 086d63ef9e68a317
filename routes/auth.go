package routes

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"event-booking-server/middleware"
	"event-booking-server/models"
	"event-booking-server/services"
)

// SignupRequest represents the registration payload
type SignupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// LoginRequest accepts a username or an email as identifier
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password" binding:"required"`
}

// ProfileRequest holds the editable profile fields
type ProfileRequest struct {
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

type authHandler struct {
	auth *services.AuthService
}

// RegisterAuthRoutes registers authentication routes
func RegisterAuthRoutes(router *gin.RouterGroup, auth *services.AuthService, requireAuth gin.HandlerFunc) {
	h := &authHandler{auth: auth}

	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("", h.signUp)
		authRoutes.POST("/login", h.login)
		authRoutes.GET("/user", requireAuth, h.currentUser)
		authRoutes.GET("/profile", requireAuth, h.profile)
		authRoutes.PUT("/profile", requireAuth, h.updateProfile)
	}
}

// signUp handles user registration. Admin roles cannot be self-assigned.
func (h *authHandler) signUp(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err.Error())
		return
	}

	role := req.Role
	if models.IsAdminRole(role) {
		log.Printf("⚠️ Signup for %s requested role %q, ignoring", req.Username, role)
		role = ""
	}

	user, err := h.auth.Signup(services.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		respondError(c, err, "User creation failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *authHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err.Error())
		return
	}

	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Username
	}
	if identifier == "" {
		identifier = req.Email
	}

	token, user, err := h.auth.Login(identifier, req.Password)
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

func (h *authHandler) currentUser(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized", "message": "No authenticated user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
		"isAdmin": middleware.IsAdmin(c),
	})
}

func (h *authHandler) profile(c *gin.Context) {
	user, err := h.auth.GetProfile(c.GetUint(middleware.ContextUserID))
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *authHandler) updateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err.Error())
		return
	}

	user, err := h.auth.UpdateProfile(c.GetUint(middleware.ContextUserID), services.ProfileUpdate{
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		respondError(c, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile updated successfully",
		"user":    user,
	})
}
