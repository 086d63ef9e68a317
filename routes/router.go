package routes

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"event-booking-server/cache"
	"event-booking-server/config"
	"event-booking-server/middleware"
	"event-booking-server/models"
	"event-booking-server/monitoring"
	"event-booking-server/services"
	"event-booking-server/storage"
	ws "event-booking-server/websocket"
)

// Dependencies are the collaborators the HTTP layer is built from
type Dependencies struct {
	DB          *gorm.DB
	Config      *config.Config
	Hub         *ws.Hub
	Proofs      storage.ProofStorage
	StatsCache  cache.StatsCache
	RateLimiter *middleware.RateLimiter
}

var registerValidators sync.Once

// bookingStatus validates the "booking_status" binding tag
func bookingStatus(fl validator.FieldLevel) bool {
	return models.BookingStatus(fl.Field().String()).IsValid()
}

// NewRouter wires services, middleware and every route
func NewRouter(deps Dependencies) *gin.Engine {
	registerValidators.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterValidation("booking_status", bookingStatus)
		}
	})

	cfg := deps.Config
	if cfg == nil {
		cfg = config.AppConfig
	}

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	if gin.Mode() != gin.TestMode {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(middleware.InputValidationMiddleware(int64(cfg.Upload.MaxSizeMB+1) << 20))
	if deps.RateLimiter != nil {
		router.Use(middleware.RateLimitMiddleware(deps.RateLimiter))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Event Booking Server is running",
			"time":    time.Now().UTC(),
		})
	})
	router.GET("/metrics", monitoring.Handler())

	if local, ok := deps.Proofs.(*storage.LocalStorage); ok {
		router.Static(storage.PublicPrefix, local.Dir())
	}

	var pusher services.NotificationPusher
	if deps.Hub != nil {
		pusher = deps.Hub
	}

	notifications := services.NewNotificationService(deps.DB, pusher)
	authService := services.NewAuthService(deps.DB)
	posts := services.NewPostService(deps.DB, notifications)
	bookings := services.NewBookingService(deps.DB, deps.Proofs, notifications)
	feedback := services.NewFeedbackService(deps.DB, deps.StatsCache)

	requireAuth := middleware.AuthMiddleware(deps.DB)
	requireAdmin := middleware.AdminMiddleware()

	api := router.Group("")
	RegisterAuthRoutes(api, authService, requireAuth)
	RegisterPostRoutes(api, posts, requireAuth, requireAdmin)
	RegisterBookingRoutes(api, bookings, requireAuth, requireAdmin)
	RegisterFeedbackRoutes(api, feedback, requireAuth)
	RegisterNotificationRoutes(api, notifications, requireAuth, requireAdmin)

	if deps.Hub != nil {
		RegisterWebSocketRoutes(api, deps.Hub, ws.Upgrader(cfg.CORS.AllowedOrigins), middleware.WebSocketAuthMiddleware(deps.DB))
	}

	return router
}
