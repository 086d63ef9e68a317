package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"event-booking-server/cache"
	"event-booking-server/config"
	"event-booking-server/database"
	"event-booking-server/jobs"
	"event-booking-server/middleware"
	"event-booking-server/routes"
	"event-booking-server/storage"
	ws "event-booking-server/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	cfg := config.AppConfig

	// Set Gin mode
	if cfg.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database (runs migrations)
	if err := database.Initialize(cfg.Database); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Payment proof storage
	maxUpload := int64(cfg.Upload.MaxSizeMB) << 20
	var proofs storage.ProofStorage
	if cfg.Upload.CloudinaryURL != "" {
		cld, err := storage.NewCloudinaryStorage(cfg.Upload.CloudinaryURL, maxUpload)
		if err != nil {
			log.Fatal("Failed to initialize Cloudinary:", err)
		}
		proofs = cld
		log.Println("☁️ Payment proofs stored on Cloudinary")
	} else {
		local, err := storage.NewLocalStorage(cfg.Upload.Dir, maxUpload)
		if err != nil {
			log.Fatal("Failed to initialize upload directory:", err)
		}
		proofs = local
		log.Printf("📁 Payment proofs stored in %s", local.Dir())
	}

	// Feedback stats cache is optional
	var statsCache cache.StatsCache = cache.NoopStatsCache{}
	if cfg.Redis.URL != "" {
		client, err := cache.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			log.Printf("⚠️ Redis unavailable, feedback stats will not be cached: %v", err)
		} else {
			defer client.Close()
			statsCache = cache.NewRedisStatsCache(client, time.Duration(cfg.Redis.StatsTTLSeconds)*time.Second)
		}
	}

	// Notification hub
	hub := ws.NewHub()
	go hub.Run(ctx)

	rateLimiter := middleware.NewRateLimiter()

	// Start background jobs
	retentionJob := jobs.NewRetentionJob(database.GetDB(), rateLimiter, cfg.Jobs.NotificationRetentionDays)
	if err := retentionJob.Start(cfg.Jobs.RetentionSchedule); err != nil {
		log.Fatal("Failed to start retention job:", err)
	}

	router := routes.NewRouter(routes.Dependencies{
		DB:          database.GetDB(),
		Config:      cfg,
		Hub:         hub,
		Proofs:      proofs,
		StatsCache:  statsCache,
		RateLimiter: rateLimiter,
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	retentionJob.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server shutdown failed: %v", err)
	}
	log.Println("✅ Server stopped")
}
