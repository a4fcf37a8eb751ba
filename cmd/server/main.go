// Package main runs the club registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bamika-fc/backend/config"
	"github.com/bamika-fc/backend/internal/auth"
	"github.com/bamika-fc/backend/internal/checkout"
	"github.com/bamika-fc/backend/internal/middleware"
	"github.com/bamika-fc/backend/internal/players"
	"github.com/bamika-fc/backend/internal/registrations"
	"github.com/bamika-fc/backend/internal/settlement"
	"github.com/bamika-fc/backend/internal/uploads"
	"github.com/bamika-fc/backend/pkg/database"
	"github.com/bamika-fc/backend/pkg/queue"
	"github.com/bamika-fc/backend/pkg/redis"
	"github.com/bamika-fc/backend/pkg/response"
	"github.com/bamika-fc/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			PhotosBucket:         cfg.AWS.PhotosBucket,
			DocumentsBucket:      cfg.AWS.DocumentsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Registrations and checkout
	registrationRepo := registrations.NewRepository(pool)
	playerRepo := players.NewRepository(pool)
	checkoutService := checkout.NewService(cfg.Stripe.SecretKey, logger)
	registrationHandler := registrations.NewHandler(registrationRepo, playerRepo, checkoutService, cfg.Frontend.BaseURL, logger)

	// Payment settlement (Stripe webhook)
	eventRepo := settlement.NewRepository(pool)
	processor := settlement.NewProcessor(registrationRepo, playerRepo, eventRepo, jobQueue, cfg.Stripe.DedupeEvents, logger)
	stripeWebhook := settlement.NewWebhookHandler(processor, cfg.Stripe.WebhookSecret, logger)

	// Roster
	playerHandler := players.NewHandler(playerRepo, logger)

	// Uploads (photos and birth certificates)
	uploadHandler := uploads.NewHandler(s3Client, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public: checkout session creation (registration intake submits here)
	router.POST("/api/create-checkout-session", registrationHandler.CreateCheckoutSession)

	// Webhooks (no JWT; signature verified in handler when configured)
	router.POST("/webhooks/stripe", stripeWebhook.HandleStripe)

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("/api")
	api.Use(middleware.JWT(jwtService))
	{
		// Staff directory (admin only; for coach assignment)
		api.GET("/staff", middleware.RequireRole("admin"), authHandler.ListStaff)

		// Registrations
		api.GET("/registrations", registrationHandler.List)
		api.GET("/registrations/:id", registrationHandler.GetByID)
		api.POST("/registrations", middleware.RequireRole("admin"), registrationHandler.CreateManualEntry)

		// Roster
		api.GET("/players", playerHandler.List)
		api.PATCH("/players/:id/assignment", middleware.RequireRole("admin"), playerHandler.UpdateAssignment)

		// Uploads
		api.POST("/upload/photo", uploadHandler.UploadPhoto)
		api.DELETE("/upload/photo", middleware.RequireRole("admin"), uploadHandler.DeletePhoto)
		api.POST("/upload/document", uploadHandler.UploadDocument)
		api.GET("/upload/document-url", uploadHandler.GetDocumentURL)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
