package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/handlers"
	"github.com/dreamtoapp/amwaj-messaging/internal/location"
	"github.com/dreamtoapp/amwaj-messaging/internal/otp"
	"github.com/dreamtoapp/amwaj-messaging/internal/repository"
	"github.com/dreamtoapp/amwaj-messaging/internal/scheduler"
	"github.com/dreamtoapp/amwaj-messaging/internal/service"
	"github.com/dreamtoapp/amwaj-messaging/pkg/database"
	"github.com/dreamtoapp/amwaj-messaging/pkg/geocoding"
	"github.com/dreamtoapp/amwaj-messaging/pkg/logger"
	"github.com/dreamtoapp/amwaj-messaging/pkg/redis"
	"github.com/dreamtoapp/amwaj-messaging/pkg/validator"
	"github.com/dreamtoapp/amwaj-messaging/pkg/webhook"
	"github.com/dreamtoapp/amwaj-messaging/pkg/whatsapp"
	"github.com/dreamtoapp/amwaj-messaging/routes"

	_ "github.com/dreamtoapp/amwaj-messaging/docs" // swagger docs
)

// @title Amwaj Messaging API
// @version 1.0
// @description WhatsApp messaging, phone verification and location picking for Amwaj

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key

// @schemes http https
func main() {
	cfg := environments.Load()

	if err := logger.Init(cfg.Log.Level); err != nil {
		logger.Warnf("Falling back to default logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Auth.MessagesAPIKey == "" {
		logger.Fatalf("MESSAGES_API_KEY is required but not set")
	}
	if cfg.Auth.SchedulerAPIKey == "" {
		logger.Fatalf("SCHEDULER_API_KEY is required but not set")
	}

	// Missing WhatsApp or Maps credentials are not fatal: sends answer 503
	// and lookups fall back to the placeholder address.
	if err := cfg.WhatsApp.Validate(); err != nil {
		logger.Warnf("WhatsApp is not usable yet: %v", err)
	}
	if err := cfg.Maps.Validate(); err != nil {
		logger.Warnf("Reverse geocoding is disabled: %v", err)
	}

	logger.Infof("Starting Amwaj messaging service...")

	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	if os.Getenv("SEED_DATA") == "true" {
		if err := database.SeedTestData(db); err != nil {
			logger.Warnf("Failed to seed test data: %v", err)
		}
	}

	redisClient, err := redis.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Warnf("Redis not available, caching disabled and OTP sessions kept in memory: %v", err)
		redisClient = nil
	}

	whatsappClient := whatsapp.NewClient(cfg.WhatsApp)
	messageRepo := repository.NewMessageRepository(db)

	var (
		messageService *service.MessageService
		otpStore       otp.Store
	)
	if redisClient != nil {
		messageService = service.NewMessageService(messageRepo, whatsappClient, redisClient, cfg.Message)
		otpStore = redisClient
	} else {
		messageService = service.NewMessageService(messageRepo, whatsappClient, nil, cfg.Message)
		otpStore = otp.NewMemoryStore()
	}

	otpFlow := otp.NewFlow(messageService, otpStore, cfg.OTP)
	if otpFlow.DemoMode() {
		logger.Warnf("OTP_ALLOW_INSECURE_DEMO_VERIFY is on; phone numbers can be verified without a code")
	}

	mapsLoader := geocoding.NewLoader(cfg.Maps)
	resolver := geocoding.NewResolver(mapsLoader, cfg.Maps)
	locations := location.NewRegistry(resolver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go locations.RunJanitor(ctx, cfg.Location.SweepInterval, cfg.Location.SessionIdleTimeout)

	sched := scheduler.NewScheduler(messageService, webhook.NewClient(10*time.Second), cfg.Message.SendInterval)

	if os.Getenv("AUTO_START_SCHEDULER") != "false" {
		logger.Infof("Auto-starting scheduler...")
		err := sched.StartWithParams(
			ctx,
			int(cfg.Message.SendInterval.Minutes()),
			cfg.Alert.WebhookURL,
			cfg.Alert.IterationCount,
		)
		if err != nil {
			logger.Warnf("Failed to auto-start scheduler: %v", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()

	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			"x-api-key",
		},
	}))

	routes.RegisterRoutes(e, routes.Handlers{
		Health:    handlers.NewHealthHandler(db, redisClient, cfg.WhatsApp, mapsLoader),
		Message:   handlers.NewMessageHandler(messageService),
		Otp:       handlers.NewOtpHandler(otpFlow),
		Location:  handlers.NewLocationHandler(locations, resolver),
		WhatsApp:  handlers.NewWhatsAppHandler(whatsappClient),
		Scheduler: handlers.NewSchedulerHandler(sched, ctx, cfg),
	}, cfg)

	go func() {
		addr := ":" + cfg.Server.Port
		logger.Infof("Server starting on http://localhost%s", addr)
		logger.Infof("Swagger docs available at http://localhost%s/swagger/index.html", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down gracefully...")

	cancel()

	if sched.IsRunning() {
		logger.Infof("Stopping scheduler...")
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()

		done := make(chan error, 1)
		go func() {
			done <- sched.Stop()
		}()

		select {
		case err := <-done:
			if err != nil {
				logger.Errorf("Error stopping scheduler: %v", err)
			}
		case <-stopCtx.Done():
			logger.Warnf("Scheduler stop timeout, forcing shutdown")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	if err := db.Close(); err != nil {
		logger.Errorf("Error closing database: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Errorf("Error closing Redis: %v", err)
		}
	}

	logger.Infof("Graceful shutdown completed")
}
