package routes

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/handlers"
	"github.com/dreamtoapp/amwaj-messaging/internal/middlewares"
)

type Handlers struct {
	Health    *handlers.HealthHandler
	Message   *handlers.MessageHandler
	Otp       *handlers.OtpHandler
	Location  *handlers.LocationHandler
	WhatsApp  *handlers.WhatsAppHandler
	Scheduler *handlers.SchedulerHandler
}

// RegisterRoutes registers all API routes with middleware
func RegisterRoutes(e *echo.Echo, h Handlers, cfg *environments.Config) {
	e.GET("/health", h.Health.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/api/v1")
	apiKey := middlewares.APIKeyAuth(cfg.Auth.MessagesAPIKey)

	messages := v1.Group("/messages", apiKey)

	messages.POST("/text", h.Message.SendText)
	messages.POST("/template", h.Message.SendTemplate)
	messages.POST("/hello-world", h.Message.SendHelloWorld)
	messages.POST("/canned/:name", h.Message.SendCanned)
	messages.POST("/queue", h.Message.QueueMessage)

	messages.GET("", h.Message.GetAllMessages)
	messages.GET("/sent", h.Message.GetSentMessages)
	messages.GET("/stats", h.Message.GetStats)
	messages.GET("/cached", h.Message.GetCachedMessages)
	messages.GET("/:id/cached", h.Message.GetCachedMessage)

	messages.POST("/replay", h.Message.ReplayAllFailedMessages)
	messages.POST("/:id/replay", h.Message.ReplayFailedMessage)

	otp := v1.Group("/otp", apiKey)

	otp.POST("/send", h.Otp.SendOtp)
	otp.POST("/verify", h.Otp.VerifyOtp)
	otp.POST("/demo-verify", h.Otp.DemoVerifyOtp)
	otp.GET("/:phone", h.Otp.GetOtpStatus)
	otp.DELETE("/:phone", h.Otp.ResetOtp)

	locations := v1.Group("/locations", apiKey)

	// Static path first so "geocode" is never taken for a session id.
	locations.GET("/geocode", h.Location.ReverseGeocode)
	locations.POST("", h.Location.CreateSession)
	locations.POST("/:id/select", h.Location.Select)
	locations.POST("/:id/drag", h.Location.Drag)
	locations.PUT("/:id/details", h.Location.UpdateDetails)
	locations.GET("/:id", h.Location.GetSession)
	locations.DELETE("/:id", h.Location.DeleteSession)

	whatsapp := v1.Group("/whatsapp", apiKey)

	whatsapp.GET("/status", h.WhatsApp.GetStatus)
	whatsapp.GET("/templates", h.WhatsApp.ListTemplates)
	whatsapp.GET("/templates/:name", h.WhatsApp.GetTemplateStatus)

	schedulerGroup := v1.Group("/scheduler", middlewares.APIKeyAuth(cfg.Auth.SchedulerAPIKey))

	schedulerGroup.POST("/start", h.Scheduler.StartScheduler)
	schedulerGroup.POST("/stop", h.Scheduler.StopScheduler)
	schedulerGroup.GET("/status", h.Scheduler.GetSchedulerStatus)
}
