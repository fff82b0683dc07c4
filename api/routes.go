package api

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/peopledesk/mailbridge/api/handlers"
	"github.com/peopledesk/mailbridge/api/middleware"
	"github.com/peopledesk/mailbridge/config"
	"github.com/peopledesk/mailbridge/internal/logger"
	"github.com/peopledesk/mailbridge/internal/tracing"
	"github.com/peopledesk/mailbridge/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(r *gin.Engine, cfg *config.Config, s *services.Services, log logger.Logger) {
	if s == nil {
		panic("Services cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())                                         // Gin's built-in recovery
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer())) // Our custom Jaeger recovery

	// setup handlers
	apiHandlers := handlers.InitHandlers(cfg, s.MailStore, s.Dispatcher, log)

	// Health check and status endpoints (no custom context needed)
	r.GET("/health", handlers.HealthCheck)
	r.GET("/status", handlers.Status(cfg))

	mail := r.Group("/mail")
	if cfg.AppConfig.APIKey != "" {
		mail.Use(middleware.APIKeyMiddleware(middleware.APIKeyConfig{
			HeaderName:  "X-MAILBRIDGE-API-KEY",
			ValidAPIKey: cfg.AppConfig.APIKey,
		}))
	}
	mail.Use(middleware.TracingMiddleware())
	{
		mail.POST("/test-connection", apiHandlers.Mail.TestConnection())
		mail.POST("/fetch", apiHandlers.Mail.Fetch())
		mail.POST("/fetch-trash", apiHandlers.Mail.FetchTrash())
		mail.POST("/fetch-sent", apiHandlers.Mail.FetchSent())
		mail.POST("/folders", apiHandlers.Mail.Folders())
		mail.POST("/debug-folders", apiHandlers.Mail.Folders())
		mail.POST("/send", apiHandlers.Mail.Send())
		mail.POST("/move-to-trash", apiHandlers.Mail.MoveToTrash())
		mail.POST("/delete-permanently", apiHandlers.Mail.DeletePermanently())
	}
}
