// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"storehouse/internal/core/idempotency"
	"storehouse/internal/domain/inventory"
	"storehouse/internal/infrastructure/http/v1/handlers"
	"storehouse/internal/infrastructure/http/v1/middleware"
	"storehouse/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// TokenValidator validates bearer tokens
	TokenValidator middleware.TokenValidator

	// Service runs every inventory operation
	Service *inventory.Service

	// IdempotencyStore backs X-Idempotency-Key handling; nil disables it
	IdempotencyStore idempotency.Store

	// HealthChecks are probed by /health/ready
	HealthChecks map[string]handlers.HealthCheck
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!). Recovery sits inside ErrorHandler
	// so a panic still produces the error envelope.
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.TokenValidator))
	if cfg.IdempotencyStore != nil {
		api.Use(middleware.Idempotency(cfg.IdempotencyStore))
	}

	base := handlers.NewBaseHandler()
	handlers.NewMovementHandler(base, cfg.Service).RegisterRoutes(api)
	handlers.NewReceiptHandler(base, cfg.Service).RegisterRoutes(api)
	handlers.NewStockHandler(base, cfg.Service).RegisterRoutes(api)

	return router
}
