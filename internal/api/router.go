package api

import (
	v1 "github.com/creatorly/churnalytics/internal/api/v1"
	"github.com/creatorly/churnalytics/internal/logger"
	"github.com/creatorly/churnalytics/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Analytics *v1.AnalyticsHandler
	Health    *v1.HealthHandler
}

// NewRouter assembles the gin engine with the standard middleware chain.
func NewRouter(handlers Handlers, log *logger.Logger) *gin.Engine {
	gin.DefaultWriter = log.GetGinLogger()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.TenantMiddleware)
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware)

	router.GET("/health", handlers.Health.Health)

	group := router.Group("/v1")
	{
		analytics := group.Group("/analytics")
		analytics.GET("/churn", handlers.Analytics.GetChurn)
	}

	return router
}
