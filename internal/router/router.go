package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"labassist/internal/handler"
	"labassist/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	logger *zap.Logger,
	corsOrigins []string,
	sessionH *handler.SessionHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	v1.GET("/metrics", healthH.Metrics)

	sessions := v1.Group("/sessions")
	sessions.POST("", sessionH.Create)
	sessions.POST("/import", sessionH.Import)
	sessions.GET("/:id", sessionH.GetByID)
	sessions.DELETE("/:id", sessionH.End)
	sessions.POST("/:id/analyze", sessionH.Reanalyze)
	sessions.POST("/:id/questions", sessionH.Ask)
	sessions.GET("/:id/export", sessionH.Export)
	sessions.POST("/:id/exports", sessionH.ExportToStorage)

	return r
}
