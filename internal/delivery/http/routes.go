package http

import (
	"github.com/gin-gonic/gin"
	"github.com/giftlens/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		recommendations := v1.Group("/recommendations")
		{
			recommendations.POST("", handler.CreateRecommendation)
			recommendations.GET("", handler.ListRecommendations)
			recommendations.GET("/:id", handler.GetRecommendation)
		}

		curation := v1.Group("/curation")
		{
			curation.POST("/cleanup", handler.CleanupGifts)
			curation.POST("/materials", handler.ResolveMaterials)
		}
	}

	return router
}
