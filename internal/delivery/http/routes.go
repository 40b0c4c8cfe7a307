package http

import (
	"github.com/gin-gonic/gin"

	"github.com/chesterzelaya/database-populator/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		categories := v1.Group("/categories")
		{
			categories.GET("", handler.ListCategories)
			categories.GET("/:category", handler.GetCategory)
			categories.POST("/:category/attributes/:attribute/values", handler.AddAllowedValue)
		}

		v1.POST("/acquisitions", handler.Acquire)

		entries := v1.Group("/entries/:entryId")
		{
			entries.POST("/acquisition", handler.StartAcquisition)
			entries.GET("/acquisition", handler.GetAcquisition)
			entries.DELETE("/acquisition", handler.CancelAcquisition)
		}

		v1.POST("/products", handler.SubmitProduct)
	}

	return router
}
