package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes
func SetupRoutes(handlers *Handlers) *gin.Engine {
	router := gin.Default()

	// Add CORS middleware
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		tasks := api.Group("/tasks")
		{
			tasks.GET("", handlers.ListTasksHandler)
			tasks.POST("", handlers.CreateTaskHandler)
			tasks.GET("/:taskId", handlers.GetTaskHandler)
		}

		documents := api.Group("/documents")
		{
			documents.GET("/:documentId", handlers.GetDocumentHandler)
			documents.GET("/:documentId/checks", handlers.ListChecksHandler)
		}

		api.GET("/checks/:checkId/images/:side", handlers.GetCheckImageHandler)
	}

	// Health check endpoint
	router.GET("/health", handlers.HealthHandler)

	return router
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
