package api

import (
	"github.com/mithilsmehta/TaskFlow/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RouterOptions controls the optional parts of the router
type RouterOptions struct {
	CORSOrigin      string
	MockAuthEnabled bool
}

// SetupRoutes configures all API routes
func SetupRoutes(handlers *Handlers, opts RouterOptions) *gin.Engine {
	router := gin.Default()

	// Add CORS middleware
	router.Use(corsMiddleware(opts.CORSOrigin))

	// Real-time channel; authenticates with its first frame
	router.GET("/ws", handlers.SocketHandler)

	api := router.Group("/api")
	{
		if opts.MockAuthEnabled {
			api.POST("/auth/mock-token", handlers.MockTokenHandler)
		}

		tasks := api.Group("/tasks")
		tasks.Use(middleware.JWTAuth(handlers.jwtService))
		{
			tasks.GET("/user-dashboard-data", handlers.UserDashboardHandler)
			tasks.GET("/dashboard-data", middleware.AdminOnly(), handlers.DashboardHandler)
			tasks.GET("", handlers.ListTasksHandler)
			tasks.GET("/:id", handlers.GetTaskHandler)
			tasks.GET("/:id/attachments", handlers.TaskAttachmentsHandler)
			tasks.POST("", middleware.AdminOnly(), handlers.CreateTaskHandler)
			tasks.PUT("/:id", handlers.UpdateTaskHandler)
			tasks.DELETE("/:id", middleware.AdminOnly(), handlers.DeleteTaskHandler)
			tasks.PUT("/:id/status", handlers.UpdateTaskStatusHandler)
			tasks.PUT("/:id/todo", handlers.UpdateTaskChecklistHandler)
		}

		notifications := api.Group("/notifications")
		notifications.Use(middleware.JWTAuth(handlers.jwtService))
		{
			notifications.GET("", handlers.ListNotificationsHandler)
			notifications.GET("/unread-count", handlers.UnreadCountHandler)
			notifications.PUT("/read-all", handlers.MarkAllReadHandler)
			notifications.PUT("/:id/read", handlers.MarkReadHandler)
			notifications.DELETE("/:id", handlers.DeleteNotificationHandler)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "connections": handlers.hub.Registry().Count()})
	})

	return router
}

// corsMiddleware adds CORS headers
func corsMiddleware(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
