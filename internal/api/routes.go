package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/playpool/minipool/internal/api/handlers"
	"github.com/playpool/minipool/internal/config"
	"github.com/playpool/minipool/internal/game"
	"github.com/playpool/minipool/internal/middleware"
	"github.com/playpool/minipool/internal/ws"
)

// Deps are the services the routes hand to handlers. Events may be nil when
// no database is configured.
type Deps struct {
	Config  *config.Config
	Manager *game.Manager
	Hub     *ws.Hub
	Events  handlers.EventLister
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, deps Deps) {
	cfg := deps.Config
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(deps.Manager))

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handlers.CreateSession(deps.Manager, cfg))
			sessions.GET("/:id", handlers.GetSession(deps.Manager))

			authed := sessions.Group("/:id", handlers.RequireSessionToken(cfg))
			{
				authed.POST("/reset", handlers.ResetSession(deps.Manager))
				authed.GET("/events", handlers.ListSessionEvents(deps.Events))
				authed.GET("/events.csv", handlers.ExportSessionEventsCSV(deps.Events))
				authed.GET("/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleSessionWebSocket(deps.Manager, deps.Hub))
			}
		}
	}
}
