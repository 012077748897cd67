package middleware

import (
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/playpool/minipool/internal/config"
)

// AllowedOrigins lists the browser origins that may drive a table.
func AllowedOrigins(cfg *config.Config) []string {
	if cfg.Environment == "development" {
		return []string{
			"http://localhost:5173", // Vite dev server
			"http://127.0.0.1:5173",
		}
	}
	var origins []string
	if cfg.FrontendURL != "" {
		origins = append(origins, cfg.FrontendURL)
	}
	return origins
}

// CORSMiddleware returns a CORS middleware configured for the environment
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	log.Printf("[CORS] Environment: %s, FrontendURL: %s", cfg.Environment, cfg.FrontendURL)

	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Length", "Content-Type", "Authorization",
			"Accept", "Cache-Control", "X-Requested-With",
		},
		ExposeHeaders: []string{"Content-Length", "X-Session-ID"},
		MaxAge:        12 * time.Hour,
	}

	origins := AllowedOrigins(cfg)
	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	log.Printf("[CORS] Allowed origins: %v", origins)

	return cors.New(corsConfig)
}

// OriginAllowed reports whether a websocket upgrade from origin is accepted.
// An empty origin (non-browser client) is allowed.
func OriginAllowed(cfg *config.Config, origin string) bool {
	if origin == "" {
		return true
	}
	if cfg.Environment == "development" {
		return strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:")
	}
	origins := AllowedOrigins(cfg)
	if len(origins) == 0 {
		return true
	}
	for _, allowed := range origins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// WebSocketCORSCheck validates WebSocket upgrade origins
func WebSocketCORSCheck(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.ToLower(c.GetHeader("Connection")) != "upgrade" ||
			strings.ToLower(c.GetHeader("Upgrade")) != "websocket" {
			c.Next()
			return
		}

		if !OriginAllowed(cfg, c.GetHeader("Origin")) {
			c.AbortWithStatusJSON(403, gin.H{"error": "WebSocket origin not allowed"})
			return
		}

		c.Next()
	}
}
