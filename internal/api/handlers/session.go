package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playpool/minipool/internal/auth"
	"github.com/playpool/minipool/internal/config"
	"github.com/playpool/minipool/internal/game"
)

const requestTimeout = 3 * time.Second

// CreateSession racks a new table and returns its id with a join token.
func CreateSession(manager *game.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		runner, err := manager.Create()
		if err != nil {
			if errors.Is(err, game.ErrTooManySessions) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Too many active tables, try again later"})
				return
			}
			log.Printf("[API] CreateSession failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create table"})
			return
		}

		ttl := time.Duration(cfg.SessionTokenTTLMinutes) * time.Minute
		token, exp, err := auth.IssueSessionToken(cfg.JWTSecret, runner.ID(), ttl)
		if err != nil {
			log.Printf("[API] Failed to sign token for %s: %v", runner.ID(), err)
			manager.Remove(runner.ID())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		snap, err := runner.Snapshot(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Table unavailable"})
			return
		}

		c.Header("X-Session-ID", runner.ID())
		c.JSON(http.StatusCreated, gin.H{
			"session_id": runner.ID(),
			"token":      token,
			"expires_at": exp.UTC().Format(time.RFC3339),
			"ws_url":     "/api/v1/sessions/" + runner.ID() + "/ws?token=" + token,
			"state":      snap,
		})
	}
}

// GetSession returns the current snapshot of a table.
func GetSession(manager *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		runner, ok := lookupRunner(c, manager)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		snap, err := runner.Snapshot(ctx)
		if err != nil {
			c.JSON(http.StatusGone, gin.H{"error": "Table has ended"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// ResetSession re-racks a table. Requires the table's token.
func ResetSession(manager *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		runner, ok := lookupRunner(c, manager)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		snap, err := runner.Reset(ctx)
		if err != nil {
			log.Printf("[API] Reset %s failed: %v", runner.ID(), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset table"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func lookupRunner(c *gin.Context, manager *game.Manager) (*game.Runner, bool) {
	runner, err := manager.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		return nil, false
	}
	return runner, true
}

// RequireSessionToken accepts a bearer header or ?token= and checks that it
// was issued for the :id in the path.
func RequireSessionToken(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		sessionID, err := auth.ParseSessionToken(cfg.JWTSecret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if sessionID != c.Param("id") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token is for another table"})
			return
		}
		c.Set("session_id", sessionID)
		c.Next()
	}
}
