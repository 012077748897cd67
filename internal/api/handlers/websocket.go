package handlers

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/playpool/minipool/internal/game"
	"github.com/playpool/minipool/internal/ws"
)

// HandleSessionWebSocket upgrades an authorized request and attaches it to
// the table. Mount behind RequireSessionToken.
func HandleSessionWebSocket(manager *game.Manager, hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		runner, ok := lookupRunner(c, manager)
		if !ok {
			return
		}
		if err := hub.Serve(runner, c.Writer, c.Request); err != nil {
			log.Printf("[WS] Upgrade error for %s: %v", runner.ID(), err)
		}
	}
}
