package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocarina/gocsv"
	"github.com/playpool/minipool/internal/models"
)

// EventLister reads a table's journal.
type EventLister interface {
	List(ctx context.Context, sessionID string) ([]models.TableEvent, error)
}

func journalViews(c *gin.Context, events EventLister) ([]models.TableEventView, bool) {
	if events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event journal is not configured"})
		return nil, false
	}
	rows, err := events.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("[DB] List events for %s failed: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load events"})
		return nil, false
	}
	views := make([]models.TableEventView, len(rows))
	for i, r := range rows {
		views[i] = r.View()
	}
	return views, true
}

// ListSessionEvents returns a table's shots, pockets, fouls and resets.
func ListSessionEvents(events EventLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, ok := journalViews(c, events)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"session_id": c.Param("id"), "events": views})
	}
}

// ExportSessionEventsCSV streams the same journal as CSV.
func ExportSessionEventsCSV(events EventLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, ok := journalViews(c, events)
		if !ok {
			return
		}
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="`+c.Param("id")+`-events.csv"`)
		c.Status(http.StatusOK)
		if err := gocsv.Marshal(views, c.Writer); err != nil {
			log.Printf("[API] CSV export for %s failed: %v", c.Param("id"), err)
		}
	}
}
