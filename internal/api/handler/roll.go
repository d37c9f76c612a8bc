package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rollcall/backend/internal/models"
	"rollcall/backend/internal/tracker"
)

// ReceiveMessage accepts one message event from the messaging webhook.
func (h *Handler) ReceiveMessage(c *gin.Context) {
	var ev models.MessageEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !operatorClaims(c).CanAccess(ev.GroupID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "No access to this group"})
		return
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}

	if err := h.Ingestor.Ingest(c.Request.Context(), ev); err != nil {
		log.Printf("ERROR: Failed to ingest webhook event for group %s: %v", ev.GroupID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to accept event"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// GetStatus returns the live view of a group. Inactive participants are
// dropped first.
func (h *Handler) GetStatus(c *gin.Context) {
	respondSnapshot(c, h.Tracker.StatusSnapshot(c.Param("id")))
}

// GetReport returns the rounds of a group as they are, without a sweep.
func (h *Handler) GetReport(c *gin.Context) {
	respondSnapshot(c, h.Tracker.Snapshot(c.Param("id")))
}

// respondSnapshot writes JSON unless the client asks for plain text.
func respondSnapshot(c *gin.Context, snap models.SessionSnapshot) {
	switch c.NegotiateFormat(gin.MIMEJSON, gin.MIMEPlain) {
	case gin.MIMEPlain:
		c.String(http.StatusOK, tracker.RenderReport(snap))
	default:
		c.JSON(http.StatusOK, snap)
	}
}
