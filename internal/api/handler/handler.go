// Package handler exposes the roll tracker over HTTP: a webhook for inbound
// message events, read-only reports and a websocket live view.
package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rollcall/backend/internal/config"
	"rollcall/backend/internal/models"
	"rollcall/backend/internal/tracker"
)

// RollReader is the read side of the tracker used by the API.
type RollReader interface {
	// StatusSnapshot sweeps the group before reading it.
	StatusSnapshot(groupID string) models.SessionSnapshot
	Snapshot(groupID string) models.SessionSnapshot
}

// Handler holds the API dependencies.
type Handler struct {
	Tracker  RollReader
	Ingestor tracker.Ingestor

	JWTSecret    []byte
	PushInterval time.Duration

	// Owner reports whether this process holds the tracker. Nil means always.
	Owner func() bool
}

func NewHandler(t RollReader, ing tracker.Ingestor, jwtSecret string) *Handler {
	return &Handler{
		Tracker:      t,
		Ingestor:     ing,
		JWTSecret:    []byte(jwtSecret),
		PushInterval: config.SnapshotPushInterval,
	}
}

// Routes registers the API on r. Without a JWT secret only the health check is served.
func (h *Handler) Routes(r *gin.Engine) {
	r.GET("/healthz", h.Health)

	if len(h.JWTSecret) == 0 {
		log.Println("WARN: JWT_SECRET is empty, operator API disabled.")
		return
	}

	r.POST("/webhook/messages", h.Authenticate, h.ReceiveMessage)

	groups := r.Group("/groups/:id", h.Authenticate, h.RequireGroupAccess, h.RequireOwner)
	groups.GET("/status", h.GetStatus)
	groups.GET("/report", h.GetReport)
	groups.GET("/ws", h.ServeWebSocket)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RequireOwner answers 503 on replicas that do not hold the tracker; their
// registry is empty and would report stale data.
func (h *Handler) RequireOwner(c *gin.Context) {
	if h.Owner != nil && !h.Owner() {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Tracker is owned by another instance"})
		return
	}
	c.Next()
}
