package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"rollcall/backend/internal/config"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// access is checked by Authenticate before the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection and pushes the group's status
// snapshot right away and then every PushInterval.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WARN: websocket upgrade failed: %v", err)
		return
	}

	interval := h.PushInterval
	if interval <= 0 {
		interval = config.SnapshotPushInterval
	}
	v := &snapshotViewer{
		conn:     conn,
		groupID:  c.Param("id"),
		tracker:  h.Tracker,
		interval: interval,
		done:     make(chan struct{}),
	}
	go v.readPump()
	v.writePump()
}

type snapshotViewer struct {
	conn     *websocket.Conn
	groupID  string
	tracker  RollReader
	interval time.Duration
	done     chan struct{}
}

// readPump only services control frames; it returns once the peer goes away.
func (v *snapshotViewer) readPump() {
	defer close(v.done)

	v.conn.SetReadLimit(maxMessageSize)
	v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		v.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WARN: websocket for group %s closed: %v", v.groupID, err)
			}
			return
		}
	}
}

func (v *snapshotViewer) writePump() {
	push := time.NewTicker(v.interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		push.Stop()
		ping.Stop()
		v.conn.Close()
	}()

	if !v.pushSnapshot() {
		return
	}
	for {
		select {
		case <-v.done:
			return
		case <-push.C:
			if !v.pushSnapshot() {
				return
			}
		case <-ping.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (v *snapshotViewer) pushSnapshot() bool {
	v.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := v.conn.WriteJSON(v.tracker.StatusSnapshot(v.groupID)); err != nil {
		log.Printf("WARN: Failed to push snapshot of group %s: %v", v.groupID, err)
		return false
	}
	return true
}
