package handlers

import (
	"encoding/json"
	"log"
	"time"

	"momentum/internal/models"
	"momentum/internal/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// WebSocketHandler manages the realtime push channel. The server pushes plan
// and completion events; the client only sends pings.
type WebSocketHandler struct {
	connManager *services.ConnectionManager
	metrics     *services.Metrics
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(connManager *services.ConnectionManager, metrics *services.Metrics) *WebSocketHandler {
	return &WebSocketHandler{connManager: connManager, metrics: metrics}
}

// Handle handles a new WebSocket connection
func (h *WebSocketHandler) Handle(c *websocket.Conn) {
	connID := uuid.NewString()
	userID, _ := c.Locals("user_id").(string)
	clientIP, _ := c.Locals("client_ip").(string)

	done := make(chan struct{})

	userConn := &models.UserConnection{
		ConnID:    connID,
		UserID:    userID,
		ClientIP:  clientIP,
		Conn:      c,
		CreatedAt: time.Now(),
		WriteChan: make(chan models.ServerMessage, 100),
		StopChan:  make(chan bool, 1),
	}

	h.connManager.Add(userConn)
	if h.metrics != nil {
		h.metrics.RecordWebSocketConnect()
	}
	defer func() {
		close(done)
		h.connManager.Remove(connID)
		if h.metrics != nil {
			h.metrics.RecordWebSocketDisconnect()
		}
	}()

	c.SetReadDeadline(time.Now().Add(120 * time.Second))
	c.SetPongHandler(func(appData string) error {
		c.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	go h.pingLoop(userConn, done)
	go h.writeLoop(userConn)

	userConn.WriteChan <- models.ServerMessage{
		Type:    "connected",
		Payload: map[string]string{"connection_id": connID},
	}

	h.readLoop(userConn)
}

// pingLoop keeps the connection alive
func (h *WebSocketHandler) pingLoop(userConn *models.UserConnection, done <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			userConn.Mutex.Lock()
			err := userConn.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second))
			userConn.Mutex.Unlock()
			if err != nil {
				log.Printf("⚠️  Ping failed for %s: %v", userConn.ConnID, err)
				return
			}
		}
	}
}

// writeLoop is the only goroutine that writes data frames to the socket
func (h *WebSocketHandler) writeLoop(userConn *models.UserConnection) {
	for msg := range userConn.WriteChan {
		data, err := json.Marshal(msg)
		if err != nil {
			log.Printf("❌ Failed to marshal push event: %v", err)
			continue
		}

		userConn.Mutex.Lock()
		err = userConn.Conn.WriteMessage(websocket.TextMessage, data)
		userConn.Mutex.Unlock()
		if err != nil {
			log.Printf("⚠️  Write failed for %s: %v", userConn.ConnID, err)
			return
		}

		if h.metrics != nil {
			h.metrics.RecordWebSocketMessage(msg.Type, "outbound")
		}
	}
}

// readLoop drains client frames until the connection closes
func (h *WebSocketHandler) readLoop(userConn *models.UserConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Panic in readLoop: %v", r)
		}
	}()

	for {
		_, msg, err := userConn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("⚠️  Unexpected close for %s: %v", userConn.ConnID, err)
			}
			return
		}

		userConn.Conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		if h.metrics != nil {
			h.metrics.RecordWebSocketMessage("client", "inbound")
		}

		// The channel is push-only; client frames are keepalives
		_ = msg
	}
}
