package models

import (
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// Push event types sent over the realtime channel
const (
	EventPlan      = "plan"
	EventComplete  = "complete"
	EventRebalance = "rebalance"
	EventChat      = "chat"
)

// ServerMessage is one push event sent to a connected client
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// UserConnection is one active WebSocket connection. Writes go through
// WriteChan so only the writer goroutine touches the socket.
type UserConnection struct {
	ConnID    string
	UserID    string
	ClientIP  string
	Conn      *websocket.Conn
	CreatedAt time.Time
	WriteChan chan ServerMessage
	StopChan  chan bool
	Mutex     sync.Mutex
	closed    bool
}

// MarkClosed flags the connection as closed. Returns false if it already was.
func (c *UserConnection) MarkClosed() bool {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	return true
}

// IsClosed reports whether the connection has been closed
func (c *UserConnection) IsClosed() bool {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()
	return c.closed
}
