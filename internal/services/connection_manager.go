package services

import (
	"log"
	"sync"

	"momentum/internal/models"
)

// ConnectionManager manages all active WebSocket connections, indexed both
// by connection ID and by user so push events reach every open tab.
type ConnectionManager struct {
	connections map[string]*models.UserConnection
	byUser      map[string]map[string]*models.UserConnection
	mutex       sync.RWMutex
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*models.UserConnection),
		byUser:      make(map[string]map[string]*models.UserConnection),
	}
}

// Add adds a new connection
func (cm *ConnectionManager) Add(conn *models.UserConnection) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.connections[conn.ConnID] = conn
	if cm.byUser[conn.UserID] == nil {
		cm.byUser[conn.UserID] = make(map[string]*models.UserConnection)
	}
	cm.byUser[conn.UserID][conn.ConnID] = conn

	log.Printf("✅ Connection added: %s (Total: %d)", conn.ConnID, len(cm.connections))
}

// Remove removes a connection
func (cm *ConnectionManager) Remove(connID string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	conn, exists := cm.connections[connID]
	if !exists {
		return
	}

	if conn.MarkClosed() {
		close(conn.WriteChan)
		close(conn.StopChan)
	}
	delete(cm.connections, connID)
	if userConns := cm.byUser[conn.UserID]; userConns != nil {
		delete(userConns, connID)
		if len(userConns) == 0 {
			delete(cm.byUser, conn.UserID)
		}
	}

	log.Printf("❌ Connection removed: %s (Total: %d)", connID, len(cm.connections))
}

// Get retrieves a connection by ID
func (cm *ConnectionManager) Get(connID string) (*models.UserConnection, bool) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	conn, exists := cm.connections[connID]
	return conn, exists
}

// Count returns the number of active connections
func (cm *ConnectionManager) Count() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.connections)
}

// SendToUser queues a push event to every connection of one user. Slow
// consumers are skipped rather than blocked on.
func (cm *ConnectionManager) SendToUser(userID string, msg models.ServerMessage) int {
	cm.mutex.RLock()
	conns := make([]*models.UserConnection, 0, len(cm.byUser[userID]))
	for _, conn := range cm.byUser[userID] {
		conns = append(conns, conn)
	}
	cm.mutex.RUnlock()

	sent := 0
	for _, conn := range conns {
		if conn.IsClosed() {
			continue
		}
		select {
		case conn.WriteChan <- msg:
			sent++
		default:
			log.Printf("⚠️  Dropping %s event for slow connection %s", msg.Type, conn.ConnID)
		}
	}
	return sent
}
