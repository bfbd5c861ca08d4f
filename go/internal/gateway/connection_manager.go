package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcanally/quorum/go/internal/models"
	"github.com/mcanally/quorum/go/internal/session/events"
	"github.com/rs/zerolog/log"
)

type scope int

const (
	scopeAll scope = iota
	scopeRespondents
	scopeModerators
	scopeOne
)

// MessageHandler defines what the connection manager needs from the inbound
// side: somewhere to deliver client messages and close signals.
type MessageHandler interface {
	HandleMessage(connID uuid.UUID, raw []byte)
	HandleDisconnect(connID uuid.UUID)
}

// ConnectionManager manages the WebSocket connections of the single session
// room and fans outbound events to them by role.
type ConnectionManager struct {
	conns map[uuid.UUID]*Connection
	mu    sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan broadcastMessage
	handler     MessageHandler
}

// Connection represents a WebSocket connection to one participant.
type Connection struct {
	ID      uuid.UUID
	Role    models.Role // empty until a join message arrives
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

type broadcastMessage struct {
	scope  scope
	target uuid.UUID
	event  *events.Event
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		conns: make(map[uuid.UUID]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan broadcastMessage, 256),
	}
}

// SetHandler wires the inbound message handler. Must be called before the
// first connection is accepted.
func (cm *ConnectionManager) SetHandler(h MessageHandler) {
	cm.handler = h
}

// Start begins processing broadcast messages.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection and
// registers it with a fresh identity.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New(),
		Conn:        conn,
		Send:        make(chan []byte, 64),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().Str("conn_id", connection.ID.String()).Msg("WebSocket connection established")
	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.conns[conn.ID] = conn

	log.Debug().
		Str("conn_id", conn.ID.String()).
		Int("total_connections", len(cm.conns)).
		Msg("connection registered")
}

// unregisterConnection removes a connection and notifies the handler so the
// session drops the participant. Idempotent; pumps and forced closes race
// here safely.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	if _, exists := cm.conns[conn.ID]; !exists {
		cm.mu.Unlock()
		return
	}
	delete(cm.conns, conn.ID)
	close(conn.Send)
	cm.mu.Unlock()

	if cm.handler != nil {
		cm.handler.HandleDisconnect(conn.ID)
	}

	log.Info().Str("conn_id", conn.ID.String()).Msg("connection unregistered")
}

// SetRole records the declared role of a connection once its join message
// arrives. Fan-out grouping keys off this.
func (cm *ConnectionManager) SetRole(id uuid.UUID, role models.Role) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if conn, ok := cm.conns[id]; ok {
		conn.Role = role
	}
}

// CloseConnection force-closes a connection. Closing the send channel lets
// the write pump drain queued frames and shut the socket down cleanly.
func (cm *ConnectionManager) CloseConnection(id uuid.UUID) {
	cm.mu.RLock()
	conn, ok := cm.conns[id]
	cm.mu.RUnlock()
	if !ok {
		return
	}

	cm.unregisterConnection(conn)
}

// SendDirect bypasses the broadcast queue, placing the event straight into
// the connection's send buffer. Used for final frames before a forced close.
func (cm *ConnectionManager) SendDirect(id uuid.UUID, ev *events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal direct event")
		return
	}

	// Hold the read lock through the send so the channel cannot be closed
	// underneath us; closing requires the write lock.
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	conn, ok := cm.conns[id]
	if !ok {
		return
	}
	select {
	case conn.Send <- data:
	default:
		log.Warn().Str("conn_id", id.String()).Msg("send buffer full, dropping direct event")
	}
}

// NotifyAll queues an event for every connection.
func (cm *ConnectionManager) NotifyAll(ev *events.Event) {
	cm.enqueue(broadcastMessage{scope: scopeAll, event: ev})
}

// NotifyRespondents queues an event for respondent connections.
func (cm *ConnectionManager) NotifyRespondents(ev *events.Event) {
	cm.enqueue(broadcastMessage{scope: scopeRespondents, event: ev})
}

// NotifyModerators queues an event for moderator connections.
func (cm *ConnectionManager) NotifyModerators(ev *events.Event) {
	cm.enqueue(broadcastMessage{scope: scopeModerators, event: ev})
}

// NotifyOne queues an event for a single connection.
func (cm *ConnectionManager) NotifyOne(id uuid.UUID, ev *events.Event) {
	cm.enqueue(broadcastMessage{scope: scopeOne, target: id, event: ev})
}

func (cm *ConnectionManager) enqueue(message broadcastMessage) {
	select {
	case cm.broadcastCh <- message:
	default:
		log.Warn().Str("event_type", string(message.event.Type)).Msg("broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) handleBroadcast(message broadcastMessage) {
	// Marshal the envelope once for all targets.
	data, err := json.Marshal(message.event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	// Send under the read lock so no channel closes mid-send; eviction of
	// slow connections needs the write lock and happens after.
	cm.mu.RLock()
	var sent int
	var slow []*Connection
	for _, conn := range cm.conns {
		switch message.scope {
		case scopeRespondents:
			if conn.Role != models.RoleRespondent {
				continue
			}
		case scopeModerators:
			if conn.Role != models.RoleModerator {
				continue
			}
		case scopeOne:
			if conn.ID != message.target {
				continue
			}
		}
		select {
		case conn.Send <- data:
			sent++
		default:
			slow = append(slow, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range slow {
		// Connection is slow/dead, close it
		log.Warn().Str("conn_id", conn.ID.String()).Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}

	log.Debug().
		Str("event_type", string(message.event.Type)).
		Int("connections", sent).
		Msg("event broadcasted")
}

// ConnectionCount returns the number of active connections.
func (cm *ConnectionManager) ConnectionCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.conns)
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("conn_id", c.ID.String()).Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("conn_id", c.ID.String()).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump handles reading messages from the WebSocket connection and passes
// them to the inbound handler.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("conn_id", c.ID.String()).Msg("unexpected WebSocket close error")
			}
			break
		}

		if c.Manager.handler != nil {
			c.Manager.handler.HandleMessage(c.ID, message)
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
