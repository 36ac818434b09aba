package server

import (
	"encoding/json"
	"net/http"

	"grid-observer/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *QueryServer) handleWebsockets() {
	for {
		select {
		case <-s.done:
			for client := range s.clients {
				s.dropClient(client)
			}
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.connCount.Add(1)
			// Send initial state on connect
			s.stateMutex.RLock()
			if s.latestState != nil {
				client.send <- s.latestState
			}
			s.stateMutex.RUnlock()

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				s.dropClient(client)
			}

		case message := <-s.broadcast:
			// Update state and broadcast
			s.stateMutex.Lock()
			s.latestState = message
			s.stateMutex.Unlock()

			for client := range s.clients {
				select {
				case client.send <- message:
					// Message sent successfully
				default:
					// Client too slow, disconnect to prevent Hub blocking
					s.dropClient(client)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

// dropClient removes a client from the hub. Call from the hub goroutine only.
func (s *QueryServer) dropClient(client *Client) {
	delete(s.clients, client)
	s.connCount.Add(-1)
	close(client.send)
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// UpdateAllDatas replaces the cached state snapshot without broadcasting.
func (s *QueryServer) UpdateAllDatas(data *models.MLatestData) {
	if data == nil {
		return
	}

	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	data.Type = "UPDATE"
	s.latestState = data
}

// -----------------------------------------------------------------------------

// Broadcast queues a state snapshot for delivery to all connected clients.
func (s *QueryServer) Broadcast(message *models.MLatestData) {
	if message == nil {
		return
	}
	// The buffer set in NewQueryServer absorbs bursts, blocking is rare.
	s.broadcast <- message
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *QueryServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MLatestData, 256),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *QueryServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	s.stateMutex.RLock()
	response := &models.MLatestData{
		Type:            "INITIAL",
		Statistics:      s.latestState.Statistics,
		Anomalies:       s.latestState.Anomalies,
		Recommendations: s.latestState.Recommendations,
		Timestamp:       s.latestState.Timestamp,
		EngineMetrics:   s.latestState.EngineMetrics,
	}
	s.stateMutex.RUnlock()

	// Use select to avoid blocking if the client's send buffer is full
	select {
	case client.send <- response:
	default:
	}
}
