package services

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin filtering happens in the CORS middleware.
		return true
	},
}

// PushMessage is the WebSocket frame sent to subscribers.
type PushMessage struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id"`
	Data      interface{} `json:"data"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan PushMessage
}

// PushService fans notification events out to all connected WebSocket
// clients. It implements events.Broadcaster.
type PushService struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

func NewPushService() *PushService {
	return &PushService{clients: make(map[*wsClient]struct{})}
}

// HandleConnection upgrades the request and serves the client until it
// disconnects.
func (s *PushService) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &wsClient{conn: conn, send: make(chan PushMessage, 64)}
	s.mu.Lock()
	s.clients[client] = struct{}{}
	s.mu.Unlock()
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("websocket client connected")

	go s.writeLoop(client)
	s.readLoop(client)
}

// Broadcast queues an event for every connected client. Slow clients are
// dropped rather than blocking the caller.
func (s *PushService) Broadcast(event string, payload interface{}) {
	msg := PushMessage{
		Type:      event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		MessageID: uuid.NewString(),
		Data:      payload,
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		select {
		case client.send <- msg:
		default:
			logrus.Warn("websocket client send buffer full, dropping message")
		}
	}
}

func (s *PushService) writeLoop(client *wsClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.send:
			if !ok {
				return
			}
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *PushService) readLoop(client *wsClient) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, client)
		s.mu.Unlock()
		close(client.send)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(4096)
	for {
		// Inbound frames are ignored; the socket is push-only.
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
