package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebSocket message types
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected    = "connected"
	MsgTypePong         = "pong"
	MsgTypeSheetUpdated = "sheet:updated"
	MsgTypeError        = "error"
)

const writeWait = 5 * time.Second

// WSMessage is the envelope of every websocket frame.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (cl *wsClient) send(msg WSMessage) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return cl.conn.WriteJSON(msg)
}

// Notifier pushes sheet change notifications to open pages.
type Notifier struct {
	upgrader  websocket.Upgrader
	clients   map[*wsClient]struct{}
	clientsMu sync.RWMutex
}

// NewNotifier creates a new websocket notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// HandleWebSocket upgrades the connection and keeps it registered until the
// client goes away. Clients may send "ping"; everything else is ignored.
func (n *Notifier) HandleWebSocket(c echo.Context) error {
	ws, err := n.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	client := &wsClient{conn: ws}
	n.clientsMu.Lock()
	n.clients[client] = struct{}{}
	n.clientsMu.Unlock()
	defer n.remove(client)

	fmt.Printf("[WebSocket] Client connected (%d open)\n", n.Count())
	client.send(WSMessage{Type: MsgTypeConnected, Timestamp: time.Now().UnixMilli()})

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("[WebSocket] Connection error: %v\n", err)
			}
			break
		}

		switch msg.Type {
		case MsgTypePing:
			client.send(WSMessage{Type: MsgTypePong, ID: msg.ID, Timestamp: time.Now().UnixMilli()})
		default:
			client.send(WSMessage{Type: MsgTypeError, ID: msg.ID, Timestamp: time.Now().UnixMilli()})
		}
	}

	fmt.Println("[WebSocket] Client disconnected")
	return nil
}

// Broadcast sends a message of the given type to every client. Clients that
// fail to receive it are dropped. Safe on a nil Notifier.
func (n *Notifier) Broadcast(msgType string) {
	if n == nil {
		return
	}

	n.clientsMu.RLock()
	clients := make([]*wsClient, 0, len(n.clients))
	for cl := range n.clients {
		clients = append(clients, cl)
	}
	n.clientsMu.RUnlock()

	msg := WSMessage{Type: msgType, ID: uuid.NewString(), Timestamp: time.Now().UnixMilli()}
	for _, cl := range clients {
		if err := cl.send(msg); err != nil {
			n.remove(cl)
			cl.conn.Close()
		}
	}
}

// Count returns the number of connected clients.
func (n *Notifier) Count() int {
	n.clientsMu.RLock()
	defer n.clientsMu.RUnlock()
	return len(n.clients)
}

func (n *Notifier) remove(cl *wsClient) {
	n.clientsMu.Lock()
	delete(n.clients, cl)
	n.clientsMu.Unlock()
}
