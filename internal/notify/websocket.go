package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is consumed cross-origin by the planning UI.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSClient adapts one websocket connection to the Subscriber interface.
type WSClient struct {
	id     string
	conn   *websocket.Conn
	mu     sync.Mutex
	logger *slog.Logger
}

// ID implements Subscriber.
func (c *WSClient) ID() string {
	return c.id
}

// Deliver implements Subscriber by writing the event as one JSON frame.
func (c *WSClient) Deliver(_ context.Context, event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(event)
}

// clientMessage is the inbound frame shape from websocket clients.
type clientMessage struct {
	Type   string   `json:"type"`
	Topics []string `json:"topics,omitempty"`
}

// ServeWS upgrades the request, registers the connection on the hub and
// runs the read loop until the client disconnects.
func ServeWS(hub *Hub, logger *slog.Logger, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.New().String()
	}

	client := &WSClient{id: clientID, conn: conn, logger: logger}
	hub.Subscribe(client)

	welcome := NewEvent("connection_established", map[string]any{
		"message":   "Connected to manufacturing event stream",
		"client_id": clientID,
	})
	if err := client.Deliver(r.Context(), welcome); err != nil {
		hub.Unsubscribe(clientID)
		_ = conn.Close()
		return
	}

	go readLoop(hub, client, conn)
}

func readLoop(hub *Hub, client *WSClient, conn *websocket.Conn) {
	defer func() {
		hub.Unsubscribe(client.id)
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			_ = client.Deliver(context.Background(), NewEvent("error", map[string]any{
				"message": "invalid JSON format",
			}))
			continue
		}

		switch msg.Type {
		case "ping":
			_ = client.Deliver(context.Background(), NewEvent("pong", nil))
		case "subscribe":
			// Topic filtering is not implemented; every client gets the
			// full stream. Acknowledge so clients don't retry.
			_ = client.Deliver(context.Background(), NewEvent("subscription_confirmed", map[string]any{
				"topics": msg.Topics,
			}))
		case "get_status":
			_ = client.Deliver(context.Background(), NewEvent("system_status", map[string]any{
				"active_connections": hub.SubscriberCount(),
			}))
		default:
			_ = client.Deliver(context.Background(), NewEvent("error", map[string]any{
				"message": "unknown message type: " + msg.Type,
			}))
		}
	}
}
