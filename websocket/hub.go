package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"event-booking-server/models"
)

// Message is the envelope written to connected clients
type Message struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

type directMessage struct {
	userID uint
	data   []byte
}

// Hub tracks open connections per user. A user may have several tabs open,
// so each user id maps to a set of clients.
type Hub struct {
	clients map[uint]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	direct     chan directMessage
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan directMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			h.mu.Unlock()
			log.Printf("🔌 Client registered: user=%d", client.UserID)

		case client := <-h.unregister:
			h.remove(client)
			log.Printf("🔌 Client unregistered: user=%d", client.UserID)

		case msg := <-h.direct:
			h.deliver(msg)

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for _, set := range h.clients {
				for client := range set {
					close(client.send)
				}
			}
			h.clients = make(map[uint]map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.UserID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.UserID)
	}
}

func (h *Hub) deliver(msg directMessage) {
	h.mu.RLock()
	var slow []*Client
	for client := range h.clients[msg.userID] {
		select {
		case client.send <- msg.data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		log.Printf("⚠️ Dropping slow client for user %d", msg.userID)
		h.remove(client)
	}
}

// SendToUser queues a message for every connection of a user
func (h *Hub) SendToUser(userID uint, message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling message: %v", err)
		return
	}

	select {
	case h.direct <- directMessage{userID: userID, data: data}:
	default:
		log.Printf("⚠️ Hub queue is full, dropping message for user %d", userID)
	}
}

// PushNotifications relays freshly stored notifications to their owners
func (h *Hub) PushNotifications(notifications []models.Notification) {
	for i := range notifications {
		n := notifications[i]
		if !h.IsUserConnected(n.UserID) {
			continue
		}
		h.SendToUser(n.UserID, &Message{Type: "notification", Timestamp: time.Now(), Data: n})
	}
}

// IsUserConnected checks if a user has at least one open connection
func (h *Hub) IsUserConnected(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// ConnectedUsers returns how many distinct users are connected
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
