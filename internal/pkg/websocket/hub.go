package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/classroom/internal/app/models"
)

// Event types pushed to clients
const (
	EventMessageCreated   = "message.created"
	EventConversationRead = "conversation.read"
)

const broadcastQueueSize = 256

// Event is the envelope written to every subscriber of a conversation
type Event struct {
	Type           string          `json:"type"`
	ConversationID uuid.UUID       `json:"conversationId"`
	Message        *models.Message `json:"message,omitempty"`
	UserID         *uuid.UUID      `json:"userId,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts events to the clients
type Hub struct {
	// Registered clients organized by conversation ID
	clients map[uuid.UUID]map[*Client]bool

	// Outbound events waiting for delivery
	broadcast chan *Event

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed once Run has stopped serving the channels above
	done chan struct{}

	// Mutex for concurrent access to clients map
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan *Event, broadcastQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID]map[*Client]bool),
		logger:     logger,
	}
}

// Run handles client registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return nil

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

// Register hands a client to the running hub. It reports false once the hub
// has shut down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client. After shutdown the hub has already closed
// every client, so there is nothing left to do.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// registerClient registers a new client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.conversationID]; !ok {
		h.clients[client.conversationID] = make(map[*Client]bool)
	}
	h.clients[client.conversationID][client] = true

	h.logger.Info().
		Str("conversationID", client.conversationID.String()).
		Str("userID", client.userID.String()).
		Msg("Client registered")
}

// unregisterClient unregisters a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.conversationID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)

	// If no more clients in this conversation, clean up
	if len(clients) == 0 {
		delete(h.clients, client.conversationID)
	}

	h.logger.Info().
		Str("conversationID", client.conversationID.String()).
		Str("userID", client.userID.String()).
		Msg("Client unregistered")
}

// deliver writes an event to every client of its conversation. Clients whose
// send buffer is full are dropped.
func (h *Hub) deliver(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("conversationID", event.ConversationID.String()).
			Msg("Failed to marshal event for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[event.ConversationID]
	if !ok {
		h.logger.Debug().
			Str("conversationID", event.ConversationID.String()).
			Msg("No clients in conversation for broadcast")
		return
	}

	var slow []*Client
	for client := range clients {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	for _, client := range slow {
		h.logger.Warn().
			Str("userID", client.userID.String()).
			Msg("Dropping slow websocket client")
		h.removeLocked(client)
	}

	h.logger.Debug().
		Str("conversationID", event.ConversationID.String()).
		Int("clientCount", len(clients)).
		Msg("Event broadcasted to conversation")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// publish queues an event without blocking the caller
func (h *Hub) publish(event *Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn().
			Str("conversationID", event.ConversationID.String()).
			Str("type", event.Type).
			Msg("Broadcast queue full, event dropped")
	}
}

// BroadcastMessage pushes a persisted message to the conversation's clients
func (h *Hub) BroadcastMessage(conversationID uuid.UUID, msg *models.Message) {
	h.publish(&Event{
		Type:           EventMessageCreated,
		ConversationID: conversationID,
		Message:        msg,
		Timestamp:      time.Now().UTC(),
	})
}

// BroadcastRead tells the conversation's clients that userID caught up
func (h *Hub) BroadcastRead(conversationID, userID uuid.UUID) {
	h.publish(&Event{
		Type:           EventConversationRead,
		ConversationID: conversationID,
		UserID:         &userID,
		Timestamp:      time.Now().UTC(),
	})
}

// ClientsCount returns the number of connected clients for a conversation
func (h *Hub) ClientsCount(conversationID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[conversationID])
}
