package websocket

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Inbound frame types
const (
	FrameMessage = "message"
	FrameRead    = "read"
)

// InboundFrame is what a client writes to the socket
type InboundFrame struct {
	Type string `json:"type"`
	Body string `json:"body,omitempty"`
}

// ConversationService is the chat surface the socket needs. Persisted
// messages come back to the socket through the hub broadcast.
type ConversationService interface {
	JoinConversation(ctx context.Context, userID, conversationID uuid.UUID) error
	PostMessage(ctx context.Context, userID, conversationID uuid.UUID, body string) error
	MarkConversationRead(ctx context.Context, userID, conversationID uuid.UUID) error
}

// MessageHandler routes inbound frames to the chat service
type MessageHandler struct {
	chat   ConversationService
	logger zerolog.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(chat ConversationService, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{chat: chat, logger: logger}
}

// Handle processes one frame. Failures are logged; the socket stays open.
func (h *MessageHandler) Handle(ctx context.Context, userID, conversationID uuid.UUID, frame *InboundFrame) {
	var err error
	switch frame.Type {
	case FrameMessage:
		body := strings.TrimSpace(frame.Body)
		if body == "" {
			return
		}
		err = h.chat.PostMessage(ctx, userID, conversationID, body)
	case FrameRead:
		err = h.chat.MarkConversationRead(ctx, userID, conversationID)
	default:
		h.logger.Debug().Str("type", frame.Type).Msg("Ignoring unknown frame type")
		return
	}

	if err != nil {
		h.logger.Error().
			Err(err).
			Str("type", frame.Type).
			Str("conversationID", conversationID.String()).
			Str("userID", userID.String()).
			Msg("Failed to handle websocket frame")
	}
}
