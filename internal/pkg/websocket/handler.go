package websocket

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/yigit/classroom/internal/middleware"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

// Handler for WebSocket connections
type Handler struct {
	hub     *Hub
	chat    ConversationService
	inbound *MessageHandler
	logger  zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, chat ConversationService, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:     hub,
		chat:    chat,
		inbound: NewMessageHandler(chat, logger),
		logger:  logger,
	}
}

// HandleConnection godoc
// @Summary Open a realtime connection to a conversation
// @Description Upgrades the request to a WebSocket that receives message.created and conversation.read events. Clients may send {"type":"message","body":"..."} and {"type":"read"} frames.
// @Tags chat
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 101 {string} string "Switching Protocols"
// @Failure 400 {string} string "Invalid conversation ID"
// @Failure 401 {string} string "Unauthenticated"
// @Failure 403 {string} string "Not a participant"
// @Router /conversations/{id}/ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		middleware.HandleAPIError(c, apperrors.NewValidationError("id", "id must be a valid UUID"))
		return
	}

	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		middleware.HandleAPIError(c, apperrors.ErrTokenInvalid)
		return
	}
	userID := actor.ID

	if err := h.chat.JoinConversation(c.Request.Context(), userID, conversationID); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("conversationID", conversationID.String()).
			Str("userID", userID.String()).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:            h.hub,
		conn:           conn,
		send:           make(chan []byte, 256),
		userID:         userID,
		conversationID: conversationID,
		inbound:        h.inbound,
		logger:         h.logger,
	}
	if !client.hub.Register(client) {
		h.logger.Warn().
			Str("conversationID", conversationID.String()).
			Msg("Hub stopped, closing WebSocket connection")
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Str("conversationID", conversationID.String()).
		Str("userID", userID.String()).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
}
