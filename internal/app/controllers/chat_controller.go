package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/app/services"
	"github.com/yigit/classroom/internal/middleware"
	"github.com/yigit/classroom/internal/pkg/validation"
)

// ChatController handles conversations and messages
type ChatController struct {
	chatService services.ChatService
}

// NewChatController creates a new ChatController
func NewChatController(chatService services.ChatService) *ChatController {
	return &ChatController{chatService: chatService}
}

// CreateConversation godoc
// @Summary Open a conversation
// @Description Direct conversations are found or created; group conversations need a title.
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateConversationRequest true "Conversation"
// @Success 201 {object} dto.APIResponse{data=models.ConversationSummary} "Created"
// @Success 200 {object} dto.APIResponse{data=models.ConversationSummary} "Existing direct conversation"
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /conversations [post]
func (c *ChatController) CreateConversation(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.CreateConversationRequest
	if !bindJSON(ctx, &req) {
		return
	}

	conv, created, err := c.chatService.CreateConversation(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond(ctx, status, conv)
}

// ListConversations godoc
// @Summary List my conversations
// @Description Each conversation carries the caller's unread count.
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.ConversationSummary}
// @Router /conversations [get]
func (c *ChatController) ListConversations(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	items, err := c.chatService.ListConversations(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, items)
}

// UnreadTotal godoc
// @Summary Total unread messages
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UnreadTotalResponse}
// @Router /conversations/unread [get]
func (c *ChatController) UnreadTotal(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	n, err := c.chatService.UnreadTotal(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dto.UnreadTotalResponse{Unread: n})
}

// GetMessages godoc
// @Summary Get conversation messages
// @Description Returns one page of messages, oldest first. Pass nextBefore and nextBeforeId as before and beforeId to page back.
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID" Format(uuid)
// @Param before query string false "Messages created before this timestamp (RFC3339)"
// @Param beforeId query string false "Id of the message at the before timestamp" Format(uuid)
// @Param limit query int false "Maximum number of messages"
// @Success 200 {object} dto.APIResponse{data=dto.MessagePage}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail} "Not a participant"
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "Conversation not found"
// @Router /conversations/{id}/messages [get]
func (c *ChatController) GetMessages(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}
	var req dto.GetMessagesRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		middleware.HandleAPIError(ctx, validation.FromBindingError(err))
		return
	}

	page, err := c.chatService.GetMessages(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, page)
}

// SendMessage godoc
// @Summary Send a message
// @Description Persists the message and broadcasts it to connected websocket clients.
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID" Format(uuid)
// @Param request body dto.SendMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=models.Message}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail} "Not a participant"
// @Router /conversations/{id}/messages [post]
func (c *ChatController) SendMessage(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}
	var req dto.SendMessageRequest
	if !bindJSON(ctx, &req) {
		return
	}

	msg, err := c.chatService.SendMessage(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, msg)
}

// MarkRead godoc
// @Summary Mark a conversation read
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /conversations/{id}/read [post]
func (c *ChatController) MarkRead(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	if err := c.chatService.MarkRead(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondMessage(ctx, "Conversation marked as read")
}
