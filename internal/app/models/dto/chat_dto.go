package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/yigit/classroom/internal/app/models"
)

// --- Request DTOs ---

// CreateConversationRequest opens a direct or group conversation. For direct
// conversations ParticipantIDs holds the single other user.
type CreateConversationRequest struct {
	Kind           models.ConversationKind `json:"kind" binding:"required,oneof=direct group"`
	Title          *string                 `json:"title,omitempty" binding:"omitempty,max=200"`
	ParticipantIDs []uuid.UUID             `json:"participantIds" binding:"required,min=1"`
}

// SendMessageRequest posts a message. Body or at least one attachment is required.
type SendMessageRequest struct {
	Body        string              `json:"body" binding:"max=4000"`
	Attachments []AttachmentRequest `json:"attachments,omitempty" binding:"dive"`
}

// GetMessagesRequest represents filter parameters for retrieving chat messages
type GetMessagesRequest struct {
	Before   *time.Time `form:"before" time_format:"2006-01-02T15:04:05Z07:00"`
	BeforeID string     `form:"beforeId" binding:"omitempty,uuid"`
	Limit    int        `form:"limit" binding:"omitempty,min=1"`
}

// --- Response DTOs ---

// MessagePage is one page of messages, oldest first.
type MessagePage struct {
	Messages []models.Message `json:"messages"`
	// NextBefore and NextBeforeID are the cursor for the previous page, nil
	// when exhausted.
	NextBefore   *time.Time `json:"nextBefore,omitempty"`
	NextBeforeID *uuid.UUID `json:"nextBeforeId,omitempty"`
}

// UnreadTotalResponse is the caller's unread count across conversations.
type UnreadTotalResponse struct {
	Unread int `json:"unread"`
}
