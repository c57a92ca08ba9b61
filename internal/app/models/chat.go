package models

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// ConversationKind is direct (two people) or group.
type ConversationKind string

const (
	ConversationDirect ConversationKind = "direct"
	ConversationGroup  ConversationKind = "group"
)

// Conversation is a chat thread.
type Conversation struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	Kind          ConversationKind `json:"kind" db:"kind"`
	Title         *string          `json:"title,omitempty" db:"title"`
	CreatedBy     uuid.UUID        `json:"createdBy" db:"created_by"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
	LastMessageAt *time.Time       `json:"lastMessageAt,omitempty" db:"last_message_at"`
}

// Participant holds membership and the per-participant read cursor.
type Participant struct {
	ConversationID uuid.UUID  `json:"conversationId" db:"conversation_id"`
	UserID         uuid.UUID  `json:"userId" db:"user_id"`
	LastReadAt     *time.Time `json:"lastReadAt,omitempty" db:"last_read_at"`
	JoinedAt       time.Time  `json:"joinedAt" db:"joined_at"`
}

// Message is a chat message.
type Message struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	ConversationID uuid.UUID    `json:"conversationId" db:"conversation_id"`
	SenderID       uuid.UUID    `json:"senderId" db:"sender_id"`
	Body           string       `json:"body" db:"body"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// MessageCursor is a position in a conversation's history. Messages are
// ordered by creation time, then by id, so equal timestamps still page
// deterministically. A zero ID compares on time alone.
type MessageCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Before reports whether m sorts strictly before the cursor.
func (m *Message) Before(c MessageCursor) bool {
	if !m.CreatedAt.Equal(c.CreatedAt) {
		return m.CreatedAt.Before(c.CreatedAt)
	}
	return c.ID != uuid.Nil && bytes.Compare(m.ID[:], c.ID[:]) < 0
}

// ConversationSummary is a conversation as seen by one participant.
type ConversationSummary struct {
	Conversation
	Participants []uuid.UUID `json:"participants"`
	UnreadCount  int         `json:"unreadCount"`
}

// DirectKey identifies the direct conversation between two users regardless
// of argument order.
func DirectKey(a, b uuid.UUID) string {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return a.String() + ":" + b.String()
}

// IsUnreadBy reports whether m counts as unread for participant p: it was sent
// by someone else after p's read cursor. An unset cursor means nothing was read.
func (m *Message) IsUnreadBy(p *Participant) bool {
	if m.SenderID == p.UserID {
		return false
	}
	return p.LastReadAt == nil || m.CreatedAt.After(*p.LastReadAt)
}

// CountUnread counts the messages unread by p.
func CountUnread(messages []Message, p *Participant) int {
	n := 0
	for i := range messages {
		if messages[i].IsUnreadBy(p) {
			n++
		}
	}
	return n
}
