package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/classroom/internal/app/auth"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

// ChatService defines the interface for chat operations
type ChatService interface {
	// CreateConversation opens a group conversation or finds-or-creates the
	// direct conversation with one other user. created reports a new row.
	CreateConversation(ctx context.Context, actor appauth.Actor, req *dto.CreateConversationRequest) (conv *models.ConversationSummary, created bool, err error)
	ListConversations(ctx context.Context, actor appauth.Actor) ([]models.ConversationSummary, error)
	UnreadTotal(ctx context.Context, actor appauth.Actor) (int, error)
	GetMessages(ctx context.Context, actor appauth.Actor, conversationID uuid.UUID, req *dto.GetMessagesRequest) (*dto.MessagePage, error)
	SendMessage(ctx context.Context, actor appauth.Actor, conversationID uuid.UUID, req *dto.SendMessageRequest) (*models.Message, error)
	MarkRead(ctx context.Context, actor appauth.Actor, conversationID uuid.UUID) error

	// Websocket entry points
	JoinConversation(ctx context.Context, userID, conversationID uuid.UUID) error
	PostMessage(ctx context.Context, userID, conversationID uuid.UUID, body string) error
	MarkConversationRead(ctx context.Context, userID, conversationID uuid.UUID) error
}

// chatServiceImpl implements ChatService
type chatServiceImpl struct {
	chatRepo    ChatStore
	userRepo    UserStore
	broadcaster MessageBroadcaster
	pageSize    int
	maxPageSize int
	logger      zerolog.Logger
}

// NewChatService creates a new ChatService
func NewChatService(
	chatRepo ChatStore,
	userRepo UserStore,
	broadcaster MessageBroadcaster,
	pageSize, maxPageSize int,
	logger zerolog.Logger,
) ChatService {
	if pageSize <= 0 {
		pageSize = 50
	}
	if maxPageSize < pageSize {
		maxPageSize = pageSize
	}
	return &chatServiceImpl{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		broadcaster: broadcaster,
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
		logger:      logger,
	}
}

// CreateConversation creates a direct or group conversation
func (s *chatServiceImpl) CreateConversation(ctx context.Context, actor appauth.Actor, req *dto.CreateConversationRequest) (*models.ConversationSummary, bool, error) {
	others := make([]uuid.UUID, 0, len(req.ParticipantIDs))
	for _, id := range uniqueIDs(req.ParticipantIDs) {
		if id != actor.ID {
			others = append(others, id)
		}
	}
	if len(others) == 0 {
		return nil, false, apperrors.NewValidationError("participantIds", "participantIds must name at least one other user")
	}

	switch req.Kind {
	case models.ConversationDirect:
		if len(others) != 1 {
			return nil, false, apperrors.NewValidationError("participantIds", "a direct conversation has exactly one other participant")
		}
	case models.ConversationGroup:
		if isBlank(req.Title) {
			return nil, false, apperrors.NewValidationError("title", "title is required for group conversations")
		}
	default:
		return nil, false, apperrors.NewValidationError("kind", "kind must be one of: direct group")
	}

	users, err := s.userRepo.ListByIDs(ctx, others)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load participants: %w", err)
	}
	if len(users) != len(others) {
		return nil, false, apperrors.NewValidationError("participantIds", "one or more participants do not exist")
	}

	if req.Kind == models.ConversationDirect {
		existing, err := s.findDirectSummary(ctx, actor.ID, others[0])
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, apperrors.ErrConversationNotFound) {
			return nil, false, err
		}
	}

	participants := append([]uuid.UUID{actor.ID}, others...)
	conv := &models.Conversation{
		ID:        uuid.New(),
		Kind:      req.Kind,
		CreatedBy: actor.ID,
	}
	if req.Kind == models.ConversationGroup {
		title := strings.TrimSpace(*req.Title)
		conv.Title = &title
	}

	if err := s.chatRepo.CreateConversation(ctx, conv, participants); err != nil {
		// Lost a race with the other participant opening the same direct chat.
		if req.Kind == models.ConversationDirect && errors.Is(err, apperrors.ErrResourceAlreadyExists) {
			existing, findErr := s.findDirectSummary(ctx, actor.ID, others[0])
			if findErr != nil {
				return nil, false, findErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	s.logger.Info().
		Str("conversationID", conv.ID.String()).
		Str("kind", string(conv.Kind)).
		Int("participants", len(participants)).
		Msg("Conversation created")

	return &models.ConversationSummary{Conversation: *conv, Participants: participants}, true, nil
}

func (s *chatServiceImpl) findDirectSummary(ctx context.Context, a, b uuid.UUID) (*models.ConversationSummary, error) {
	conv, err := s.chatRepo.FindDirect(ctx, a, b)
	if err != nil {
		return nil, err
	}
	participants, err := s.chatRepo.ListParticipants(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return &models.ConversationSummary{Conversation: *conv, Participants: participants}, nil
}

// ListConversations lists the actor's conversations with unread counts
func (s *chatServiceImpl) ListConversations(ctx context.Context, actor appauth.Actor) ([]models.ConversationSummary, error) {
	items, err := s.chatRepo.ListForUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return items, nil
}

// UnreadTotal sums the actor's unread counts
func (s *chatServiceImpl) UnreadTotal(ctx context.Context, actor appauth.Actor) (int, error) {
	n, err := s.chatRepo.UnreadTotal(ctx, actor.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}

func messageCursor(req *dto.GetMessagesRequest) (*models.MessageCursor, error) {
	if req == nil {
		return nil, nil
	}
	if req.Before == nil {
		if req.BeforeID != "" {
			return nil, apperrors.NewValidationError("before", "before is required with beforeId")
		}
		return nil, nil
	}
	cursor := &models.MessageCursor{CreatedAt: *req.Before}
	if req.BeforeID != "" {
		id, err := uuid.Parse(req.BeforeID)
		if err != nil {
			return nil, apperrors.NewValidationError("beforeId", "beforeId must be a valid UUID")
		}
		cursor.ID = id
	}
	return cursor, nil
}

// GetMessages returns one page of messages that sort before the
// (req.Before, req.BeforeID) cursor
func (s *chatServiceImpl) GetMessages(ctx context.Context, actor appauth.Actor, conversationID uuid.UUID, req *dto.GetMessagesRequest) (*dto.MessagePage, error) {
	if err := s.requireParticipant(ctx, actor.ID, conversationID); err != nil {
		return nil, err
	}

	limit := s.pageSize
	if req != nil && req.Limit > 0 {
		limit = req.Limit
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	before, err := messageCursor(req)
	if err != nil {
		return nil, err
	}

	messages, err := s.chatRepo.ListMessages(ctx, conversationID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	page := &dto.MessagePage{Messages: messages}
	if len(messages) == limit {
		oldest := messages[0]
		page.NextBefore = &oldest.CreatedAt
		page.NextBeforeID = &oldest.ID
	}
	return page, nil
}

// SendMessage stores a message and pushes it to connected clients
func (s *chatServiceImpl) SendMessage(ctx context.Context, actor appauth.Actor, conversationID uuid.UUID, req *dto.SendMessageRequest) (*models.Message, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" && len(req.Attachments) == 0 {
		return nil, apperrors.NewValidationError("body", "a message needs a body or an attachment")
	}
	if err := s.requireParticipant(ctx, actor.ID, conversationID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       actor.ID,
		Body:           body,
	}
	for _, a := range req.Attachments {
		msg.Attachments = append(msg.Attachments, *a.ToModel(models.ResourceMessage, msg.ID, actor.ID))
	}

	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	// The sender has read everything up to their own message.
	if err := s.chatRepo.MarkRead(ctx, conversationID, actor.ID, &msg.CreatedAt); err != nil {
		s.logger.Warn().Err(err).Str("conversationID", conversationID.String()).Msg("Failed to move sender read cursor")
	}

	s.broadcaster.BroadcastMessage(conversationID, msg)
	return msg, nil
}

// MarkRead moves the actor's read cursor to the database's current time, the
// clock message timestamps come from.
func (s *chatServiceImpl) MarkRead(ctx context.Context, actor appauth.Actor, conversationID uuid.UUID) error {
	if err := s.requireParticipant(ctx, actor.ID, conversationID); err != nil {
		return err
	}
	if err := s.chatRepo.MarkRead(ctx, conversationID, actor.ID, nil); err != nil {
		return err
	}
	s.broadcaster.BroadcastRead(conversationID, actor.ID)
	return nil
}

// JoinConversation checks that userID may subscribe to the conversation
func (s *chatServiceImpl) JoinConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	return s.requireParticipant(ctx, userID, conversationID)
}

// PostMessage sends a text message on behalf of a connected socket
func (s *chatServiceImpl) PostMessage(ctx context.Context, userID, conversationID uuid.UUID, body string) error {
	_, err := s.SendMessage(ctx, appauth.Actor{ID: userID}, conversationID, &dto.SendMessageRequest{Body: body})
	return err
}

// MarkConversationRead marks the conversation read on behalf of a socket
func (s *chatServiceImpl) MarkConversationRead(ctx context.Context, userID, conversationID uuid.UUID) error {
	return s.MarkRead(ctx, appauth.Actor{ID: userID}, conversationID)
}

func (s *chatServiceImpl) requireParticipant(ctx context.Context, userID, conversationID uuid.UUID) error {
	if _, err := s.chatRepo.GetConversation(ctx, conversationID); err != nil {
		return err
	}
	ok, err := s.chatRepo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return fmt.Errorf("failed to check participant: %w", err)
	}
	if !ok {
		return apperrors.NewForbiddenError("You are not a participant in this conversation")
	}
	return nil
}
