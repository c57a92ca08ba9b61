package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

func directWith(id uuid.UUID) *dto.CreateConversationRequest {
	return &dto.CreateConversationRequest{Kind: models.ConversationDirect, ParticipantIDs: []uuid.UUID{id}}
}

func TestCreateConversation_DirectIsFoundOrCreated(t *testing.T) {
	h := newHarness()
	svc := h.chatService()
	ctx := context.Background()

	first, created, err := svc.CreateConversation(ctx, h.teacher, directWith(h.student.ID))
	require.NoError(t, err)
	assert.True(t, created)
	assert.ElementsMatch(t, []uuid.UUID{h.teacher.ID, h.student.ID}, first.Participants)

	again, created, err := svc.CreateConversation(ctx, h.student, directWith(h.teacher.ID))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, h.chat.convs, 1)
}

func TestCreateConversation_Validation(t *testing.T) {
	h := newHarness()
	svc := h.chatService()
	ctx := context.Background()

	_, _, err := svc.CreateConversation(ctx, h.teacher, directWith(h.teacher.ID))
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, _, err = svc.CreateConversation(ctx, h.teacher, directWith(uuid.New()))
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, _, err = svc.CreateConversation(ctx, h.teacher, &dto.CreateConversationRequest{
		Kind: models.ConversationGroup, ParticipantIDs: []uuid.UUID{h.student.ID, h.admin.ID},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	title := " Study group "
	group, created, err := svc.CreateConversation(ctx, h.teacher, &dto.CreateConversationRequest{
		Kind: models.ConversationGroup, Title: &title, ParticipantIDs: []uuid.UUID{h.student.ID, h.admin.ID},
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Study group", *group.Title)
	assert.Len(t, group.Participants, 3)
}

func TestSendMessage_BroadcastsAndCountsUnread(t *testing.T) {
	h := newHarness()
	svc := h.chatService()
	ctx := context.Background()
	conv, _, err := svc.CreateConversation(ctx, h.teacher, directWith(h.student.ID))
	require.NoError(t, err)

	msg, err := svc.SendMessage(ctx, h.teacher, conv.ID, &dto.SendMessageRequest{Body: " hello "})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Body)
	require.Len(t, h.broadcaster.messages, 1)
	assert.Equal(t, msg.ID, h.broadcaster.messages[0].ID)

	unread, err := svc.UnreadTotal(ctx, h.student)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	unread, err = svc.UnreadTotal(ctx, h.teacher)
	require.NoError(t, err)
	assert.Zero(t, unread)

	require.NoError(t, svc.MarkRead(ctx, h.student, conv.ID))
	assert.Equal(t, []uuid.UUID{h.student.ID}, h.broadcaster.reads)
	unread, err = svc.UnreadTotal(ctx, h.student)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestSendMessage_NonParticipant(t *testing.T) {
	h := newHarness()
	svc := h.chatService()
	ctx := context.Background()
	conv, _, err := svc.CreateConversation(ctx, h.teacher, directWith(h.student.ID))
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, h.admin, conv.ID, &dto.SendMessageRequest{Body: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.SendMessage(ctx, h.teacher, conv.ID, &dto.SendMessageRequest{Body: "   "})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.SendMessage(ctx, h.teacher, uuid.New(), &dto.SendMessageRequest{Body: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrConversationNotFound)

	assert.ErrorIs(t, svc.JoinConversation(ctx, h.admin.ID, conv.ID), apperrors.ErrPermissionDenied)
	assert.Empty(t, h.broadcaster.messages)
}

func TestGetMessages_Pages(t *testing.T) {
	h := newHarness()
	svc := h.chatService()
	ctx := context.Background()
	conv, _, err := svc.CreateConversation(ctx, h.teacher, directWith(h.student.ID))
	require.NoError(t, err)
	for _, body := range []string{"one", "two", "three"} {
		require.NoError(t, svc.PostMessage(ctx, h.teacher.ID, conv.ID, body))
	}

	// harness page size is 2
	page, err := svc.GetMessages(ctx, h.student, conv.ID, nil)
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "two", page.Messages[0].Body)
	assert.Equal(t, "three", page.Messages[1].Body)
	require.NotNil(t, page.NextBefore)

	require.NotNil(t, page.NextBeforeID)
	page, err = svc.GetMessages(ctx, h.student, conv.ID, &dto.GetMessagesRequest{Before: page.NextBefore, BeforeID: page.NextBeforeID.String()})
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "one", page.Messages[0].Body)
	assert.Nil(t, page.NextBefore)

	assert.Nil(t, page.NextBeforeID)

	// requested limits are capped at the maximum page size
	page, err = svc.GetMessages(ctx, h.student, conv.ID, &dto.GetMessagesRequest{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, page.Messages, 3)
	assert.Nil(t, page.NextBefore)
}

func TestGetMessages_PagesThroughEqualTimestamps(t *testing.T) {
	h := newHarness()
	svc := h.chatService()
	ctx := context.Background()
	conv, _, err := svc.CreateConversation(ctx, h.teacher, directWith(h.student.ID))
	require.NoError(t, err)

	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for _, body := range []string{"a", "b", "c"} {
		h.chat.messages[conv.ID] = append(h.chat.messages[conv.ID], models.Message{
			ID: uuid.New(), ConversationID: conv.ID, SenderID: h.teacher.ID, Body: body, CreatedAt: at,
		})
	}

	seen := map[uuid.UUID]bool{}
	req := &dto.GetMessagesRequest{}
	for {
		page, err := svc.GetMessages(ctx, h.student, conv.ID, req)
		require.NoError(t, err)
		for _, m := range page.Messages {
			assert.False(t, seen[m.ID], "message %s returned twice", m.Body)
			seen[m.ID] = true
		}
		if page.NextBefore == nil {
			break
		}
		req = &dto.GetMessagesRequest{Before: page.NextBefore, BeforeID: page.NextBeforeID.String()}
	}
	assert.Len(t, seen, 3)

	_, err = svc.GetMessages(ctx, h.student, conv.ID, &dto.GetMessagesRequest{BeforeID: uuid.NewString()})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestMarkRead_UsesStoreClock(t *testing.T) {
	h := newHarness()
	svc := h.chatService()
	ctx := context.Background()
	conv, _, err := svc.CreateConversation(ctx, h.teacher, directWith(h.student.ID))
	require.NoError(t, err)

	require.NoError(t, svc.PostMessage(ctx, h.teacher.ID, conv.ID, "before"))
	require.NoError(t, svc.MarkRead(ctx, h.student, conv.ID))

	// the store's clock runs years behind the wall clock; a later message
	// must still count as unread
	require.NoError(t, svc.PostMessage(ctx, h.teacher.ID, conv.ID, "after"))
	unread, err := svc.UnreadTotal(ctx, h.student)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}
