package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/db"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/dberrors"
	"github.com/yigit/classroom/internal/pkg/logger"
)

// unreadExpr counts messages from other senders newer than the read cursor of p.
const unreadExpr = `(SELECT count(*) FROM messages m
	WHERE m.conversation_id = c.id AND m.sender_id <> p.user_id
	AND (p.last_read_at IS NULL OR m.created_at > p.last_read_at))`

// ChatRepository handles conversations, participants and messages.
type ChatRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	var c models.Conversation
	if err := row.Scan(&c.ID, &c.Kind, &c.Title, &c.CreatedBy, &c.CreatedAt, &c.LastMessageAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateConversation inserts a conversation and its participants. Direct
// conversations are keyed by their participant pair.
func (r *ChatRepository) CreateConversation(ctx context.Context, conv *models.Conversation, participantIDs []uuid.UUID) error {
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	var directKey *string
	if conv.Kind == models.ConversationDirect && len(participantIDs) == 2 {
		key := models.DirectKey(participantIDs[0], participantIDs[1])
		directKey = &key
	}

	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("conversations").
			Columns("id", "kind", "title", "direct_key", "created_by").
			Values(conv.ID, conv.Kind, conv.Title, directKey, conv.CreatedBy).
			Suffix("RETURNING created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create conversation query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&conv.CreatedAt); err != nil {
			if dberrors.IsDuplicateConstraintError(err, "conversations_direct_key_key") {
				return apperrors.ErrResourceAlreadyExists
			}
			return fmt.Errorf("error creating conversation: %w", err)
		}

		q := r.sb.Insert("conversation_participants").Columns("conversation_id", "user_id")
		for _, id := range participantIDs {
			q = q.Values(conv.ID, id)
		}
		sql, args, err = q.Suffix("ON CONFLICT DO NOTHING").ToSql()
		if err != nil {
			return fmt.Errorf("failed to build add participants query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			logger.Error().Err(err).Str("conversationID", conv.ID.String()).Msg("Error adding participants")
			return dberrors.Translate(err, apperrors.ErrUserNotFound)
		}
		return nil
	})
}

// FindDirect returns the direct conversation between two users.
func (r *ChatRepository) FindDirect(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	sql, args, err := r.sb.Select("id", "kind", "title", "created_by", "created_at", "last_message_at").
		From("conversations").Where(squirrel.Eq{"direct_key": models.DirectKey(a, b)}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build find direct query: %w", err)
	}
	c, err := scanConversation(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, fmt.Errorf("error finding direct conversation: %w", err)
	}
	return c, nil
}

// GetConversation retrieves a conversation by ID
func (r *ChatRepository) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	sql, args, err := r.sb.Select("id", "kind", "title", "created_by", "created_at", "last_message_at").
		From("conversations").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get conversation query: %w", err)
	}
	c, err := scanConversation(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, fmt.Errorf("error retrieving conversation: %w", err)
	}
	return c, nil
}

// ListParticipants returns the user ids in a conversation.
func (r *ChatRepository) ListParticipants(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id FROM conversation_participants WHERE conversation_id = $1 ORDER BY joined_at, user_id`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("error listing participants: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

// IsParticipant reports whether the user belongs to the conversation.
func (r *ChatRepository) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2)`,
		conversationID, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("error checking participant: %w", err)
	}
	return ok, nil
}

// ListForUser returns the user's conversations, most recently active first,
// each with its participant ids and the user's unread count.
func (r *ChatRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.ConversationSummary, error) {
	sql, args, err := r.sb.Select(
		"c.id", "c.kind", "c.title", "c.created_by", "c.created_at", "c.last_message_at",
		"ARRAY(SELECT cp.user_id FROM conversation_participants cp WHERE cp.conversation_id = c.id ORDER BY cp.joined_at, cp.user_id)",
		unreadExpr,
	).
		From("conversations c").
		Join("conversation_participants p ON p.conversation_id = c.id").
		Where(squirrel.Eq{"p.user_id": userID}).
		OrderBy("COALESCE(c.last_message_at, c.created_at) DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list conversations query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("userID", userID.String()).Msg("Error listing conversations")
		return nil, fmt.Errorf("error listing conversations: %w", err)
	}
	defer rows.Close()

	out := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var s models.ConversationSummary
		if err := rows.Scan(&s.ID, &s.Kind, &s.Title, &s.CreatedBy, &s.CreatedAt, &s.LastMessageAt,
			&s.Participants, &s.UnreadCount); err != nil {
			return nil, fmt.Errorf("error scanning conversation: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UnreadTotal sums the user's unread counts over all conversations.
func (r *ChatRepository) UnreadTotal(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(`+unreadExpr+`), 0)::int
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE p.user_id = $1`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("error counting unread messages: %w", err)
	}
	return total, nil
}

// MarkRead moves the user's read cursor forward to upTo, or to the database's
// now() when upTo is nil. The cursor never moves back.
func (r *ChatRepository) MarkRead(ctx context.Context, conversationID, userID uuid.UUID, upTo *time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE conversation_participants
		SET last_read_at = GREATEST(last_read_at, COALESCE($3::timestamptz, now()))
		WHERE conversation_id = $1 AND user_id = $2`,
		conversationID, userID, upTo)
	if err != nil {
		return fmt.Errorf("error marking conversation read: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConversationNotFound
	}
	return nil
}

// CreateMessage stores a message with its attachments and bumps the
// conversation's activity time.
func (r *ChatRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("messages").
			Columns("id", "conversation_id", "sender_id", "body").
			Values(msg.ID, msg.ConversationID, msg.SenderID, msg.Body).
			Suffix("RETURNING created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create message query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&msg.CreatedAt); err != nil {
			logger.Error().Err(err).Str("conversationID", msg.ConversationID.String()).Msg("Error creating message")
			return dberrors.Translate(err, apperrors.ErrConversationNotFound)
		}

		for i := range msg.Attachments {
			msg.Attachments[i].ResourceType = models.ResourceMessage
			msg.Attachments[i].ResourceID = msg.ID
			msg.Attachments[i].UploadedBy = msg.SenderID
			msg.Attachments[i].CreatedAt = msg.CreatedAt
		}
		if err := insertAttachments(ctx, tx, r.sb, msg.Attachments); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE conversations SET last_message_at = $2 WHERE id = $1`, msg.ConversationID, msg.CreatedAt)
		if err != nil {
			return fmt.Errorf("error updating conversation activity: %w", err)
		}
		return nil
	})
}

// ListMessages returns up to limit messages that sort before the cursor,
// oldest first, with their attachments.
func (r *ChatRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, before *models.MessageCursor, limit int) ([]models.Message, error) {
	q := r.sb.Select("id", "conversation_id", "sender_id", "body", "created_at").
		From("messages").
		Where(squirrel.Eq{"conversation_id": conversationID})
	switch {
	case before == nil:
	case before.ID == uuid.Nil:
		q = q.Where(squirrel.Lt{"created_at": before.CreatedAt})
	default:
		q = q.Where(squirrel.Expr("(created_at, id) < (?, ?)", before.CreatedAt, before.ID))
	}
	sql, args, err := q.OrderBy("created_at DESC", "id DESC").Limit(uint64(limit)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list messages query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing messages: %w", err)
	}
	defer rows.Close()

	newestFirst := make([]models.Message, 0, limit)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		newestFirst = append(newestFirst, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	messages := make([]models.Message, len(newestFirst))
	ids := make([]uuid.UUID, len(newestFirst))
	index := make(map[uuid.UUID]int, len(newestFirst))
	for i, m := range newestFirst {
		j := len(newestFirst) - 1 - i
		messages[j] = m
		ids[j] = m.ID
		index[m.ID] = j
	}

	attachments, err := listAttachments(ctx, r.db, r.sb, models.ResourceMessage, ids)
	if err != nil {
		return nil, err
	}
	for _, a := range attachments {
		if j, ok := index[a.ResourceID]; ok {
			messages[j].Attachments = append(messages[j].Attachments, a)
		}
	}
	return messages, nil
}
