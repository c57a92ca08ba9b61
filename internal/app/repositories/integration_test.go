//go:build integration

package repositories

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/classroom/internal/app/migrations"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/app/repositories/

// testPool migrates a throwaway schema and returns a pool bound to it.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(admin.Close)

	schema := "it_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
	})

	cfg, err := pgxpool.ParseConfig(url)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema + ",public"
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrations.NewMigrator(pool, zerolog.Nop()).MigrateFromDirectory(ctx, "../../../migrations"))
	return pool
}

func insertUser(t *testing.T, pool *pgxpool.Pool, role models.Role) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (email, password_hash, full_name, role) VALUES ($1, 'x', 'User', $2) RETURNING id`,
		uuid.NewString()+"@example.com", role).Scan(&id)
	require.NoError(t, err)
	return id
}

func unreadByConversation(t *testing.T, repo *ChatRepository, userID uuid.UUID) map[uuid.UUID]int {
	t.Helper()
	items, err := repo.ListForUser(context.Background(), userID)
	require.NoError(t, err)
	out := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		out[it.ID] = it.UnreadCount
	}
	return out
}

func TestChatRepository_UnreadCounts(t *testing.T) {
	pool := testPool(t)
	repo := NewChatRepository(pool)
	ctx := context.Background()

	teacher := insertUser(t, pool, models.RoleTeacher)
	student := insertUser(t, pool, models.RoleStudent)
	other := insertUser(t, pool, models.RoleStudent)

	direct := &models.Conversation{Kind: models.ConversationDirect, CreatedBy: teacher}
	require.NoError(t, repo.CreateConversation(ctx, direct, []uuid.UUID{teacher, student}))
	title := "Study group"
	group := &models.Conversation{Kind: models.ConversationGroup, Title: &title, CreatedBy: teacher}
	require.NoError(t, repo.CreateConversation(ctx, group, []uuid.UUID{teacher, student, other}))

	send := func(conv, sender uuid.UUID) *models.Message {
		msg := &models.Message{ConversationID: conv, SenderID: sender, Body: "hi"}
		require.NoError(t, repo.CreateMessage(ctx, msg))
		return msg
	}
	send(direct.ID, teacher)
	send(direct.ID, teacher)
	send(group.ID, other)
	send(group.ID, student)

	items, err := repo.ListForUser(ctx, student)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		if it.ID == group.ID {
			assert.ElementsMatch(t, []uuid.UUID{teacher, student, other}, it.Participants)
		} else {
			assert.ElementsMatch(t, []uuid.UUID{teacher, student}, it.Participants)
		}
	}
	assert.Equal(t, map[uuid.UUID]int{direct.ID: 2, group.ID: 1}, unreadByConversation(t, repo, student))

	total, err := repo.UnreadTotal(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	// own messages never count; the cursor is unset for the teacher
	total, err = repo.UnreadTotal(ctx, teacher)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	require.NoError(t, repo.MarkRead(ctx, direct.ID, student, nil))
	send(direct.ID, teacher)
	assert.Equal(t, map[uuid.UUID]int{direct.ID: 1, group.ID: 1}, unreadByConversation(t, repo, student))

	// an older cursor does not move the read position back
	past := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkRead(ctx, direct.ID, student, &past))
	total, err = repo.UnreadTotal(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	total, err = repo.UnreadTotal(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, total)

	assert.ErrorIs(t, repo.MarkRead(ctx, direct.ID, other, nil), apperrors.ErrConversationNotFound)
}

func TestChatRepository_ListMessagesKeyset(t *testing.T) {
	pool := testPool(t)
	repo := NewChatRepository(pool)
	ctx := context.Background()

	teacher := insertUser(t, pool, models.RoleTeacher)
	student := insertUser(t, pool, models.RoleStudent)
	conv := &models.Conversation{Kind: models.ConversationDirect, CreatedBy: teacher}
	require.NoError(t, repo.CreateConversation(ctx, conv, []uuid.UUID{teacher, student}))

	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := pool.Exec(ctx,
			`INSERT INTO messages (id, conversation_id, sender_id, body, created_at) VALUES ($1, $2, $3, 'same', $4)`,
			uuid.New(), conv.ID, teacher, at)
		require.NoError(t, err)
	}

	first, err := repo.ListMessages(ctx, conv.ID, nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)

	cursor := &models.MessageCursor{CreatedAt: first[0].CreatedAt, ID: first[0].ID}
	second, err := repo.ListMessages(ctx, conv.ID, cursor, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.NotContains(t, []uuid.UUID{first[0].ID, first[1].ID}, second[0].ID)
}

func TestTokenRepository_RevokeOnce(t *testing.T) {
	pool := testPool(t)
	repo := NewTokenRepository(pool)
	ctx := context.Background()

	user := insertUser(t, pool, models.RoleStudent)
	require.NoError(t, repo.CreateToken(ctx, "refresh-1", user, time.Now().Add(time.Hour)))

	require.NoError(t, repo.RevokeToken(ctx, "refresh-1"))
	assert.ErrorIs(t, repo.RevokeToken(ctx, "refresh-1"), apperrors.ErrTokenNotFound)
}

func TestAttachmentRepository_PathInUse(t *testing.T) {
	pool := testPool(t)
	repo := NewAttachmentRepository(pool)
	ctx := context.Background()

	user := insertUser(t, pool, models.RoleTeacher)
	path := "course/" + user.String() + "/notes.pdf"
	items := []models.Attachment{
		{ResourceType: models.ResourceCourse, ResourceID: uuid.New(), FileName: "notes.pdf", Path: path, URL: "/uploads/" + path, UploadedBy: user},
		{ResourceType: models.ResourceQuiz, ResourceID: uuid.New(), FileName: "notes.pdf", Path: path, URL: "/uploads/" + path, UploadedBy: user},
	}
	require.NoError(t, repo.CreateMany(ctx, items))

	require.NoError(t, repo.Delete(ctx, items[0].ID))
	inUse, err := repo.PathInUse(ctx, path)
	require.NoError(t, err)
	assert.True(t, inUse)

	require.NoError(t, repo.Delete(ctx, items[1].ID))
	inUse, err = repo.PathInUse(ctx, path)
	require.NoError(t, err)
	assert.False(t, inUse)
}
