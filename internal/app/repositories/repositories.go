package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the part of *pgxpool.Pool and pgx.Tx used by helpers that run
// both inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository       *UserRepository
	TokenRepository      *TokenRepository
	CourseRepository     *CourseRepository
	SessionRepository    *SessionRepository
	AssignmentRepository *AssignmentRepository
	QuizRepository       *QuizRepository
	CourseworkRepository *CourseworkRepository
	AttachmentRepository *AttachmentRepository
	ChatRepository       *ChatRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:       NewUserRepository(db),
		TokenRepository:      NewTokenRepository(db),
		CourseRepository:     NewCourseRepository(db),
		SessionRepository:    NewSessionRepository(db),
		AssignmentRepository: NewAssignmentRepository(db),
		QuizRepository:       NewQuizRepository(db),
		CourseworkRepository: NewCourseworkRepository(db),
		AttachmentRepository: NewAttachmentRepository(db),
		ChatRepository:       NewChatRepository(db),
	}
}
