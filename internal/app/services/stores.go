package services

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/pkg/filestorage"
)

// The interfaces below are the persistence and integration surface the
// services depend on. The pgx repositories implement them in production.

// UserStore persists users and their profiles.
type UserStore interface {
	CreateWithProfile(ctx context.Context, user *models.User, teacher *models.Teacher, student *models.Student) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetTeacherProfile(ctx context.Context, userID uuid.UUID) (*models.Teacher, error)
	GetStudentProfile(ctx context.Context, userID uuid.UUID) (*models.Student, error)
	ListByRole(ctx context.Context, role models.Role, query string, offset, limit uint64) ([]models.User, int64, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

// TokenStore persists refresh tokens.
type TokenStore interface {
	CreateToken(ctx context.Context, token string, userID uuid.UUID, expiryDate time.Time) error
	GetTokenByValue(ctx context.Context, token string) (uuid.UUID, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// CourseStore persists courses and enrollments.
type CourseStore interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*dto.CourseDetail, error)
	List(ctx context.Context, filter dto.CourseFilter, offset, limit uint64) ([]models.Course, int64, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uuid.UUID) error
	Enroll(ctx context.Context, courseID uuid.UUID, studentIDs []uuid.UUID) (int64, error)
	Unenroll(ctx context.Context, courseID, studentID uuid.UUID) error
	IsEnrolled(ctx context.Context, courseID, studentID uuid.UUID) (bool, error)
	ListStudents(ctx context.Context, courseID uuid.UUID) ([]models.User, error)
}

// SessionStore persists course sessions and attendees.
type SessionStore interface {
	Create(ctx context.Context, s *models.CourseSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CourseSession, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.CourseSession, error)
	List(ctx context.Context, filter dto.SessionFilter) ([]models.CourseSession, error)
	Update(ctx context.Context, s *models.CourseSession) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddAttendees(ctx context.Context, sessionID uuid.UUID, studentIDs []uuid.UUID) error
	ReplaceAttendees(ctx context.Context, sessionID uuid.UUID, studentIDs []uuid.UUID) error
	IsAttendee(ctx context.Context, sessionID, studentID uuid.UUID) (bool, error)
}

// AssignmentStore persists assignments.
type AssignmentStore interface {
	Create(ctx context.Context, a *models.Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	List(ctx context.Context, filter dto.WorkFilter) ([]models.Assignment, error)
	Update(ctx context.Context, a *models.Assignment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// QuizStore persists quizzes.
type QuizStore interface {
	Create(ctx context.Context, q *models.Quiz) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	List(ctx context.Context, filter dto.WorkFilter) ([]models.Quiz, error)
	Update(ctx context.Context, q *models.Quiz) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CourseworkStore persists assigned students and submissions of either work kind.
type CourseworkStore interface {
	AssignStudents(ctx context.Context, kind models.WorkKind, workID uuid.UUID, studentIDs []uuid.UUID) error
	ReplaceStudents(ctx context.Context, kind models.WorkKind, workID uuid.UUID, studentIDs []uuid.UUID) error
	ListStudents(ctx context.Context, kind models.WorkKind, workID uuid.UUID) ([]uuid.UUID, error)
	IsAssigned(ctx context.Context, kind models.WorkKind, workID, studentID uuid.UUID) (bool, error)
	CreateSubmission(ctx context.Context, kind models.WorkKind, s *models.Submission) error
	GetSubmission(ctx context.Context, kind models.WorkKind, id uuid.UUID) (*models.Submission, error)
	ListSubmissions(ctx context.Context, kind models.WorkKind, workID uuid.UUID, studentID *uuid.UUID) ([]models.Submission, error)
	GradeSubmission(ctx context.Context, kind models.WorkKind, id uuid.UUID, grade float64, feedback *string, gradedBy uuid.UUID, at time.Time) error
}

// AttachmentStore persists attachment records.
type AttachmentStore interface {
	CreateMany(ctx context.Context, items []models.Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error)
	ListByResource(ctx context.Context, resourceType models.ResourceType, resourceID uuid.UUID) ([]models.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	PathInUse(ctx context.Context, path string) (bool, error)
}

// ChatStore persists conversations and messages.
type ChatStore interface {
	CreateConversation(ctx context.Context, conv *models.Conversation, participantIDs []uuid.UUID) error
	FindDirect(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListParticipants(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error)
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.ConversationSummary, error)
	UnreadTotal(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, conversationID, userID uuid.UUID, upTo *time.Time) error
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, before *models.MessageCursor, limit int) ([]models.Message, error)
}

// MessageBroadcaster pushes chat events to connected clients.
type MessageBroadcaster interface {
	BroadcastMessage(conversationID uuid.UUID, msg *models.Message)
	BroadcastRead(conversationID, userID uuid.UUID)
}

// FileStore saves uploaded files.
type FileStore interface {
	SaveFileWithPath(fileHeader *multipart.FileHeader, subPath string) (*filestorage.StoredFile, error)
	DeleteFile(path string) error
}
