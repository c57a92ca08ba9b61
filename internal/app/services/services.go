package services

import (
	"time"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/classroom/internal/app/auth"
	"github.com/yigit/classroom/internal/app/repositories"
	"github.com/yigit/classroom/internal/pkg/auth"
	"github.com/yigit/classroom/internal/pkg/video"
)

// Services defined in this package:
// - AuthService: login, token refresh and logout
// - UserService: user directory and account creation
// - CourseService: course authoring, enrollment and calendar
// - SessionService: live sessions and their video rooms
// - AssignmentService, QuizService: course work, submissions and grading
// - ChatService: conversations, messages and read cursors
// - FileService: uploads and attachment records

// Dependencies are the collaborators the services are built from.
type Dependencies struct {
	Repos       *repositories.Repositories
	JWT         *auth.JWTService
	Video       video.Provider
	Storage     FileStore
	Broadcaster MessageBroadcaster
	RoomTTL     time.Duration
	ChatPage    int
	ChatMaxPage int
	Logger      zerolog.Logger
}

// Services groups every service of the application.
type Services struct {
	Auth       *AuthService
	User       UserService
	Course     CourseService
	Session    SessionService
	Assignment AssignmentService
	Quiz       QuizService
	Chat       ChatService
	File       FileService
}

// NewServices wires the services on top of the repositories.
func NewServices(d Dependencies) *Services {
	r := d.Repos
	authz := appauth.NewAuthorizationService(r.CourseRepository)
	component := func(name string) zerolog.Logger {
		return d.Logger.With().Str("component", name).Logger()
	}

	return &Services{
		Auth: NewAuthService(r.UserRepository, r.TokenRepository, d.JWT, component("auth_service")),
		User: NewUserService(r.UserRepository, component("user_service")),
		Course: NewCourseService(r.CourseRepository, r.SessionRepository, r.AssignmentRepository, r.QuizRepository, r.CourseworkRepository, r.UserRepository,
			d.Video, authz, component("course_service")),
		Session:    NewSessionService(r.SessionRepository, d.Video, authz, d.RoomTTL, component("session_service")),
		Assignment: NewAssignmentService(r.AssignmentRepository, r.CourseworkRepository, authz, component("assignment_service")),
		Quiz:       NewQuizService(r.QuizRepository, r.CourseworkRepository, authz, component("quiz_service")),
		Chat: NewChatService(r.ChatRepository, r.UserRepository, d.Broadcaster, d.ChatPage, d.ChatMaxPage,
			component("chat_service")),
		File: NewFileService(d.Storage, r.AttachmentRepository, r.AssignmentRepository, r.QuizRepository, authz, component("file_service")),
	}
}
