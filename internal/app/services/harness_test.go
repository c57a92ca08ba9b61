package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/classroom/internal/app/auth"
	"github.com/yigit/classroom/internal/app/models"
)

type harness struct {
	users       *fakeUsers
	tokens      *fakeTokens
	courses     *fakeCourses
	sessions    *fakeSessions
	assignments *fakeAssignments
	quizzes     *fakeQuizzes
	work        *fakeWork
	attachments *fakeAttachments
	chat        *fakeChat
	video       *fakeVideo
	broadcaster *fakeBroadcaster
	files       *fakeFiles
	authz       *appauth.AuthorizationService
	logger      zerolog.Logger

	admin   appauth.Actor
	teacher appauth.Actor
	student appauth.Actor
}

func newHarness() *harness {
	h := &harness{
		users:       newFakeUsers(),
		tokens:      newFakeTokens(),
		courses:     newFakeCourses(),
		sessions:    newFakeSessions(),
		assignments: newFakeAssignments(),
		quizzes:     newFakeQuizzes(),
		work:        newFakeWork(),
		attachments: newFakeAttachments(),
		chat:        newFakeChat(),
		video:       &fakeVideo{},
		broadcaster: &fakeBroadcaster{},
		files:       &fakeFiles{},
		logger:      zerolog.Nop(),
	}
	h.authz = appauth.NewAuthorizationService(h.courses)
	h.admin = actorOf(h.users.add(models.RoleAdmin))
	h.teacher = actorOf(h.users.add(models.RoleTeacher))
	h.student = actorOf(h.users.add(models.RoleStudent))
	return h
}

func actorOf(u *models.User) appauth.Actor {
	return appauth.Actor{ID: u.ID, Role: u.Role}
}

func (h *harness) courseService() *courseServiceImpl {
	svc := NewCourseService(h.courses, h.sessions, h.assignments, h.quizzes, h.work, h.users, h.video, h.authz, h.logger).(*courseServiceImpl)
	svc.now = func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) }
	return svc
}

func (h *harness) sessionService() SessionService {
	return NewSessionService(h.sessions, h.video, h.authz, 0, h.logger)
}

func (h *harness) assignmentService() AssignmentService {
	return NewAssignmentService(h.assignments, h.work, h.authz, h.logger)
}

func (h *harness) quizService() QuizService {
	return NewQuizService(h.quizzes, h.work, h.authz, h.logger)
}

func (h *harness) chatService() ChatService {
	return NewChatService(h.chat, h.users, h.broadcaster, 2, 5, h.logger)
}

func (h *harness) fileService() FileService {
	return NewFileService(h.files, h.attachments, h.assignments, h.quizzes, h.authz, h.logger)
}

// ownedCourse creates a course owned by the harness teacher with the harness
// student enrolled.
func (h *harness) ownedCourse() *models.Course {
	c := h.courses.add(h.teacher.ID, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
	h.courses.enrolled[c.ID] = map[uuid.UUID]bool{h.student.ID: true}
	return c
}
