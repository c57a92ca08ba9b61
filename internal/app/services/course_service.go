package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/classroom/internal/app/auth"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/calendar"
	"github.com/yigit/classroom/internal/pkg/helpers"
	"github.com/yigit/classroom/internal/pkg/validation"
	"github.com/yigit/classroom/internal/pkg/video"
	"golang.org/x/sync/errgroup"
)

const (
	defaultLectureMinutes = 60
	defaultTotalMarks     = 100
)

// Creation steps reported in CourseCreationResult.Issues
const (
	stepEnrollment         = "enrollment"
	stepSession            = "session"
	stepAssignment         = "assignment"
	stepAssignmentStudents = "assignment_students"
	stepQuiz               = "quiz"
	stepQuizStudents       = "quiz_students"
)

// CourseService defines the interface for course operations
type CourseService interface {
	CreateCourse(ctx context.Context, actor appauth.Actor, req *dto.CreateCourseRequest) (*dto.CourseCreationResult, error)
	ListCourses(ctx context.Context, actor appauth.Actor, query string, page, size int) (*dto.PaginatedResponse, error)
	GetCourse(ctx context.Context, actor appauth.Actor, courseID uuid.UUID) (*dto.CourseDetail, error)
	UpdateCourse(ctx context.Context, actor appauth.Actor, courseID uuid.UUID, req *dto.UpdateCourseRequest) (*models.Course, error)
	DeleteCourse(ctx context.Context, actor appauth.Actor, courseID uuid.UUID) error
	ListStudents(ctx context.Context, actor appauth.Actor, courseID uuid.UUID) ([]*dto.UserResponse, error)
	EnrollStudents(ctx context.Context, actor appauth.Actor, courseID uuid.UUID, studentIDs []uuid.UUID) (int, error)
	RemoveStudent(ctx context.Context, actor appauth.Actor, courseID, studentID uuid.UUID) error
	GetCalendar(ctx context.Context, actor appauth.Actor, courseID uuid.UUID) (*dto.CourseCalendarResponse, error)
}

// courseServiceImpl implements CourseService
type courseServiceImpl struct {
	courseRepo     CourseStore
	sessionRepo    SessionStore
	assignmentRepo AssignmentStore
	quizRepo       QuizStore
	workRepo       CourseworkStore
	userRepo       UserStore
	video          video.Provider
	authz          *appauth.AuthorizationService
	logger         zerolog.Logger
	now            func() time.Time
}

// NewCourseService creates a new CourseService
func NewCourseService(
	courseRepo CourseStore,
	sessionRepo SessionStore,
	assignmentRepo AssignmentStore,
	quizRepo QuizStore,
	workRepo CourseworkStore,
	userRepo UserStore,
	videoProvider video.Provider,
	authz *appauth.AuthorizationService,
	logger zerolog.Logger,
) CourseService {
	return &courseServiceImpl{
		courseRepo:     courseRepo,
		sessionRepo:    sessionRepo,
		assignmentRepo: assignmentRepo,
		quizRepo:       quizRepo,
		workRepo:       workRepo,
		userRepo:       userRepo,
		video:          videoProvider,
		authz:          authz,
		logger:         logger,
		now:            time.Now,
	}
}

// CreateCourse inserts the course and then, step by step, its enrollments and
// curriculum. Only the course insert is fatal. Every later failure is logged,
// recorded in the result's issues and skipped.
func (s *courseServiceImpl) CreateCourse(ctx context.Context, actor appauth.Actor, req *dto.CreateCourseRequest) (*dto.CourseCreationResult, error) {
	if !actor.Role.CanAuthor() {
		return nil, apperrors.NewForbiddenError("Only teachers and admins can create courses")
	}

	teacherID, err := s.resolveCourseTeacher(ctx, actor, req.TeacherID)
	if err != nil {
		return nil, err
	}

	if err := validateCourseDates(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	course := &models.Course{
		ID:           uuid.New(),
		TeacherID:    teacherID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Category:     req.Category,
		ThumbnailURL: req.ThumbnailURL,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}

	if err := s.courseRepo.Create(ctx, course); err != nil {
		s.logger.Error().Err(err).Str("teacherID", teacherID.String()).Msg("Failed to create course")
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	log := s.logger.With().Str("courseID", course.ID.String()).Logger()
	result := &dto.CourseCreationResult{
		Course:      course,
		Sessions:    []models.CourseSession{},
		Assignments: []models.Assignment{},
		Quizzes:     []models.Quiz{},
		Issues:      []dto.CreationIssue{},
	}
	report := func(step, lessonTitle string, err error) {
		log.Error().Err(err).Str("step", step).Str("lesson", lessonTitle).Msg("Course creation step failed")
		result.Issues = append(result.Issues, dto.CreationIssue{Step: step, LessonTitle: lessonTitle, Message: err.Error()})
	}

	students := uniqueIDs(req.StudentIDs)
	if len(students) > 0 {
		n, err := s.courseRepo.Enroll(ctx, course.ID, students)
		if err != nil {
			report(stepEnrollment, "", err)
		} else {
			result.EnrolledStudents = int(n)
		}
	}

	for _, section := range req.Curriculum {
		for i := range section.Lessons {
			lesson := &section.Lessons[i]
			switch lesson.Type {
			case models.LessonLecture:
				session, err := s.createLecture(ctx, actor, course.ID, lesson)
				if err != nil {
					report(stepSession, lesson.Title, err)
					continue
				}
				result.Sessions = append(result.Sessions, *session)

			case models.LessonAssignment:
				assignment := &models.Assignment{
					ID:          uuid.New(),
					CourseID:    course.ID,
					Title:       lesson.Title,
					Description: lesson.Description,
					DueDate:     lesson.DueDate,
					TotalMarks:  marksOrDefault(lesson.TotalMarks),
					CreatedBy:   actor.ID,
				}
				if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
					report(stepAssignment, lesson.Title, err)
					continue
				}
				result.Assignments = append(result.Assignments, *assignment)
				if len(students) > 0 {
					if err := s.workRepo.AssignStudents(ctx, models.WorkAssignment, assignment.ID, students); err != nil {
						report(stepAssignmentStudents, lesson.Title, err)
					}
				}

			case models.LessonQuiz:
				quiz := &models.Quiz{
					ID:              uuid.New(),
					CourseID:        course.ID,
					Title:           lesson.Title,
					Description:     lesson.Description,
					DueDate:         lesson.DueDate,
					TotalMarks:      marksOrDefault(lesson.TotalMarks),
					DurationMinutes: lesson.DurationMinutes,
					CreatedBy:       actor.ID,
				}
				if err := s.quizRepo.Create(ctx, quiz); err != nil {
					report(stepQuiz, lesson.Title, err)
					continue
				}
				result.Quizzes = append(result.Quizzes, *quiz)
				if len(students) > 0 {
					if err := s.workRepo.AssignStudents(ctx, models.WorkQuiz, quiz.ID, students); err != nil {
						report(stepQuizStudents, lesson.Title, err)
					}
				}

			default:
				report("lesson", lesson.Title, fmt.Errorf("unknown lesson type %q", lesson.Type))
			}
		}
	}

	log.Info().
		Int("enrolled", result.EnrolledStudents).
		Int("sessions", len(result.Sessions)).
		Int("assignments", len(result.Assignments)).
		Int("quizzes", len(result.Quizzes)).
		Int("issues", len(result.Issues)).
		Msg("Course created")

	return result, nil
}

// createLecture inserts a curriculum lecture as a session without a room.
func (s *courseServiceImpl) createLecture(ctx context.Context, actor appauth.Actor, courseID uuid.UUID, lesson *dto.LessonRequest) (*models.CourseSession, error) {
	start := s.now().UTC()
	if lesson.ScheduledAt != nil && !lesson.ScheduledAt.IsZero() {
		start = *lesson.ScheduledAt
	}
	duration := defaultLectureMinutes
	if lesson.DurationMinutes != nil && *lesson.DurationMinutes > 0 {
		duration = *lesson.DurationMinutes
	}

	session := &models.CourseSession{
		ID:              uuid.New(),
		CourseID:        courseID,
		Title:           lesson.Title,
		Description:     lesson.Description,
		StartTime:       start,
		DurationMinutes: duration,
		CreatedBy:       actor.ID,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// resolveCourseTeacher picks the owner of a new course. Teachers always own
// what they create; admins must name a teacher.
func (s *courseServiceImpl) resolveCourseTeacher(ctx context.Context, actor appauth.Actor, requested *uuid.UUID) (uuid.UUID, error) {
	if !actor.IsAdmin() {
		return actor.ID, nil
	}
	if requested == nil || *requested == uuid.Nil {
		return uuid.Nil, apperrors.NewValidationError("teacherId", "teacherId is required when an admin creates a course")
	}

	teacher, err := s.userRepo.GetByID(ctx, *requested)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return uuid.Nil, apperrors.NewValidationError("teacherId", "teacher does not exist")
		}
		return uuid.Nil, fmt.Errorf("failed to load teacher: %w", err)
	}
	if teacher.Role != models.RoleTeacher {
		return uuid.Nil, apperrors.NewValidationError("teacherId", "user is not a teacher")
	}
	return teacher.ID, nil
}

// ListCourses lists the courses visible to the actor
func (s *courseServiceImpl) ListCourses(ctx context.Context, actor appauth.Actor, query string, page, size int) (*dto.PaginatedResponse, error) {
	filter := dto.CourseFilter{Query: strings.TrimSpace(query)}
	switch actor.Role {
	case models.RoleTeacher:
		filter.TeacherID = &actor.ID
	case models.RoleStudent:
		filter.StudentID = &actor.ID
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	courses, total, err := s.courseRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	return &dto.PaginatedResponse{
		Items:      courses,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}, nil
}

// GetCourse returns a course with its counters
func (s *courseServiceImpl) GetCourse(ctx context.Context, actor appauth.Actor, courseID uuid.UUID) (*dto.CourseDetail, error) {
	if _, err := s.authz.CanViewCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}
	return s.courseRepo.GetDetail(ctx, courseID)
}

// UpdateCourse patches course metadata
func (s *courseServiceImpl) UpdateCourse(ctx context.Context, actor appauth.Actor, courseID uuid.UUID, req *dto.UpdateCourseRequest) (*models.Course, error) {
	course, err := s.authz.CanManageCourse(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if req.Category != nil {
		course.Category = req.Category
	}
	if req.ThumbnailURL != nil {
		course.ThumbnailURL = req.ThumbnailURL
	}
	if req.StartDate != nil {
		course.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		course.EndDate = req.EndDate
	}

	if err := validateCourseDates(course.StartDate, course.EndDate); err != nil {
		return nil, err
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// DeleteCourse removes the course. Rows cascade in the database; the video
// rooms of its sessions are deleted afterwards on a best-effort basis.
func (s *courseServiceImpl) DeleteCourse(ctx context.Context, actor appauth.Actor, courseID uuid.UUID) error {
	if _, err := s.authz.CanManageCourse(ctx, actor, courseID); err != nil {
		return err
	}

	sessions, err := s.sessionRepo.List(ctx, dto.SessionFilter{CourseID: &courseID})
	if err != nil {
		return fmt.Errorf("failed to list course sessions: %w", err)
	}

	if err := s.courseRepo.Delete(ctx, courseID); err != nil {
		return err
	}

	cleanup := context.WithoutCancel(ctx)
	for i := range sessions {
		if sessions[i].RoomName == nil {
			continue
		}
		deleteRoomBestEffort(cleanup, s.video, s.logger, *sessions[i].RoomName)
	}

	s.logger.Info().Str("courseID", courseID.String()).Int("sessions", len(sessions)).Msg("Course deleted")
	return nil
}

// ListStudents lists students enrolled in a course
func (s *courseServiceImpl) ListStudents(ctx context.Context, actor appauth.Actor, courseID uuid.UUID) ([]*dto.UserResponse, error) {
	if _, err := s.authz.CanViewCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}

	users, err := s.courseRepo.ListStudents(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list course students: %w", err)
	}

	out := make([]*dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserResponse(&users[i], nil, nil))
	}
	return out, nil
}

// EnrollStudents enrolls students, ignoring ones already enrolled. It returns
// how many new enrollments were made.
func (s *courseServiceImpl) EnrollStudents(ctx context.Context, actor appauth.Actor, courseID uuid.UUID, studentIDs []uuid.UUID) (int, error) {
	if _, err := s.authz.CanManageCourse(ctx, actor, courseID); err != nil {
		return 0, err
	}

	ids := uniqueIDs(studentIDs)
	if err := validation.RequireNonEmpty("studentIds", len(ids)); err != nil {
		return 0, err
	}

	n, err := s.courseRepo.Enroll(ctx, courseID, ids)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// RemoveStudent unenrolls a student
func (s *courseServiceImpl) RemoveStudent(ctx context.Context, actor appauth.Actor, courseID, studentID uuid.UUID) error {
	if _, err := s.authz.CanManageCourse(ctx, actor, courseID); err != nil {
		return err
	}
	return s.courseRepo.Unenroll(ctx, courseID, studentID)
}

// GetCalendar groups the course's sessions, assignments and quizzes into
// weeks counted from the course start date.
func (s *courseServiceImpl) GetCalendar(ctx context.Context, actor appauth.Actor, courseID uuid.UUID) (*dto.CourseCalendarResponse, error) {
	course, err := s.authz.CanViewCourse(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}

	var (
		sessions    []models.CourseSession
		assignments []models.Assignment
		quizzes     []models.Quiz
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sessions, err = s.sessionRepo.List(gctx, dto.SessionFilter{CourseID: &courseID})
		return err
	})
	g.Go(func() error {
		var err error
		assignments, err = s.assignmentRepo.List(gctx, dto.WorkFilter{CourseID: &courseID})
		return err
	})
	g.Go(func() error {
		var err error
		quizzes, err = s.quizRepo.List(gctx, dto.WorkFilter{CourseID: &courseID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load calendar items: %w", err)
	}

	return &dto.CourseCalendarResponse{
		CourseID:  course.ID,
		StartDate: course.StartDate,
		Weeks:     calendar.BucketByWeek(course.StartDate, calendarItems(sessions, assignments, quizzes)),
	}, nil
}

// calendarItems converts the course's dated rows into calendar items.
func calendarItems(sessions []models.CourseSession, assignments []models.Assignment, quizzes []models.Quiz) []calendar.Item {
	items := make([]calendar.Item, 0, len(sessions)+len(assignments)+len(quizzes))
	for _, s := range sessions {
		items = append(items, calendar.Item{Kind: calendar.KindSession, ID: s.ID, Title: s.Title, Date: s.StartTime})
	}
	for _, a := range assignments {
		items = append(items, calendar.Item{Kind: calendar.KindAssignment, ID: a.ID, Title: a.Title, Date: derefTime(a.DueDate)})
	}
	for _, q := range quizzes {
		items = append(items, calendar.Item{Kind: calendar.KindQuiz, ID: q.ID, Title: q.Title, Date: derefTime(q.DueDate)})
	}
	return items
}

func validateCourseDates(start time.Time, end *time.Time) error {
	if start.IsZero() {
		return apperrors.NewValidationError("startDate", "startDate is required")
	}
	if end != nil && end.Before(start) {
		return apperrors.NewValidationError("endDate", "endDate must be after startDate")
	}
	return nil
}

func marksOrDefault(marks *int) int {
	if marks == nil || *marks <= 0 {
		return defaultTotalMarks
	}
	return *marks
}
