package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/logger"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   uuid.UUID
	Role models.Role
}

// IsAdmin reports whether the actor is an admin.
func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// IsStudent reports whether the actor is a student.
func (a Actor) IsStudent() bool { return a.Role == models.RoleStudent }

// CourseLookup is what authorization needs to know about courses.
type CourseLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	IsEnrolled(ctx context.Context, courseID, studentID uuid.UUID) (bool, error)
}

// AuthorizationService handles course-level access decisions
type AuthorizationService struct {
	courses CourseLookup
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(courses CourseLookup) *AuthorizationService {
	return &AuthorizationService{courses: courses}
}

// CanManageCourse returns the course when the actor may change it and its
// content: admins always, teachers only for courses they own.
func (s *AuthorizationService) CanManageCourse(ctx context.Context, actor Actor, courseID uuid.UUID) (*models.Course, error) {
	if !actor.Role.CanAuthor() {
		return nil, apperrors.NewForbiddenError("Only teachers and admins can modify course content")
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if actor.IsAdmin() || course.TeacherID == actor.ID {
		return course, nil
	}

	logger.Warn().
		Str("userID", actor.ID.String()).
		Str("courseID", courseID.String()).
		Msg("Teacher attempted to modify a course they do not own")
	return nil, apperrors.NewForbiddenError("You do not own this course")
}

// CanViewCourse returns the course when the actor may read it: admins, the
// owning teacher and enrolled students.
func (s *AuthorizationService) CanViewCourse(ctx context.Context, actor Actor, courseID uuid.UUID) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.IsAdmin(), course.TeacherID == actor.ID:
		return course, nil
	case actor.IsStudent():
		enrolled, err := s.courses.IsEnrolled(ctx, courseID, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check enrollment: %w", err)
		}
		if enrolled {
			return course, nil
		}
	}
	return nil, apperrors.NewForbiddenError("You do not have access to this course")
}

// IsForbidden reports whether err is an authorization refusal.
func IsForbidden(err error) bool {
	return errors.Is(err, apperrors.ErrPermissionDenied)
}
