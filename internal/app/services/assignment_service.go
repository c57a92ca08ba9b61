package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/classroom/internal/app/auth"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

// AssignmentService defines the interface for assignment operations
type AssignmentService interface {
	WorkSubmissions
	CreateAssignment(ctx context.Context, actor appauth.Actor, req *dto.CreateAssignmentRequest) (*models.Assignment, error)
	ListAssignments(ctx context.Context, actor appauth.Actor, courseID *uuid.UUID) ([]models.Assignment, error)
	GetAssignment(ctx context.Context, actor appauth.Actor, id uuid.UUID) (*models.Assignment, error)
	UpdateAssignment(ctx context.Context, actor appauth.Actor, id uuid.UUID, req *dto.UpdateAssignmentRequest) (*models.Assignment, error)
	DeleteAssignment(ctx context.Context, actor appauth.Actor, id uuid.UUID) error
}

// assignmentServiceImpl implements AssignmentService
type assignmentServiceImpl struct {
	*workSubmissions
	assignmentRepo AssignmentStore
	workRepo       CourseworkStore
	authz          *appauth.AuthorizationService
	logger         zerolog.Logger
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	assignmentRepo AssignmentStore,
	workRepo CourseworkStore,
	authz *appauth.AuthorizationService,
	logger zerolog.Logger,
) AssignmentService {
	s := &assignmentServiceImpl{
		assignmentRepo: assignmentRepo,
		workRepo:       workRepo,
		authz:          authz,
		logger:         logger,
	}
	s.workSubmissions = &workSubmissions{
		kind:     models.WorkAssignment,
		workRepo: workRepo,
		authz:    authz,
		lookup: func(ctx context.Context, id uuid.UUID) (*workRef, error) {
			a, err := assignmentRepo.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return &workRef{ID: a.ID, CourseID: a.CourseID, TotalMarks: a.TotalMarks}, nil
		},
		logger: logger,
		now:    time.Now,
	}
	return s
}

// CreateAssignment creates an assignment and assigns it to the given
// students. If assigning fails the assignment is removed again.
func (s *assignmentServiceImpl) CreateAssignment(ctx context.Context, actor appauth.Actor, req *dto.CreateAssignmentRequest) (*models.Assignment, error) {
	if req.TotalMarks <= 0 {
		return nil, apperrors.NewValidationError("totalMarks", "totalMarks must be at least 1")
	}
	if _, err := s.authz.CanManageCourse(ctx, actor, req.CourseID); err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		ID:          uuid.New(),
		CourseID:    req.CourseID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		DueDate:     req.DueDate,
		TotalMarks:  req.TotalMarks,
		CreatedBy:   actor.ID,
	}
	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, err
	}

	students := uniqueIDs(req.StudentIDs)
	if len(students) > 0 {
		if err := s.workRepo.AssignStudents(ctx, models.WorkAssignment, assignment.ID, students); err != nil {
			s.logger.Error().Err(err).Str("assignmentID", assignment.ID.String()).Msg("Failed to assign students, removing assignment")
			if delErr := s.assignmentRepo.Delete(context.WithoutCancel(ctx), assignment.ID); delErr != nil {
				s.logger.Error().Err(delErr).Str("assignmentID", assignment.ID.String()).Msg("Failed to remove assignment")
			}
			return nil, fmt.Errorf("failed to assign students: %w", err)
		}
	}

	s.logger.Info().Str("assignmentID", assignment.ID.String()).Int("students", len(students)).Msg("Assignment created")
	return assignment, nil
}

// ListAssignments lists assignments visible to the actor
func (s *assignmentServiceImpl) ListAssignments(ctx context.Context, actor appauth.Actor, courseID *uuid.UUID) ([]models.Assignment, error) {
	items, err := s.assignmentRepo.List(ctx, workListFilter(actor, courseID))
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return items, nil
}

// GetAssignment returns an assignment of a course the actor can see
func (s *assignmentServiceImpl) GetAssignment(ctx context.Context, actor appauth.Actor, id uuid.UUID) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.CanViewCourse(ctx, actor, assignment.CourseID); err != nil {
		return nil, err
	}
	return assignment, nil
}

// UpdateAssignment patches an assignment
func (s *assignmentServiceImpl) UpdateAssignment(ctx context.Context, actor appauth.Actor, id uuid.UUID, req *dto.UpdateAssignmentRequest) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.CanManageCourse(ctx, actor, assignment.CourseID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		assignment.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		assignment.Description = req.Description
	}
	if req.DueDate != nil {
		assignment.DueDate = req.DueDate
	}
	if req.TotalMarks != nil {
		if *req.TotalMarks <= 0 {
			return nil, apperrors.NewValidationError("totalMarks", "totalMarks must be at least 1")
		}
		assignment.TotalMarks = *req.TotalMarks
	}

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// DeleteAssignment deletes an assignment with its submissions
func (s *assignmentServiceImpl) DeleteAssignment(ctx context.Context, actor appauth.Actor, id uuid.UUID) error {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authz.CanManageCourse(ctx, actor, assignment.CourseID); err != nil {
		return err
	}
	return s.assignmentRepo.Delete(ctx, id)
}
