package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/classroom/internal/app/auth"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/validation"
)

// WorkSubmissions is the assigned-students and submissions surface shared by
// assignments and quizzes.
type WorkSubmissions interface {
	ListAssignedStudents(ctx context.Context, actor appauth.Actor, workID uuid.UUID) ([]uuid.UUID, error)
	ReplaceAssignedStudents(ctx context.Context, actor appauth.Actor, workID uuid.UUID, studentIDs []uuid.UUID) error
	Submit(ctx context.Context, actor appauth.Actor, workID uuid.UUID, req *dto.SubmitWorkRequest) (*models.Submission, error)
	ListSubmissions(ctx context.Context, actor appauth.Actor, workID uuid.UUID) ([]models.Submission, error)
	GradeSubmission(ctx context.Context, actor appauth.Actor, workID, submissionID uuid.UUID, req *dto.GradeRequest) (*models.Submission, error)
}

// workRef is what submission handling needs to know about its parent work.
type workRef struct {
	ID         uuid.UUID
	CourseID   uuid.UUID
	TotalMarks int
}

// workSubmissions implements WorkSubmissions for one kind of work.
type workSubmissions struct {
	kind     models.WorkKind
	workRepo CourseworkStore
	authz    *appauth.AuthorizationService
	lookup   func(ctx context.Context, id uuid.UUID) (*workRef, error)
	logger   zerolog.Logger
	now      func() time.Time
}

// ListAssignedStudents lists the students a piece of work is assigned to
func (w *workSubmissions) ListAssignedStudents(ctx context.Context, actor appauth.Actor, workID uuid.UUID) ([]uuid.UUID, error) {
	work, err := w.lookup(ctx, workID)
	if err != nil {
		return nil, err
	}
	if _, err := w.authz.CanManageCourse(ctx, actor, work.CourseID); err != nil {
		return nil, err
	}
	return w.workRepo.ListStudents(ctx, w.kind, workID)
}

// ReplaceAssignedStudents replaces the assigned students
func (w *workSubmissions) ReplaceAssignedStudents(ctx context.Context, actor appauth.Actor, workID uuid.UUID, studentIDs []uuid.UUID) error {
	work, err := w.lookup(ctx, workID)
	if err != nil {
		return err
	}
	if _, err := w.authz.CanManageCourse(ctx, actor, work.CourseID); err != nil {
		return err
	}
	return w.workRepo.ReplaceStudents(ctx, w.kind, workID, uniqueIDs(studentIDs))
}

// Submit stores the student's single submission. Work with an explicit
// student list only accepts submissions from those students.
func (w *workSubmissions) Submit(ctx context.Context, actor appauth.Actor, workID uuid.UUID, req *dto.SubmitWorkRequest) (*models.Submission, error) {
	if !actor.IsStudent() {
		return nil, apperrors.NewForbiddenError("Only students can submit work")
	}
	if isBlank(req.Content) && isEmptyJSON(req.Answers) && len(req.Attachments) == 0 {
		return nil, apperrors.NewValidationError("content", "a submission needs content, answers or attachments")
	}

	work, err := w.lookup(ctx, workID)
	if err != nil {
		return nil, err
	}
	if _, err := w.authz.CanViewCourse(ctx, actor, work.CourseID); err != nil {
		return nil, err
	}

	assigned, err := w.workRepo.ListStudents(ctx, w.kind, workID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned students: %w", err)
	}
	if len(assigned) > 0 && !containsID(assigned, actor.ID) {
		return nil, apperrors.NewForbiddenError("This work is not assigned to you")
	}

	sub := &models.Submission{
		ID:        uuid.New(),
		WorkID:    workID,
		StudentID: actor.ID,
		Content:   req.Content,
		Answers:   req.Answers,
	}
	for _, a := range req.Attachments {
		sub.Attachments = append(sub.Attachments, *a.ToModel(models.ResourceSubmission, sub.ID, actor.ID))
	}

	if err := w.workRepo.CreateSubmission(ctx, w.kind, sub); err != nil {
		return nil, err
	}

	w.logger.Info().
		Str("kind", string(w.kind)).
		Str("workID", workID.String()).
		Str("studentID", actor.ID.String()).
		Msg("Work submitted")
	return sub, nil
}

// ListSubmissions lists every submission for managers and only the caller's
// own submission for students.
func (w *workSubmissions) ListSubmissions(ctx context.Context, actor appauth.Actor, workID uuid.UUID) ([]models.Submission, error) {
	work, err := w.lookup(ctx, workID)
	if err != nil {
		return nil, err
	}

	if actor.IsStudent() {
		if _, err := w.authz.CanViewCourse(ctx, actor, work.CourseID); err != nil {
			return nil, err
		}
		return w.workRepo.ListSubmissions(ctx, w.kind, workID, &actor.ID)
	}

	if _, err := w.authz.CanManageCourse(ctx, actor, work.CourseID); err != nil {
		return nil, err
	}
	return w.workRepo.ListSubmissions(ctx, w.kind, workID, nil)
}

// GradeSubmission grades a submission. Grades outside [0, totalMarks] are
// rejected before anything is written; a negative or non-numeric grade is
// rejected before anything is read.
func (w *workSubmissions) GradeSubmission(ctx context.Context, actor appauth.Actor, workID, submissionID uuid.UUID, req *dto.GradeRequest) (*models.Submission, error) {
	if err := validation.ValidateGrade(req.Grade, math.MaxInt32); err != nil {
		return nil, err
	}

	work, err := w.lookup(ctx, workID)
	if err != nil {
		return nil, err
	}
	if _, err := w.authz.CanManageCourse(ctx, actor, work.CourseID); err != nil {
		return nil, err
	}
	if err := validation.ValidateGrade(req.Grade, work.TotalMarks); err != nil {
		return nil, err
	}

	sub, err := w.workRepo.GetSubmission(ctx, w.kind, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.WorkID != workID {
		return nil, apperrors.ErrSubmissionNotFound
	}

	at := w.now().UTC()
	if err := w.workRepo.GradeSubmission(ctx, w.kind, submissionID, req.Grade, req.Feedback, actor.ID, at); err != nil {
		return nil, err
	}

	grade := req.Grade
	sub.Grade = &grade
	sub.Feedback = req.Feedback
	sub.GradedAt = &at
	sub.GradedBy = &actor.ID

	w.logger.Info().
		Str("kind", string(w.kind)).
		Str("submissionID", submissionID.String()).
		Float64("grade", grade).
		Msg("Submission graded")
	return sub, nil
}

// workListFilter scopes a listing to what the actor may see.
func workListFilter(actor appauth.Actor, courseID *uuid.UUID) dto.WorkFilter {
	filter := dto.WorkFilter{CourseID: courseID}
	switch actor.Role {
	case models.RoleTeacher:
		filter.TeacherID = &actor.ID
	case models.RoleStudent:
		filter.StudentID = &actor.ID
	}
	return filter
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}
