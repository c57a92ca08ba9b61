package services

import (
	"context"
	"encoding/json"
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

// QuizService defines the interface for quiz operations
type QuizService interface {
	WorkSubmissions
	CreateQuiz(ctx context.Context, actor appauth.Actor, req *dto.CreateQuizRequest) (*models.Quiz, error)
	ListQuizzes(ctx context.Context, actor appauth.Actor, courseID *uuid.UUID) ([]models.Quiz, error)
	GetQuiz(ctx context.Context, actor appauth.Actor, id uuid.UUID) (*models.Quiz, error)
	UpdateQuiz(ctx context.Context, actor appauth.Actor, id uuid.UUID, req *dto.UpdateQuizRequest) (*models.Quiz, error)
	DeleteQuiz(ctx context.Context, actor appauth.Actor, id uuid.UUID) error
}

type quizServiceImpl struct {
	*workSubmissions
	quizRepo QuizStore
	workRepo CourseworkStore
	authz    *appauth.AuthorizationService
	logger   zerolog.Logger
}

// NewQuizService creates a new QuizService
func NewQuizService(
	quizRepo QuizStore,
	workRepo CourseworkStore,
	authz *appauth.AuthorizationService,
	logger zerolog.Logger,
) QuizService {
	s := &quizServiceImpl{
		quizRepo: quizRepo,
		workRepo: workRepo,
		authz:    authz,
		logger:   logger,
	}
	s.workSubmissions = &workSubmissions{
		kind:     models.WorkQuiz,
		workRepo: workRepo,
		authz:    authz,
		lookup: func(ctx context.Context, id uuid.UUID) (*workRef, error) {
			q, err := quizRepo.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return &workRef{ID: q.ID, CourseID: q.CourseID, TotalMarks: q.TotalMarks}, nil
		},
		logger: logger,
		now:    time.Now,
	}
	return s
}

func validQuestions(raw json.RawMessage) error {
	if len(raw) == 0 || json.Valid(raw) {
		return nil
	}
	return apperrors.NewValidationError("questions", "questions must be a JSON document")
}

// CreateQuiz creates a quiz and assigns it to the given students. If
// assigning fails the quiz is removed again.
func (s *quizServiceImpl) CreateQuiz(ctx context.Context, actor appauth.Actor, req *dto.CreateQuizRequest) (*models.Quiz, error) {
	if !actor.Role.CanAuthor() {
		return nil, apperrors.NewForbiddenError("Only teachers and admins can create quizzes")
	}
	if req.TotalMarks <= 0 {
		return nil, apperrors.NewValidationError("totalMarks", "totalMarks must be at least 1")
	}
	if err := validQuestions(req.Questions); err != nil {
		return nil, err
	}
	if _, err := s.authz.CanManageCourse(ctx, actor, req.CourseID); err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		ID:              uuid.New(),
		CourseID:        req.CourseID,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		DueDate:         req.DueDate,
		TotalMarks:      req.TotalMarks,
		DurationMinutes: req.DurationMinutes,
		Questions:       req.Questions,
		CreatedBy:       actor.ID,
	}
	if err := s.quizRepo.Create(ctx, quiz); err != nil {
		return nil, err
	}

	students := uniqueIDs(req.StudentIDs)
	if len(students) > 0 {
		if err := s.workRepo.AssignStudents(ctx, models.WorkQuiz, quiz.ID, students); err != nil {
			s.logger.Error().Err(err).Str("quizID", quiz.ID.String()).Msg("Failed to assign students, removing quiz")
			if delErr := s.quizRepo.Delete(context.WithoutCancel(ctx), quiz.ID); delErr != nil {
				s.logger.Error().Err(delErr).Str("quizID", quiz.ID.String()).Msg("Failed to remove quiz")
			}
			return nil, fmt.Errorf("failed to assign students: %w", err)
		}
	}

	s.logger.Info().Str("quizID", quiz.ID.String()).Int("students", len(students)).Msg("Quiz created")
	return quiz, nil
}

func (s *quizServiceImpl) ListQuizzes(ctx context.Context, actor appauth.Actor, courseID *uuid.UUID) ([]models.Quiz, error) {
	items, err := s.quizRepo.List(ctx, workListFilter(actor, courseID))
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return items, nil
}

func (s *quizServiceImpl) GetQuiz(ctx context.Context, actor appauth.Actor, id uuid.UUID) (*models.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.CanViewCourse(ctx, actor, quiz.CourseID); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *quizServiceImpl) UpdateQuiz(ctx context.Context, actor appauth.Actor, id uuid.UUID, req *dto.UpdateQuizRequest) (*models.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.CanManageCourse(ctx, actor, quiz.CourseID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		quiz.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		quiz.Description = req.Description
	}
	if req.DueDate != nil {
		quiz.DueDate = req.DueDate
	}
	if req.TotalMarks != nil {
		if *req.TotalMarks <= 0 {
			return nil, apperrors.NewValidationError("totalMarks", "totalMarks must be at least 1")
		}
		quiz.TotalMarks = *req.TotalMarks
	}
	if req.DurationMinutes != nil {
		quiz.DurationMinutes = req.DurationMinutes
	}
	if len(req.Questions) > 0 {
		if err := validQuestions(req.Questions); err != nil {
			return nil, err
		}
		quiz.Questions = req.Questions
	}

	if err := s.quizRepo.Update(ctx, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *quizServiceImpl) DeleteQuiz(ctx context.Context, actor appauth.Actor, id uuid.UUID) error {
	quiz, err := s.quizRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authz.CanManageCourse(ctx, actor, quiz.CourseID); err != nil {
		return err
	}
	return s.quizRepo.Delete(ctx, id)
}
