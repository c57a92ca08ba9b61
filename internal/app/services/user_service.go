package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/auth"
	"github.com/yigit/classroom/internal/pkg/helpers"
)

// UserService defines the interface for user operations
type UserService interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	ListUsers(ctx context.Context, role models.Role, query string, page, size int) (*dto.PaginatedResponse, error)
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	userRepo UserStore
	logger   zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo UserStore, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		userRepo: userRepo,
		logger:   logger,
	}
}

// CreateUser creates a user and the profile row matching its role
func (s *userServiceImpl) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if !req.Role.Valid() {
		return nil, apperrors.NewValidationError("role", "role must be one of: admin teacher student")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		IsActive:     true,
	}

	var (
		teacher *models.Teacher
		student *models.Student
	)
	switch req.Role {
	case models.RoleTeacher:
		teacher = &models.Teacher{UserID: user.ID, Department: req.Department, Bio: req.Bio}
	case models.RoleStudent:
		student = &models.Student{UserID: user.ID, StudentNumber: req.StudentNumber, GradeLevel: req.GradeLevel}
	}

	if err := s.userRepo.CreateWithProfile(ctx, user, teacher, student); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("userID", user.ID.String()).
		Str("role", string(user.Role)).
		Msg("User created")

	return dto.NewUserResponse(user, teacher, student), nil
}

// GetProfile returns a user with its role profile
func (s *userServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return loadUserResponse(ctx, s.userRepo, user)
}

// ListUsers lists users of one role, optionally filtered by name or email
func (s *userServiceImpl) ListUsers(ctx context.Context, role models.Role, query string, page, size int) (*dto.PaginatedResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	users, total, err := s.userRepo.ListByRole(ctx, role, strings.TrimSpace(query), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	items := make([]*dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i], nil, nil))
	}

	return &dto.PaginatedResponse{
		Items:      items,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}, nil
}
