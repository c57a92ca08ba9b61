package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/yigit/classroom/internal/app/models"
)

// CreateUserRequest is the admin request to create a teacher or student.
type CreateUserRequest struct {
	Email         string      `json:"email" binding:"required,email"`
	Password      string      `json:"password" binding:"required,min=8"`
	FullName      string      `json:"fullName" binding:"required,min=2,max=100"`
	Role          models.Role `json:"role" binding:"required,oneof=admin teacher student"`
	Department    *string     `json:"department,omitempty"`
	Bio           *string     `json:"bio,omitempty"`
	StudentNumber *string     `json:"studentNumber,omitempty"`
	GradeLevel    *string     `json:"gradeLevel,omitempty"`
}

// UserResponse represents basic user information
type UserResponse struct {
	ID        uuid.UUID   `json:"id"`
	Email     string      `json:"email"`
	FullName  string      `json:"fullName"`
	Role      models.Role `json:"role"`
	AvatarURL *string     `json:"avatarUrl,omitempty"`
	IsActive  bool        `json:"isActive"`
	CreatedAt time.Time   `json:"createdAt"`

	Department    *string `json:"department,omitempty"`
	Bio           *string `json:"bio,omitempty"`
	StudentNumber *string `json:"studentNumber,omitempty"`
	GradeLevel    *string `json:"gradeLevel,omitempty"`
}

// NewUserResponse flattens a user and its optional profile.
func NewUserResponse(user *models.User, teacher *models.Teacher, student *models.Student) *UserResponse {
	if user == nil {
		return nil
	}
	resp := &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		AvatarURL: user.AvatarURL,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
	if teacher != nil {
		resp.Department = teacher.Department
		resp.Bio = teacher.Bio
	}
	if student != nil {
		resp.StudentNumber = student.StudentNumber
		resp.GradeLevel = student.GradeLevel
	}
	return resp
}
