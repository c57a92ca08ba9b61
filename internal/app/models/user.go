package models

import (
	"time"

	"github.com/google/uuid"
)

// User defines the user model based on the 'users' table
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"fullName" db:"full_name"`
	Role         Role      `json:"role" db:"role"`
	AvatarURL    *string   `json:"avatarUrl,omitempty" db:"avatar_url"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Teacher is the profile row of a teacher user.
type Teacher struct {
	UserID     uuid.UUID `json:"userId" db:"user_id"`
	Department *string   `json:"department,omitempty" db:"department"`
	Bio        *string   `json:"bio,omitempty" db:"bio"`
	User       *User     `json:"user,omitempty"`
}

// Student is the profile row of a student user.
type Student struct {
	UserID        uuid.UUID `json:"userId" db:"user_id"`
	StudentNumber *string   `json:"studentNumber,omitempty" db:"student_number"`
	GradeLevel    *string   `json:"gradeLevel,omitempty" db:"grade_level"`
	User          *User     `json:"user,omitempty"`
}
