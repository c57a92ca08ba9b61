package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CreateAssignmentRequest creates an assignment.
type CreateAssignmentRequest struct {
	CourseID    uuid.UUID   `json:"courseId" binding:"required"`
	Title       string      `json:"title" binding:"required,max=200"`
	Description *string     `json:"description,omitempty"`
	DueDate     *time.Time  `json:"dueDate,omitempty"`
	TotalMarks  int         `json:"totalMarks" binding:"required,min=1"`
	StudentIDs  []uuid.UUID `json:"studentIds,omitempty"`
}

// UpdateAssignmentRequest patches an assignment.
type UpdateAssignmentRequest struct {
	Title       *string    `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	TotalMarks  *int       `json:"totalMarks,omitempty" binding:"omitempty,min=1"`
}

// CreateQuizRequest creates a quiz.
type CreateQuizRequest struct {
	CourseID        uuid.UUID       `json:"courseId" binding:"required"`
	Title           string          `json:"title" binding:"required,max=200"`
	Description     *string         `json:"description,omitempty"`
	DueDate         *time.Time      `json:"dueDate,omitempty"`
	TotalMarks      int             `json:"totalMarks" binding:"required,min=1"`
	DurationMinutes *int            `json:"durationMinutes,omitempty" binding:"omitempty,min=1"`
	Questions       json.RawMessage `json:"questions,omitempty" swaggertype:"object"`
	StudentIDs      []uuid.UUID     `json:"studentIds,omitempty"`
}

// UpdateQuizRequest patches a quiz.
type UpdateQuizRequest struct {
	Title           *string         `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Description     *string         `json:"description,omitempty"`
	DueDate         *time.Time      `json:"dueDate,omitempty"`
	TotalMarks      *int            `json:"totalMarks,omitempty" binding:"omitempty,min=1"`
	DurationMinutes *int            `json:"durationMinutes,omitempty" binding:"omitempty,min=1"`
	Questions       json.RawMessage `json:"questions,omitempty" swaggertype:"object"`
}

// WorkFilter narrows assignment and quiz listings.
type WorkFilter struct {
	CourseID *uuid.UUID
	// StudentID keeps work assigned to the student, plus unassigned work of
	// courses the student is enrolled in.
	StudentID *uuid.UUID
	TeacherID *uuid.UUID
}

// SubmitWorkRequest is a student's answer to an assignment or quiz.
type SubmitWorkRequest struct {
	Content     *string             `json:"content,omitempty"`
	Answers     json.RawMessage     `json:"answers,omitempty" swaggertype:"object"`
	Attachments []AttachmentRequest `json:"attachments,omitempty" binding:"dive"`
}

// GradeRequest grades a submission. Grade must lie within [0, totalMarks].
type GradeRequest struct {
	Grade    float64 `json:"grade"`
	Feedback *string `json:"feedback,omitempty"`
}
