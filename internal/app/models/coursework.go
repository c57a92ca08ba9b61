package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WorkKind distinguishes the two kinds of gradable course work.
type WorkKind string

const (
	WorkAssignment WorkKind = "assignment"
	WorkQuiz       WorkKind = "quiz"
)

// Assignment is a gradable piece of homework.
type Assignment struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	CourseID    uuid.UUID  `json:"courseId" db:"course_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	DueDate     *time.Time `json:"dueDate,omitempty" db:"due_date"`
	TotalMarks  int        `json:"totalMarks" db:"total_marks"`
	CreatedBy   uuid.UUID  `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// Quiz is a timed, gradable question set.
type Quiz struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	CourseID        uuid.UUID       `json:"courseId" db:"course_id"`
	Title           string          `json:"title" db:"title"`
	Description     *string         `json:"description,omitempty" db:"description"`
	DueDate         *time.Time      `json:"dueDate,omitempty" db:"due_date"`
	TotalMarks      int             `json:"totalMarks" db:"total_marks"`
	DurationMinutes *int            `json:"durationMinutes,omitempty" db:"duration_minutes"`
	Questions       json.RawMessage `json:"questions,omitempty" db:"questions"`
	CreatedBy       uuid.UUID       `json:"createdBy" db:"created_by"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// Submission is a student's answer to an assignment or quiz. WorkID points at
// the parent row of the matching kind.
type Submission struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	WorkID      uuid.UUID       `json:"workId" db:"work_id"`
	StudentID   uuid.UUID       `json:"studentId" db:"student_id"`
	Content     *string         `json:"content,omitempty" db:"content"`
	Answers     json.RawMessage `json:"answers,omitempty" db:"answers"`
	Grade       *float64        `json:"grade,omitempty" db:"grade"`
	Feedback    *string         `json:"feedback,omitempty" db:"feedback"`
	SubmittedAt time.Time       `json:"submittedAt" db:"submitted_at"`
	GradedAt    *time.Time      `json:"gradedAt,omitempty" db:"graded_at"`
	GradedBy    *uuid.UUID      `json:"gradedBy,omitempty" db:"graded_by"`
	Attachments []Attachment    `json:"attachments,omitempty"`
}
