package models

import (
	"time"

	"github.com/google/uuid"
)

// Course is a course owned by one teacher.
type Course struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TeacherID    uuid.UUID  `json:"teacherId" db:"teacher_id"`
	Title        string     `json:"title" db:"title"`
	Description  *string    `json:"description,omitempty" db:"description"`
	Category     *string    `json:"category,omitempty" db:"category"`
	ThumbnailURL *string    `json:"thumbnailUrl,omitempty" db:"thumbnail_url"`
	StartDate    time.Time  `json:"startDate" db:"start_date"`
	EndDate      *time.Time `json:"endDate,omitempty" db:"end_date"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// Enrollment links a student to a course.
type Enrollment struct {
	CourseID   uuid.UUID `json:"courseId" db:"course_id"`
	StudentID  uuid.UUID `json:"studentId" db:"student_id"`
	EnrolledAt time.Time `json:"enrolledAt" db:"enrolled_at"`
}
