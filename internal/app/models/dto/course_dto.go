package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/pkg/calendar"
)

// --- Request DTOs ---

// LessonRequest is one curriculum entry.
type LessonRequest struct {
	Title           string            `json:"title" binding:"required"`
	Type            models.LessonType `json:"type" binding:"required,oneof=lecture assignment quiz"`
	Description     *string           `json:"description,omitempty"`
	ScheduledAt     *time.Time        `json:"scheduledAt,omitempty"`
	DueDate         *time.Time        `json:"dueDate,omitempty"`
	DurationMinutes *int              `json:"durationMinutes,omitempty" binding:"omitempty,min=1"`
	TotalMarks      *int              `json:"totalMarks,omitempty" binding:"omitempty,min=0"`
}

// SectionRequest groups lessons.
type SectionRequest struct {
	Title   string          `json:"title" binding:"required"`
	Lessons []LessonRequest `json:"lessons" binding:"dive"`
}

// CreateCourseRequest creates a course together with its curriculum.
type CreateCourseRequest struct {
	Title        string           `json:"title" binding:"required,max=200"`
	Description  *string          `json:"description,omitempty"`
	Category     *string          `json:"category,omitempty"`
	ThumbnailURL *string          `json:"thumbnailUrl,omitempty" binding:"omitempty,url"`
	StartDate    time.Time        `json:"startDate" binding:"required"`
	EndDate      *time.Time       `json:"endDate,omitempty" binding:"omitempty,gtfield=StartDate"`
	TeacherID    *uuid.UUID       `json:"teacherId,omitempty"`
	StudentIDs   []uuid.UUID      `json:"studentIds,omitempty"`
	Curriculum   []SectionRequest `json:"curriculum,omitempty" binding:"dive"`
}

// UpdateCourseRequest patches course metadata.
type UpdateCourseRequest struct {
	Title        *string    `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Description  *string    `json:"description,omitempty"`
	Category     *string    `json:"category,omitempty"`
	ThumbnailURL *string    `json:"thumbnailUrl,omitempty" binding:"omitempty,url"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty"`
}

// StudentIDsRequest carries a list of students for enroll or assign calls.
type StudentIDsRequest struct {
	StudentIDs []uuid.UUID `json:"studentIds"`
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	Query     string
	TeacherID *uuid.UUID
	StudentID *uuid.UUID
}

// --- Response DTOs ---

// CreationIssue reports one best-effort step of course creation that failed.
type CreationIssue struct {
	Step        string `json:"step" example:"assignment_students"`
	LessonTitle string `json:"lessonTitle,omitempty" example:"Homework 1"`
	Message     string `json:"message"`
}

// CourseCreationResult is everything course creation managed to write.
type CourseCreationResult struct {
	Course           *models.Course         `json:"course"`
	EnrolledStudents int                    `json:"enrolledStudents"`
	Sessions         []models.CourseSession `json:"sessions"`
	Assignments      []models.Assignment    `json:"assignments"`
	Quizzes          []models.Quiz          `json:"quizzes"`
	Issues           []CreationIssue        `json:"issues"`
}

// CourseDetail is a course with its counters.
type CourseDetail struct {
	models.Course
	StudentCount    int `json:"studentCount"`
	SessionCount    int `json:"sessionCount"`
	AssignmentCount int `json:"assignmentCount"`
	QuizCount       int `json:"quizCount"`
}

// CourseCalendarResponse lists a course's dated items by week.
type CourseCalendarResponse struct {
	CourseID  uuid.UUID            `json:"courseId"`
	StartDate time.Time            `json:"startDate"`
	Weeks     []calendar.WeekGroup `json:"weeks"`
}

// EnrollResponse reports how many new enrollments were written.
type EnrollResponse struct {
	Enrolled int `json:"enrolled" example:"3"`
}
