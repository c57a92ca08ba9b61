package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateSessionRequest schedules a live session.
type CreateSessionRequest struct {
	CourseID        uuid.UUID   `json:"courseId" binding:"required"`
	Title           string      `json:"title" binding:"required,max=200"`
	Description     *string     `json:"description,omitempty"`
	StartTime       time.Time   `json:"startTime" binding:"required"`
	DurationMinutes int         `json:"durationMinutes" binding:"required,min=1,max=1440"`
	StudentIDs      []uuid.UUID `json:"studentIds" binding:"required,min=1"`
}

// UpdateSessionRequest patches a session. A non-nil StudentIDs replaces the attendee list.
type UpdateSessionRequest struct {
	Title           *string      `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Description     *string      `json:"description,omitempty"`
	StartTime       *time.Time   `json:"startTime,omitempty"`
	DurationMinutes *int         `json:"durationMinutes,omitempty" binding:"omitempty,min=1,max=1440"`
	StudentIDs      *[]uuid.UUID `json:"studentIds,omitempty"`
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	CourseID *uuid.UUID
	From     *time.Time
	To       *time.Time
	// AttendeeID limits results to sessions the student attends.
	AttendeeID *uuid.UUID
	// TeacherID limits results to sessions of courses the teacher owns.
	TeacherID *uuid.UUID
}

// JoinSessionResponse is what a participant needs to enter the room.
type JoinSessionResponse struct {
	SessionID uuid.UUID `json:"sessionId"`
	RoomName  string    `json:"roomName"`
	RoomURL   string    `json:"roomUrl"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}
