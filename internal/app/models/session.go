package models

import (
	"time"

	"github.com/google/uuid"
)

// CourseSession is a scheduled live session, optionally backed by a video room.
type CourseSession struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	CourseID        uuid.UUID   `json:"courseId" db:"course_id"`
	Title           string      `json:"title" db:"title"`
	Description     *string     `json:"description,omitempty" db:"description"`
	StartTime       time.Time   `json:"startTime" db:"start_time"`
	DurationMinutes int         `json:"durationMinutes" db:"duration_minutes"`
	RoomName        *string     `json:"roomName,omitempty" db:"room_name"`
	RoomURL         *string     `json:"roomUrl,omitempty" db:"room_url"`
	IdempotencyKey  *string     `json:"-" db:"idempotency_key"`
	CreatedBy       uuid.UUID   `json:"createdBy" db:"created_by"`
	CreatedAt       time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time   `json:"updatedAt" db:"updated_at"`
	Attendees       []uuid.UUID `json:"attendees,omitempty"`
}

// EndTime returns the scheduled end of the session.
func (s *CourseSession) EndTime() time.Time {
	return s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
}
