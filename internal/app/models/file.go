package models

import (
	"time"

	"github.com/google/uuid"
)

// ResourceType names the owner of an attachment.
type ResourceType string

const (
	ResourceCourse     ResourceType = "course"
	ResourceAssignment ResourceType = "assignment"
	ResourceQuiz       ResourceType = "quiz"
	ResourceSubmission ResourceType = "submission"
	ResourceMessage    ResourceType = "message"
)

// Attachment records a stored file and the resource it belongs to. Only the
// storage path and public URL are kept; bytes live in the storage backend.
type Attachment struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	ResourceType ResourceType `json:"resourceType" db:"resource_type"`
	ResourceID   uuid.UUID    `json:"resourceId" db:"resource_id"`
	FileName     string       `json:"fileName" db:"file_name"`
	Path         string       `json:"path" db:"path"`
	URL          string       `json:"url" db:"url"`
	MimeType     *string      `json:"mimeType,omitempty" db:"mime_type"`
	Size         *int64       `json:"size,omitempty" db:"size"`
	UploadedBy   uuid.UUID    `json:"uploadedBy" db:"uploaded_by"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
}
