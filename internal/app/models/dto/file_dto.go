package dto

import (
	"github.com/google/uuid"
	"github.com/yigit/classroom/internal/app/models"
)

// UploadResponse describes a stored upload.
type UploadResponse struct {
	Path     string `json:"path" example:"course/3f1c.pdf"`
	URL      string `json:"url" example:"http://localhost:8080/uploads/course/3f1c.pdf"`
	FileName string `json:"fileName" example:"syllabus.pdf"`
	MimeType string `json:"mimeType" example:"application/pdf"`
	Size     int64  `json:"size" example:"1048576"`
}

// AttachmentRequest registers an already stored file on a resource.
type AttachmentRequest struct {
	FileName string  `json:"fileName" binding:"required"`
	Path     string  `json:"path" binding:"required"`
	URL      string  `json:"url" binding:"required,url"`
	MimeType *string `json:"mimeType,omitempty"`
	Size     *int64  `json:"size,omitempty" binding:"omitempty,min=0"`
}

// ToModel builds an attachment row for the given owner.
func (r AttachmentRequest) ToModel(resourceType models.ResourceType, resourceID, uploadedBy uuid.UUID) *models.Attachment {
	return &models.Attachment{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		FileName:     r.FileName,
		Path:         r.Path,
		URL:          r.URL,
		MimeType:     r.MimeType,
		Size:         r.Size,
		UploadedBy:   uploadedBy,
	}
}

// AddAttachmentsRequest registers several stored files at once.
type AddAttachmentsRequest struct {
	Attachments []AttachmentRequest `json:"attachments" binding:"required,min=1,dive"`
}
