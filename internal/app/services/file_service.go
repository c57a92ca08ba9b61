package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/classroom/internal/app/auth"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

// MaxUploadSize is the largest accepted upload in bytes.
const MaxUploadSize = 25 << 20

var uploadFolders = map[string]bool{
	"course":     true,
	"assignment": true,
	"quiz":       true,
	"submission": true,
	"message":    true,
	"avatar":     true,
	"misc":       true,
}

// FileService defines the interface for uploads and attachment records
type FileService interface {
	Upload(ctx context.Context, actor appauth.Actor, fileHeader *multipart.FileHeader, folder string) (*dto.UploadResponse, error)
	AddAttachments(ctx context.Context, actor appauth.Actor, resourceType models.ResourceType, resourceID uuid.UUID, reqs []dto.AttachmentRequest) ([]models.Attachment, error)
	ListAttachments(ctx context.Context, actor appauth.Actor, resourceType models.ResourceType, resourceID uuid.UUID) ([]models.Attachment, error)
	DeleteAttachment(ctx context.Context, actor appauth.Actor, resourceType models.ResourceType, resourceID, attachmentID uuid.UUID) error
}

type fileServiceImpl struct {
	storage        FileStore
	attachmentRepo AttachmentStore
	assignmentRepo AssignmentStore
	quizRepo       QuizStore
	authz          *appauth.AuthorizationService
	logger         zerolog.Logger
}

// NewFileService creates a new FileService
func NewFileService(
	storage FileStore,
	attachmentRepo AttachmentStore,
	assignmentRepo AssignmentStore,
	quizRepo QuizStore,
	authz *appauth.AuthorizationService,
	logger zerolog.Logger,
) FileService {
	return &fileServiceImpl{
		storage:        storage,
		attachmentRepo: attachmentRepo,
		assignmentRepo: assignmentRepo,
		quizRepo:       quizRepo,
		authz:          authz,
		logger:         logger,
	}
}

// Upload stores a file under folder and returns its path and public URL
func (s *fileServiceImpl) Upload(ctx context.Context, actor appauth.Actor, fileHeader *multipart.FileHeader, folder string) (*dto.UploadResponse, error) {
	if fileHeader == nil {
		return nil, apperrors.NewValidationError("file", "file is required")
	}
	if fileHeader.Size > MaxUploadSize {
		return nil, apperrors.NewValidationError("file", fmt.Sprintf("file exceeds the %d MB limit", MaxUploadSize>>20))
	}

	folder = strings.ToLower(strings.TrimSpace(folder))
	if folder == "" {
		folder = "misc"
	}
	if !uploadFolders[folder] {
		return nil, apperrors.NewValidationError("folder", "unknown upload folder")
	}

	stored, err := s.storage.SaveFileWithPath(fileHeader, path.Join(folder, actor.ID.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	s.logger.Info().
		Str("userID", actor.ID.String()).
		Str("path", stored.Path).
		Int64("size", stored.Size).
		Msg("File uploaded")

	return &dto.UploadResponse{
		Path:     stored.Path,
		URL:      stored.URL,
		FileName: stored.FileName,
		MimeType: stored.MimeType,
		Size:     stored.Size,
	}, nil
}

// courseOf finds the course that owns an attachable resource.
func (s *fileServiceImpl) courseOf(ctx context.Context, resourceType models.ResourceType, resourceID uuid.UUID) (uuid.UUID, error) {
	switch resourceType {
	case models.ResourceCourse:
		return resourceID, nil
	case models.ResourceAssignment:
		a, err := s.assignmentRepo.GetByID(ctx, resourceID)
		if err != nil {
			return uuid.Nil, err
		}
		return a.CourseID, nil
	case models.ResourceQuiz:
		q, err := s.quizRepo.GetByID(ctx, resourceID)
		if err != nil {
			return uuid.Nil, err
		}
		return q.CourseID, nil
	}
	return uuid.Nil, apperrors.NewBadRequestError("Attachments of this resource are managed through it")
}

// AddAttachments registers stored files on a course, assignment or quiz
func (s *fileServiceImpl) AddAttachments(ctx context.Context, actor appauth.Actor, resourceType models.ResourceType, resourceID uuid.UUID, reqs []dto.AttachmentRequest) ([]models.Attachment, error) {
	if len(reqs) == 0 {
		return nil, apperrors.NewValidationError("attachments", "attachments must contain at least 1 item(s)")
	}
	courseID, err := s.courseOf(ctx, resourceType, resourceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.CanManageCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}

	items := make([]models.Attachment, 0, len(reqs))
	for _, r := range reqs {
		a := r.ToModel(resourceType, resourceID, actor.ID)
		a.ID = uuid.New()
		items = append(items, *a)
	}
	if err := s.attachmentRepo.CreateMany(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListAttachments lists the files of a resource the actor can see
func (s *fileServiceImpl) ListAttachments(ctx context.Context, actor appauth.Actor, resourceType models.ResourceType, resourceID uuid.UUID) ([]models.Attachment, error) {
	courseID, err := s.courseOf(ctx, resourceType, resourceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.CanViewCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}
	return s.attachmentRepo.ListByResource(ctx, resourceType, resourceID)
}

// storedBy reports whether p lies in the upload folder of userID, which is
// <folder>/<user id>/<file>.
func storedBy(p string, userID uuid.UUID) bool {
	parts := strings.Split(path.Clean(p), "/")
	return len(parts) == 3 && parts[1] == userID.String()
}

// DeleteAttachment removes the record, then the stored file on a
// best-effort basis. The file is kept when it was uploaded by someone other
// than the user who registered the attachment, or when another attachment
// still references it.
func (s *fileServiceImpl) DeleteAttachment(ctx context.Context, actor appauth.Actor, resourceType models.ResourceType, resourceID, attachmentID uuid.UUID) error {
	attachment, err := s.attachmentRepo.GetByID(ctx, attachmentID)
	if err != nil {
		return err
	}
	if attachment.ResourceType != resourceType || attachment.ResourceID != resourceID {
		return apperrors.ErrFileNotFound
	}

	courseID, err := s.courseOf(ctx, resourceType, resourceID)
	if err != nil {
		return err
	}
	if _, err := s.authz.CanManageCourse(ctx, actor, courseID); err != nil {
		return err
	}

	if err := s.attachmentRepo.Delete(ctx, attachmentID); err != nil {
		return err
	}
	if !storedBy(attachment.Path, attachment.UploadedBy) {
		s.logger.Debug().Str("path", attachment.Path).Msg("Keeping stored file uploaded by another user")
		return nil
	}
	inUse, err := s.attachmentRepo.PathInUse(ctx, attachment.Path)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", attachment.Path).Msg("Failed to check stored file references")
		return nil
	}
	if inUse {
		return nil
	}
	if err := s.storage.DeleteFile(attachment.Path); err != nil {
		s.logger.Warn().Err(err).Str("path", attachment.Path).Msg("Failed to delete stored file")
	}
	return nil
}
