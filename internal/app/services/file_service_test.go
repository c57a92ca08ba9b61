package services

import (
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

func TestUpload(t *testing.T) {
	h := newHarness()
	svc := h.fileService()
	ctx := context.Background()

	res, err := svc.Upload(ctx, h.teacher, &multipart.FileHeader{Filename: "notes.pdf", Size: 1024}, "Course")
	require.NoError(t, err)
	assert.Equal(t, "course/"+h.teacher.ID.String()+"/notes.pdf", res.Path)

	_, err = svc.Upload(ctx, h.teacher, &multipart.FileHeader{Filename: "big.bin", Size: MaxUploadSize + 1}, "course")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.Upload(ctx, h.teacher, &multipart.FileHeader{Filename: "x", Size: 1}, "../etc")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.Upload(ctx, h.teacher, nil, "course")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestAttachments(t *testing.T) {
	h := newHarness()
	svc := h.fileService()
	ctx := context.Background()
	course := h.ownedCourse()
	a := newAssignment(t, h, course.ID)
	stored := "assignment/" + h.teacher.ID.String() + "/brief.pdf"
	req := []dto.AttachmentRequest{{FileName: "brief.pdf", Path: stored, URL: "http://files.test/" + stored}}

	_, err := svc.AddAttachments(ctx, h.student, models.ResourceAssignment, a.ID, req)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.AddAttachments(ctx, h.teacher, models.ResourceSubmission, uuid.New(), req)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	added, err := svc.AddAttachments(ctx, h.teacher, models.ResourceAssignment, a.ID, req)
	require.NoError(t, err)
	require.Len(t, added, 1)

	listed, err := svc.ListAttachments(ctx, h.student, models.ResourceAssignment, a.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "brief.pdf", listed[0].FileName)

	err = svc.DeleteAttachment(ctx, h.teacher, models.ResourceCourse, course.ID, added[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrFileNotFound)

	require.NoError(t, svc.DeleteAttachment(ctx, h.teacher, models.ResourceAssignment, a.ID, added[0].ID))
	assert.Equal(t, []string{stored}, h.files.deleted)
	assert.Empty(t, h.attachments.items)
}

func TestDeleteAttachment_KeepsFilesUploadedByOthers(t *testing.T) {
	h := newHarness()
	svc := h.fileService()
	ctx := context.Background()

	other := actorOf(h.users.add(models.RoleTeacher))
	course := h.courses.add(other.ID, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
	victim := "submission/" + h.student.ID.String() + "/essay.pdf"

	added, err := svc.AddAttachments(ctx, other, models.ResourceCourse, course.ID,
		[]dto.AttachmentRequest{{FileName: "essay.pdf", Path: victim, URL: "http://files.test/" + victim}})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAttachment(ctx, other, models.ResourceCourse, course.ID, added[0].ID))
	assert.Empty(t, h.files.deleted)
	assert.Empty(t, h.attachments.items)
}

func TestDeleteAttachment_KeepsSharedFilesUntilLastReference(t *testing.T) {
	h := newHarness()
	svc := h.fileService()
	ctx := context.Background()
	course := h.ownedCourse()
	a := newAssignment(t, h, course.ID)

	stored := "course/" + h.teacher.ID.String() + "/syllabus.pdf"
	req := []dto.AttachmentRequest{{FileName: "syllabus.pdf", Path: stored, URL: "http://files.test/" + stored}}
	onCourse, err := svc.AddAttachments(ctx, h.teacher, models.ResourceCourse, course.ID, req)
	require.NoError(t, err)
	onAssignment, err := svc.AddAttachments(ctx, h.teacher, models.ResourceAssignment, a.ID, req)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAttachment(ctx, h.teacher, models.ResourceCourse, course.ID, onCourse[0].ID))
	assert.Empty(t, h.files.deleted)

	require.NoError(t, svc.DeleteAttachment(ctx, h.teacher, models.ResourceAssignment, a.ID, onAssignment[0].ID))
	assert.Equal(t, []string{stored}, h.files.deleted)
}
