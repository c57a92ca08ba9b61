package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/app/services"
	"github.com/yigit/classroom/internal/middleware"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

// FileController handles uploads and the attachment lists of courses, assignments and quizzes
type FileController struct {
	fileService services.FileService
}

// NewFileController creates a new FileController
func NewFileController(fileService services.FileService) *FileController {
	return &FileController{fileService: fileService}
}

// Upload godoc
// @Summary Upload a file
// @Description Stores a file and returns its path and public URL. Register it on a resource afterwards.
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File"
// @Param folder formData string false "Target folder (course, assignment, quiz, submission, message, avatar, misc)"
// @Success 201 {object} dto.APIResponse{data=dto.UploadResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /files [post]
func (c *FileController) Upload(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, services.MaxUploadSize+(1<<20))

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.HandleAPIError(ctx, apperrors.NewValidationError("file", "file is too large"))
			return
		}
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("file", "file is required"))
		return
	}

	res, err := c.fileService.Upload(ctx.Request.Context(), actor, fileHeader, ctx.PostForm("folder"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, res)
}

func (c *FileController) listAttachments(ctx *gin.Context, resourceType models.ResourceType) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	items, err := c.fileService.ListAttachments(ctx.Request.Context(), actor, resourceType, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, items)
}

func (c *FileController) addAttachments(ctx *gin.Context, resourceType models.ResourceType) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}
	var req dto.AddAttachmentsRequest
	if !bindJSON(ctx, &req) {
		return
	}

	items, err := c.fileService.AddAttachments(ctx.Request.Context(), actor, resourceType, id, req.Attachments)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, items)
}

func (c *FileController) deleteAttachment(ctx *gin.Context, resourceType models.ResourceType) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}
	attachmentID, ok := pathUUID(ctx, "fileId")
	if !ok {
		return
	}

	if err := c.fileService.DeleteAttachment(ctx.Request.Context(), actor, resourceType, id, attachmentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondMessage(ctx, "File removed")
}

// ListCourseFiles godoc
// @Summary List course files
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=[]models.Attachment}
// @Router /courses/{id}/files [get]
func (c *FileController) ListCourseFiles(ctx *gin.Context) {
	c.listAttachments(ctx, models.ResourceCourse)
}

// AddCourseFiles godoc
// @Summary Attach files to a course
// @Tags files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID" Format(uuid)
// @Param request body dto.AddAttachmentsRequest true "Stored files"
// @Success 201 {object} dto.APIResponse{data=[]models.Attachment}
// @Router /courses/{id}/files [post]
func (c *FileController) AddCourseFiles(ctx *gin.Context) {
	c.addAttachments(ctx, models.ResourceCourse)
}

// DeleteCourseFile godoc
// @Summary Remove a course file
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID" Format(uuid)
// @Param fileId path string true "Attachment ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /courses/{id}/files/{fileId} [delete]
func (c *FileController) DeleteCourseFile(ctx *gin.Context) {
	c.deleteAttachment(ctx, models.ResourceCourse)
}

// ListAssignmentFiles godoc
// @Summary List assignment files
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=[]models.Attachment}
// @Router /assignments/{id}/files [get]
func (c *FileController) ListAssignmentFiles(ctx *gin.Context) {
	c.listAttachments(ctx, models.ResourceAssignment)
}

// AddAssignmentFiles godoc
// @Summary Attach files to an assignment
// @Tags files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID" Format(uuid)
// @Param request body dto.AddAttachmentsRequest true "Stored files"
// @Success 201 {object} dto.APIResponse{data=[]models.Attachment}
// @Router /assignments/{id}/files [post]
func (c *FileController) AddAssignmentFiles(ctx *gin.Context) {
	c.addAttachments(ctx, models.ResourceAssignment)
}

// DeleteAssignmentFile godoc
// @Summary Remove an assignment file
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID" Format(uuid)
// @Param fileId path string true "Attachment ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /assignments/{id}/files/{fileId} [delete]
func (c *FileController) DeleteAssignmentFile(ctx *gin.Context) {
	c.deleteAttachment(ctx, models.ResourceAssignment)
}

// ListQuizFiles godoc
// @Summary List quiz files
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=[]models.Attachment}
// @Router /quizzes/{id}/files [get]
func (c *FileController) ListQuizFiles(ctx *gin.Context) {
	c.listAttachments(ctx, models.ResourceQuiz)
}

// AddQuizFiles godoc
// @Summary Attach files to a quiz
// @Tags files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID" Format(uuid)
// @Param request body dto.AddAttachmentsRequest true "Stored files"
// @Success 201 {object} dto.APIResponse{data=[]models.Attachment}
// @Router /quizzes/{id}/files [post]
func (c *FileController) AddQuizFiles(ctx *gin.Context) {
	c.addAttachments(ctx, models.ResourceQuiz)
}

// DeleteQuizFile godoc
// @Summary Remove a quiz file
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quiz ID" Format(uuid)
// @Param fileId path string true "Attachment ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /quizzes/{id}/files/{fileId} [delete]
func (c *FileController) DeleteQuizFile(ctx *gin.Context) {
	c.deleteAttachment(ctx, models.ResourceQuiz)
}
