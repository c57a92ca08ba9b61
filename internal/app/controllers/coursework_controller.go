package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/app/services"
	"github.com/yigit/classroom/internal/middleware"
)

// workController serves the student and submission routes shared by
// assignments and quizzes. It is embedded in both controllers.
type workController struct {
	work services.WorkSubmissions
}

// ListAssignedStudents godoc
// @Summary List assigned students
// @Tags coursework
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment or quiz ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=[]string}
// @Router /assignments/{id}/students [get]
// @Router /quizzes/{id}/students [get]
func (c *workController) ListAssignedStudents(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	ids, err := c.work.ListAssignedStudents(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, ids)
}

// ReplaceAssignedStudents godoc
// @Summary Replace assigned students
// @Description An empty list makes the work available to every enrolled student.
// @Tags coursework
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment or quiz ID" Format(uuid)
// @Param request body dto.StudentIDsRequest true "Students"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /assignments/{id}/students [put]
// @Router /quizzes/{id}/students [put]
func (c *workController) ReplaceAssignedStudents(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}
	var req dto.StudentIDsRequest
	if !bindJSON(ctx, &req) {
		return
	}

	if err := c.work.ReplaceAssignedStudents(ctx.Request.Context(), actor, id, req.StudentIDs); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondMessage(ctx, "Assigned students updated")
}

// Submit godoc
// @Summary Submit work
// @Description A student submits once per assignment or quiz.
// @Tags coursework
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment or quiz ID" Format(uuid)
// @Param request body dto.SubmitWorkRequest true "Submission"
// @Success 201 {object} dto.APIResponse{data=models.Submission}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail} "Not assigned"
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Already submitted"
// @Router /assignments/{id}/submissions [post]
// @Router /quizzes/{id}/submissions [post]
func (c *workController) Submit(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}
	var req dto.SubmitWorkRequest
	if !bindJSON(ctx, &req) {
		return
	}

	sub, err := c.work.Submit(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, sub)
}

// ListSubmissions godoc
// @Summary List submissions
// @Description Teachers and admins see every submission, students only their own.
// @Tags coursework
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment or quiz ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=[]models.Submission}
// @Router /assignments/{id}/submissions [get]
// @Router /quizzes/{id}/submissions [get]
func (c *workController) ListSubmissions(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	subs, err := c.work.ListSubmissions(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, subs)
}

// GradeSubmission godoc
// @Summary Grade a submission
// @Description The grade must lie between 0 and the work's total marks.
// @Tags coursework
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment or quiz ID" Format(uuid)
// @Param submissionId path string true "Submission ID" Format(uuid)
// @Param request body dto.GradeRequest true "Grade"
// @Success 200 {object} dto.APIResponse{data=models.Submission}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Grade out of range"
// @Router /assignments/{id}/submissions/{submissionId}/grade [put]
// @Router /quizzes/{id}/submissions/{submissionId}/grade [put]
func (c *workController) GradeSubmission(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}
	submissionID, ok := pathUUID(ctx, "submissionId")
	if !ok {
		return
	}
	var req dto.GradeRequest
	if !bindJSON(ctx, &req) {
		return
	}

	sub, err := c.work.GradeSubmission(ctx.Request.Context(), actor, id, submissionID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, sub)
}
