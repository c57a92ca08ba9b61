package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/app/services"
	"github.com/yigit/classroom/internal/middleware"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/helpers"
)

// IdempotencyKeyHeader lets clients retry session creation safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// SessionController handles live session requests
type SessionController struct {
	sessionService services.SessionService
}

// NewSessionController creates a new SessionController
func NewSessionController(sessionService services.SessionService) *SessionController {
	return &SessionController{sessionService: sessionService}
}

// CreateSession godoc
// @Summary Schedule a live session
// @Description Creates a video room, then the session and its attendee list. Nothing is kept when any step fails.
// @Description A repeated request with the same Idempotency-Key returns the original session with status 200.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Client supplied idempotency key"
// @Param request body dto.CreateSessionRequest true "Session"
// @Success 201 {object} dto.APIResponse{data=models.CourseSession} "Created"
// @Success 200 {object} dto.APIResponse{data=models.CourseSession} "Replayed"
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid input"
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail} "Not the course owner"
// @Failure 500 {object} dto.APIResponse{error=dto.ErrorDetail} "Video provider failure"
// @Router /sessions [post]
func (c *SessionController) CreateSession(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.CreateSessionRequest
	if !bindJSON(ctx, &req) {
		return
	}
	key := strings.TrimSpace(ctx.GetHeader(IdempotencyKeyHeader))

	session, created, err := c.sessionService.CreateSession(ctx.Request.Context(), actor, &req, key)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond(ctx, status, session)
}

// ListSessions godoc
// @Summary List sessions
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "Course ID" Format(uuid)
// @Param from query string false "Start time lower bound (RFC3339)"
// @Param to query string false "Start time upper bound (RFC3339)"
// @Success 200 {object} dto.APIResponse{data=[]models.CourseSession}
// @Router /sessions [get]
func (c *SessionController) ListSessions(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	courseID, ok := queryUUID(ctx, "courseId")
	if !ok {
		return
	}
	from, err := helpers.ParseOptionalTime(ctx.Query("from"))
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("from", "from must be an RFC3339 timestamp"))
		return
	}
	to, err := helpers.ParseOptionalTime(ctx.Query("to"))
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("to", "to must be an RFC3339 timestamp"))
		return
	}

	sessions, err := c.sessionService.ListSessions(ctx.Request.Context(), actor, dto.SessionFilter{
		CourseID: courseID,
		From:     from,
		To:       to,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, sessions)
}

// GetSession godoc
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=models.CourseSession}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "Session not found"
// @Router /sessions/{id} [get]
func (c *SessionController) GetSession(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	session, err := c.sessionService.GetSession(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, session)
}

// UpdateSession godoc
// @Summary Update a session
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID" Format(uuid)
// @Param request body dto.UpdateSessionRequest true "Changes"
// @Success 200 {object} dto.APIResponse{data=models.CourseSession}
// @Router /sessions/{id} [patch]
func (c *SessionController) UpdateSession(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateSessionRequest
	if !bindJSON(ctx, &req) {
		return
	}

	session, err := c.sessionService.UpdateSession(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, session)
}

// DeleteSession godoc
// @Summary Delete a session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /sessions/{id} [delete]
func (c *SessionController) DeleteSession(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	if err := c.sessionService.DeleteSession(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondMessage(ctx, "Session deleted")
}

// JoinSession godoc
// @Summary Join a session
// @Description Returns the room details for the course teacher, an admin or an attending student.
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.JoinSessionResponse}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail} "Not an attendee"
// @Router /sessions/{id}/join [post]
func (c *SessionController) JoinSession(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	res, err := c.sessionService.JoinSession(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, res)
}
