package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/logger"
)

func abortWith(c *gin.Context, status int, detail *dto.ErrorDetail) {
	c.AbortWithStatusJSON(status, dto.APIResponse{Error: detail, Timestamp: time.Now()})
}

// messageOr prefers the public message carried by a CustomError.
func messageOr(err error, fallback string) string {
	if msg, ok := apperrors.PublicMessage(err); ok {
		return msg
	}
	return fallback
}

// --- Central Error Handling Middleware/Function ---

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	var verr *apperrors.ValidationError

	switch {
	case errors.As(err, &verr):
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").WithDetails(verr.Fields)
		if len(verr.Fields) == 1 {
			detail = detail.WithField(verr.Fields[0].Field)
			detail.Message = verr.Fields[0].Message
		}
		abortWith(c, http.StatusBadRequest, detail)

	case errors.Is(err, apperrors.ErrValidationFailed):
		abortWith(c, http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, messageOr(err, "Validation failed")))

	case errors.Is(err, apperrors.ErrBadRequest):
		abortWith(c, http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeBadRequest, messageOr(err, "Bad request")))

	case apperrors.Is(err, apperrors.ErrResourceNotFound,
		apperrors.ErrUserNotFound,
		apperrors.ErrCourseNotFound,
		apperrors.ErrSessionNotFound,
		apperrors.ErrAssignmentNotFound,
		apperrors.ErrQuizNotFound,
		apperrors.ErrSubmissionNotFound,
		apperrors.ErrConversationNotFound,
		apperrors.ErrFileNotFound):
		abortWith(c, http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, messageOr(err, notFoundMessage(err))))

	case errors.Is(err, apperrors.ErrPermissionDenied):
		abortWith(c, http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, messageOr(err, "Permission denied")))

	case errors.Is(err, apperrors.ErrAccountDisabled):
		abortWith(c, http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeAccountDisabled, "Account is disabled"))

	case errors.Is(err, apperrors.ErrInvalidCredentials):
		abortWith(c, http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials"))

	case errors.Is(err, apperrors.ErrTokenExpired):
		abortWith(c, http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired"))

	case apperrors.Is(err, apperrors.ErrTokenInvalid, apperrors.ErrTokenRevoked):
		abortWith(c, http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token"))

	case errors.Is(err, apperrors.ErrTokenNotFound):
		abortWith(c, http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeTokenNotFound, "Token not found"))

	case errors.Is(err, apperrors.ErrEmailAlreadyExists):
		abortWith(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Email already exists"))

	case errors.Is(err, apperrors.ErrAlreadySubmitted):
		abortWith(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "You have already submitted this work"))

	case apperrors.Is(err, apperrors.ErrResourceAlreadyExists, apperrors.ErrConflict):
		abortWith(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeConflict, messageOr(err, "Resource already exists")))

	case errors.Is(err, apperrors.ErrExternalService):
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("External service failure")
		abortWith(c, http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeExternalServiceError, messageOr(err, "External service error")))

	default:
		logger.Error().Err(err).Str("method", c.Request.Method).Str("path", c.FullPath()).Msg("Unhandled error")
		abortWith(c, http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"))
	}
}

func notFoundMessage(err error) string {
	for _, target := range []error{
		apperrors.ErrUserNotFound,
		apperrors.ErrCourseNotFound,
		apperrors.ErrSessionNotFound,
		apperrors.ErrAssignmentNotFound,
		apperrors.ErrQuizNotFound,
		apperrors.ErrSubmissionNotFound,
		apperrors.ErrConversationNotFound,
		apperrors.ErrFileNotFound,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "Resource not found"
}
