package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sheetgrader-backend/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondServiceError maps the services' sentinel errors onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCourseNotFound):
		RespondError(c, http.StatusNotFound, "course_not_found", err)
	case errors.Is(err, services.ErrTeacherNotFound):
		RespondError(c, http.StatusNotFound, "teacher_not_found", err)
	case errors.Is(err, services.ErrScoreNotFound):
		RespondError(c, http.StatusNotFound, "score_not_found", err)
	case errors.Is(err, services.ErrSessionNotFound):
		RespondError(c, http.StatusNotFound, "session_not_found", err)
	case errors.Is(err, services.ErrWrongStage):
		RespondError(c, http.StatusConflict, "wrong_stage", err)
	case errors.Is(err, services.ErrStageBusy):
		RespondError(c, http.StatusConflict, "stage_busy", err)
	case errors.Is(err, services.ErrStaleResult):
		RespondError(c, http.StatusConflict, "stale_result", err)
	case errors.Is(err, services.ErrNotReviewed):
		RespondError(c, http.StatusConflict, "not_reviewed", err)
	case errors.Is(err, services.ErrNoConflict):
		RespondError(c, http.StatusConflict, "no_conflict", err)
	case errors.Is(err, services.ErrValidation):
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, services.ErrInvalidCredentials):
		RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
