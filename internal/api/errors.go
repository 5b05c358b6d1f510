package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/httputil"
	"github.com/deptdocs/revisor/internal/metrics"
	"github.com/deptdocs/revisor/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeInternalError   = "internal_error"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeForbidden       = "forbidden"
	ErrCodeConflict        = "conflict"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeValidationError = "validation_error"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// notFoundMessages and conflictMessages give the client-facing text for
// specific sentinels; the category decides the status code.
var (
	notFoundMessages = []struct {
		err error
		msg string
	}{
		{models.ErrContentNotFound, "content not found"},
		{models.ErrVersionNotFound, "version not found"},
		{models.ErrNotificationNotFound, "notification not found"},
		{models.ErrUserNotFound, "user not found"},
	}

	conflictMessages = []struct {
		err error
		msg string
	}{
		{models.ErrVersionConflict, "content was modified by someone else, please retry"},
		{models.ErrDuplicateSlug, "slug already in use"},
		{models.ErrDuplicateKey, "resource already exists"},
	}
)

// respondServiceError maps a service error to its HTTP status by category.
// Unexpected errors are logged with op and answered with a generic 500.
func respondServiceError(c *gin.Context, log *logrus.Logger, op string, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
	case errors.Is(err, models.ErrForbidden):
		respondError(c, http.StatusForbidden, ErrCodeForbidden, "forbidden")
	case errors.Is(err, models.ErrNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, messageFor(err, notFoundMessages, "not found"))
	case errors.Is(err, models.ErrConflict):
		respondError(c, http.StatusConflict, ErrCodeConflict, messageFor(err, conflictMessages, "conflict"))
	default:
		log.WithError(err).WithField("op", op).Error("request failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}

func messageFor(err error, table []struct {
	err error
	msg string
}, fallback string,
) string {
	for _, m := range table {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}

	return fallback
}
