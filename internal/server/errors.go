package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	applicationdomain "github.com/voluntaria/platform/internal/application/domain"
	notificationdomain "github.com/voluntaria/platform/internal/notification/domain"
)

// The transition and sweep endpoints speak an RPC-style envelope:
// {"success": true, ...} or {"success": false, "error": "..."}. The
// middleware below turns domain sentinels into that envelope with the right
// status code, so handlers just push errors onto the gin context.

var ErrInvalidRequest = errors.New("invalid_request")

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, message := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, gin.H{
			"success": false,
			"error":   message,
		})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, applicationdomain.ErrInvalidID),
		errors.Is(err, applicationdomain.ErrInvalidActor),
		errors.Is(err, notificationdomain.ErrInvalidID):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, applicationdomain.ErrForbidden):
		return http.StatusForbidden, "não permitido"
	case errors.Is(err, applicationdomain.ErrNotFound),
		errors.Is(err, notificationdomain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, applicationdomain.ErrNotCancelled):
		return http.StatusUnprocessableEntity, applicationdomain.ErrNotCancelled.Error()
	case errors.Is(err, applicationdomain.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, applicationdomain.ErrPersistence):
		return http.StatusServiceUnavailable, "armazenamento temporariamente indisponível"
	default:
		return http.StatusInternalServerError, "erro interno"
	}
}

// classifyErrorForLog labels errors for the request log without leaking
// internals into user responses.
func classifyErrorForLog(err error) (string, string) {
	switch {
	case err == nil:
		return "", ""
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, applicationdomain.ErrInvalidID),
		errors.Is(err, applicationdomain.ErrInvalidActor):
		return "validation_error", "invalid_request"
	case errors.Is(err, applicationdomain.ErrForbidden):
		return "auth_error", "forbidden"
	case errors.Is(err, applicationdomain.ErrNotFound),
		errors.Is(err, notificationdomain.ErrNotFound):
		return "not_found", "not_found"
	case errors.Is(err, applicationdomain.ErrNotCancelled):
		return "invalid_state", "not_cancelled"
	case errors.Is(err, applicationdomain.ErrConflict):
		return "conflict", "transition_conflict"
	case errors.Is(err, applicationdomain.ErrPersistence):
		return "persistence_error", "store_unavailable"
	default:
		return "internal_error", "internal"
	}
}
