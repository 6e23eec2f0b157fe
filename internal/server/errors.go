package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tenancy/internal/apperror"
)

type errorPayload struct {
	Type    string   `json:"type"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
)

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

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		if c.Request.Method == http.MethodHead {
			c.AbortWithStatus(status)
			return
		}
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError(field string) error {
	return apperror.InvalidArgument("request", "invalid %s", field)
}

func mapError(err error) (int, errorPayload) {
	var uniqueErr *apperror.UniquenessError
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	case errors.As(err, &uniqueErr):
		return http.StatusConflict, errorPayload{Type: "uniqueness_constraint", Message: err.Error(), Fields: uniqueErr.Fields}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: "unauthorized"}
	case errors.Is(err, apperror.ErrInvalidArgument), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{Type: "invalid_argument", Message: err.Error()}
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: err.Error()}
	case errors.Is(err, apperror.ErrReferentialIntegrity):
		return http.StatusConflict, errorPayload{Type: "referential_integrity", Message: err.Error()}
	case apperror.IsTransient(err):
		return http.StatusServiceUnavailable, errorPayload{Type: "service_unavailable", Message: "service unavailable"}
	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	}
}

// errorTypeOf is the error type written to the access log.
func errorTypeOf(err error) string {
	_, payload := mapError(err)
	return payload.Type
}
