package api

import (
	"errors"
	"fmt"
	"net/http"

	"example.com/textile/erp/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ErrorResponse defines the structure of an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Error represents an API error
type Error struct {
	Message    string
	StatusCode int
	Code       string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Common API errors
var (
	ErrInvalidRequest     = &Error{Message: "Invalid request", StatusCode: http.StatusBadRequest, Code: "INVALID_REQUEST"}
	ErrNotFound           = &Error{Message: "Resource not found", StatusCode: http.StatusNotFound, Code: "NOT_FOUND"}
	ErrInternalServer     = &Error{Message: "Internal server error", StatusCode: http.StatusInternalServerError, Code: "INTERNAL_ERROR"}
	ErrUnauthorized       = &Error{Message: "Unauthorized", StatusCode: http.StatusUnauthorized, Code: "UNAUTHORIZED"}
	ErrForbidden          = &Error{Message: "Forbidden", StatusCode: http.StatusForbidden, Code: "FORBIDDEN"}
	ErrConflict           = &Error{Message: "Resource already exists", StatusCode: http.StatusConflict, Code: "CONFLICT"}
	ErrValidation         = &Error{Message: "Validation error", StatusCode: http.StatusBadRequest, Code: "VALIDATION_ERROR"}
	ErrServiceUnavailable = &Error{Message: "Service unavailable", StatusCode: http.StatusServiceUnavailable, Code: "SERVICE_UNAVAILABLE"}
)

// NewValidationError creates a new validation error with a custom message
func NewValidationError(format string, args ...interface{}) *Error {
	return &Error{
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusBadRequest,
		Code:       "VALIDATION_ERROR",
	}
}

// NewNotFoundError reports a missing resource by name
func NewNotFoundError(resource string) *Error {
	return &Error{
		Message:    resource + " not found",
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
	}
}

// NewConflictError reports a uniqueness or state conflict
func NewConflictError(format string, args ...interface{}) *Error {
	return &Error{
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusConflict,
		Code:       "CONFLICT",
	}
}

// NewTransitionError reports a status change outside the allow-list
func NewTransitionError(from, to string) *Error {
	return &Error{
		Message:    fmt.Sprintf("cannot change status from %s to %s", from, to),
		StatusCode: http.StatusConflict,
		Code:       "INVALID_TRANSITION",
	}
}

// NewError creates a new API error with custom details
func NewError(message string, statusCode int, code string) *Error {
	return &Error{
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

// AsError resolves err to an API error. Repository sentinels are translated;
// anything else becomes an internal error.
func AsError(err error) *Error {
	var apiError *Error
	switch {
	case errors.As(err, &apiError):
		return apiError
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicateKey):
		return ErrConflict
	default:
		return ErrInternalServer
	}
}

// WriteError aborts the request with an error envelope
func WriteError(c *gin.Context, err error) {
	apiError := AsError(err)
	if apiError == ErrInternalServer {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(apiError.StatusCode, ErrorResponse{
		Success: false,
		Error:   apiError.Code,
		Message: apiError.Message,
	})
}
