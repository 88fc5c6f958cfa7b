package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Standard error types for the application
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the user doesn't have permission
	ErrForbidden = errors.New("forbidden")

	// ErrBadRequest is returned when the request is malformed
	ErrBadRequest = errors.New("bad request")

	// ErrValidation is returned when validation fails
	ErrValidation = errors.New("validation error")

	// ErrInternal is returned for internal server errors
	ErrInternal = errors.New("internal server error")

	// ErrServiceUnavailable is returned when a dependent service is unavailable
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Auth-specific errors
var (
	// ErrTokenExpired is returned when a JWT token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidToken is returned when a JWT token is invalid
	ErrInvalidToken = errors.New("invalid token")
)

// Project-specific errors
var (
	// ErrProjectNotFound is returned when a project is not found
	ErrProjectNotFound = errors.New("project not found")

	// ErrNotProjectMember is returned when user is not a member of the project
	ErrNotProjectMember = errors.New("user is not a member of this project")
)

// Schedule analysis errors
var (
	// ErrInvalidGraph is returned when a project's dependency graph has a cycle
	ErrInvalidGraph = errors.New("invalid dependency graph")

	// ErrMissingDates marks a task without start and end date.
	// It is reported, never returned as a fatal error.
	ErrMissingDates = errors.New("task has no start or end date")

	// ErrInvalidSnapshot is returned when an analysis snapshot fails validation
	ErrInvalidSnapshot = errors.New("invalid analysis snapshot")

	// ErrRangeTooLong is returned when a workload range spans more days than allowed
	ErrRangeTooLong = errors.New("analysis range too long")
)

// GraphError describes a dependency cycle found in one project's tasks.
// A self-dependency is reported as the one-node cycle [id, id].
type GraphError struct {
	ProjectID string
	Cycle     []string
}

// Error implements the error interface
func (e *GraphError) Error() string {
	msg := "dependency cycle detected: " + strings.Join(e.Cycle, " -> ")
	if e.ProjectID != "" {
		msg = fmt.Sprintf("project %s: %s", e.ProjectID, msg)
	}
	return msg
}

// Unwrap lets errors.Is match ErrInvalidGraph
func (e *GraphError) Unwrap() error {
	return ErrInvalidGraph
}

// AppError represents an application error with additional context
type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// ValidationError creates a validation error with field details
func ValidationError(message string, fields map[string]string) *AppError {
	details := make(map[string]interface{})
	for k, v := range fields {
		details[k] = v
	}
	return &AppError{
		Err:        ErrValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// InvalidGraph creates an error for a cyclic dependency graph with the cycle in details
func InvalidGraph(ge *GraphError) *AppError {
	return &AppError{
		Err:        ge,
		Message:    ge.Error(),
		StatusCode: http.StatusUnprocessableEntity,
		Details:    map[string]interface{}{"cycle": ge.Cycle},
	}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrProjectNotFound)
}

// IsUnauthorized checks if an error is an unauthorized error
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrInvalidToken)
}

// IsInvalidGraph checks if an error reports a dependency cycle
func IsInvalidGraph(err error) bool {
	return errors.Is(err, ErrInvalidGraph)
}

// HTTPStatusCode returns the appropriate HTTP status code for an error
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsUnauthorized(err):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotProjectMember):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidSnapshot),
		errors.Is(err, ErrRangeTooLong):
		return http.StatusBadRequest
	case IsInvalidGraph(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Is and As re-export the standard helpers so callers need one errors import
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target
func As(err error, target any) bool { return errors.As(err, target) }
