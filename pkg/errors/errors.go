package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of application errors
type ErrorType string

const (
	ErrorTypeNotFound               ErrorType = "not_found"
	ErrorTypeInvalidVote            ErrorType = "invalid_vote"
	ErrorTypeMembershipMismatch     ErrorType = "membership_mismatch"
	ErrorTypeNotEveryoneVoted       ErrorType = "not_everyone_voted"
	ErrorTypeInvalidState           ErrorType = "invalid_state"
	ErrorTypeConflictingActiveTable ErrorType = "conflicting_active_table"
	ErrorTypeValidation             ErrorType = "validation"
	ErrorTypeConflict               ErrorType = "conflict"
	ErrorTypeAuthentication         ErrorType = "authentication"
	ErrorTypeRateLimit              ErrorType = "rate_limit"
	ErrorTypeInternal               ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInvalidVoteError is returned when a vote is absent or outside the accepted range
func NewInvalidVoteError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidVote,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewMembershipMismatchError is returned when a participant votes on a table it is not bound to
func NewMembershipMismatchError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeMembershipMismatch,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewNotEveryoneVotedError is the business-rule rejection of a close request
func NewNotEveryoneVotedError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeNotEveryoneVoted,
		Message:    message,
		StatusCode: http.StatusConflict,
		Details:    details,
	}
}

// NewInvalidStateError creates a new invalid state error
func NewInvalidStateError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidState,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewConflictingActiveTableError creates a new conflicting active table error
func NewConflictingActiveTableError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflictingActiveTable,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewRateLimitError creates a new rate limit error
func NewRateLimitError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimit,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// As extracts the *AppError from an error chain. Errors that are not
// application errors are reported as internal.
func As(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError("Internal server error", err)
}

// TypeOf returns the ErrorType carried by err, or "" when err is nil
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	return As(err).Type
}

// Is reports whether err carries the given error type
func Is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// ErrorResponse represents the JSON error response
type ErrorResponse struct {
	Success bool `json:"success"`
	Error   struct {
		Type      ErrorType              `json:"type"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details,omitempty"`
		RequestID string                 `json:"request_id,omitempty"`
		Timestamp string                 `json:"timestamp"`
	} `json:"error"`
}
