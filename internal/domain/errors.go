package domain

import (
	"fmt"
	"strings"
	"time"
)

// TriageError represents a standardized error response
type TriageError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *TriageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrOutOfRangeInput        = "OUT_OF_RANGE_INPUT"
	ErrMissingRequiredContext = "MISSING_REQUIRED_CONTEXT"
	ErrInvalidInput           = "INVALID_INPUT"
	ErrDatabaseError          = "DATABASE_ERROR"
	ErrRateLimit              = "RATE_LIMIT_EXCEEDED"
	ErrNotFoundCode           = "NOT_FOUND"
	ErrInternalServer         = "INTERNAL_SERVER_ERROR"
)

// ValidationError represents input validation errors
type ValidationError struct {
	Code    string      `json:"code"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors aggregates every problem found in one submission so the
// collaborator can show them all at once.
type ValidationErrors []*ValidationError

// Error implements the error interface
func (errs ValidationErrors) Error() string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// HasCode reports whether any entry carries code.
func (errs ValidationErrors) HasCode(code string) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

// NewTriageError creates a new TriageError with timestamp
func NewTriageError(code, message, details, requestID string) *TriageError {
	return &TriageError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(code, field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Code:    code,
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NewOutOfRangeError reports a value outside its enumerated scale.
func NewOutOfRangeError(field string, value interface{}) *ValidationError {
	return NewValidationError(ErrOutOfRangeInput, field, "value is outside the allowed scale", value)
}

// NewMissingContextError reports a context field the workflow requires.
func NewMissingContextError(field string) *ValidationError {
	return NewValidationError(ErrMissingRequiredContext, field, "field is required", nil)
}
