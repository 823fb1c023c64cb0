// Package errors defines stable error codes and structured errors for the
// analysis and transformation pipeline.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ParseError indicates a source file could not be parsed; results for
	// that file are empty, other files in a batch are unaffected
	ParseError ErrorCode = "PARSE_ERROR"
	// FusionError indicates malformed metric input; the offending field is
	// marked unknown and the pipeline continues
	FusionError ErrorCode = "FUSION_ERROR"
	// PreconditionUnmet indicates a structural transform lacks purchase;
	// the engine routes to the scaffold path, this is not a failure
	PreconditionUnmet ErrorCode = "PRECONDITION_UNMET"
	// ValidationFailure indicates a transform candidate was rejected by the
	// validation gauntlet
	ValidationFailure ErrorCode = "VALIDATION_FAILURE"
	// ExternalToolUnavailable indicates an optional collaborator is missing;
	// its signals are skipped, never fatal
	ExternalToolUnavailable ErrorCode = "EXTERNAL_TOOL_UNAVAILABLE"
	// WriteConflict indicates out-path write contention; retryable, no
	// partial write occurred
	WriteConflict ErrorCode = "WRITE_CONFLICT"
	// UnknownTarget indicates a pattern/architecture name not in the catalog
	UnknownTarget ErrorCode = "UNKNOWN_TARGET"
	// PathNotFound indicates a caller-supplied path does not exist
	PathNotFound ErrorCode = "PATH_NOT_FOUND"
	// Timeout indicates an external invocation or backend exceeded its budget
	Timeout ErrorCode = "TIMEOUT"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// AdvisorError is a structured error carrying a stable code and optional details
type AdvisorError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// New creates a new AdvisorError
func New(code ErrorCode, message string) *AdvisorError {
	return &AdvisorError{Code: code, Message: message}
}

// Wrap creates a new AdvisorError wrapping a cause
func Wrap(code ErrorCode, message string, cause error) *AdvisorError {
	return &AdvisorError{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *AdvisorError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AdvisorError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *AdvisorError) WithDetails(details interface{}) *AdvisorError {
	e.Details = details
	return e
}

// CodeOf extracts the stable code from err, or InternalError for plain errors.
func CodeOf(err error) ErrorCode {
	var ae *AdvisorError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return InternalError
}

// IsRetryable reports whether the caller may retry the same request.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case WriteConflict, Timeout:
		return true
	}
	return false
}
