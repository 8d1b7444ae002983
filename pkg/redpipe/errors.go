package redpipe

import (
	"errors"
	"fmt"
)

// Error is a redpipe error with a structured code.
//
// Codes look like "RP-CONN-4090": a project prefix, an area and a number.
// Two errors compare equal under errors.Is when their codes match, so callers
// can test against the sentinels below even after details were attached.
type Error struct {
	Code    string // Error code (e.g., "RP-CONN-4090")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(format string, args ...any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: fmt.Sprintf(format, args...),
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *Error) WithCause(cause error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsError checks if an error is an *Error with the given code.
// If code is empty, it only checks if the error is an *Error.
func IsError(err error, code string) bool {
	var re *Error
	if errors.As(err, &re) {
		if code == "" {
			return true
		}
		return re.Code == code
	}
	return false
}

// ErrorCode extracts the error code from an error if it's an *Error.
func ErrorCode(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// ============================================================================
// Connection Errors (CONN)
// ============================================================================

var (
	// ErrInvalidPipeline indicates the connection name is not configured.
	ErrInvalidPipeline = NewError("RP-CONN-4040", "connection not configured")

	// ErrAlreadyConnected indicates a name is already bound to a different server.
	ErrAlreadyConnected = NewError("RP-CONN-4090", "connection already bound")
)

// ============================================================================
// Future Errors (FUTR)
// ============================================================================

var (
	// ErrResultNotReady indicates a future was read before its pipeline executed.
	ErrResultNotReady = NewError("RP-FUTR-4250", "result not ready")
)

// ============================================================================
// Data Errors (OPER, FELD, SCAN)
// ============================================================================

var (
	// ErrInvalidOperation indicates a forbidden struct or keyspace operation.
	ErrInvalidOperation = NewError("RP-OPER-4000", "invalid operation")

	// ErrInvalidFieldValue indicates a field codec rejected a value.
	ErrInvalidFieldValue = NewError("RP-FELD-4000", "invalid field value")

	// ErrInvalidCursor indicates a cluster scan cursor that names no shard.
	ErrInvalidCursor = NewError("RP-SCAN-4000", "invalid scan cursor")
)
