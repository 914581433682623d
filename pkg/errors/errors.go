// Package errors provides structured error types for leaderline.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and HTTP service
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (fail fast at the API boundary)
//   - UNSUPPORTED_*: Unknown enum values from dynamically-typed callers
//   - NOT_FOUND: Resource not found
//   - MEASUREMENT_FAILED: An element could not be measured
//   - INTERNAL_*: Unexpected internal errors
//
// Degenerate geometry (coincident endpoints, zero-area boxes) is never an
// error; it resolves to well-defined degenerate output.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnsupportedSocket, "unknown socket %q", name)
//	if errors.Is(err, errors.ErrCodeUnsupportedSocket) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidScene, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidAttachment Code = "INVALID_ATTACHMENT"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeInvalidScene      Code = "INVALID_SCENE"
	ErrCodeInvalidColor      Code = "INVALID_COLOR"
	ErrCodeInvalidID         Code = "INVALID_ID"

	// Unknown enum values
	ErrCodeUnsupportedPathType Code = "UNSUPPORTED_PATH_TYPE"
	ErrCodeUnsupportedSocket   Code = "UNSUPPORTED_SOCKET"
	ErrCodeUnsupportedPlug     Code = "UNSUPPORTED_PLUG"

	// Resource errors
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeMeasurementFailed Code = "MEASUREMENT_FAILED"
	ErrCodeTimeout           Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsConfigError reports whether err is a caller configuration error
// (an INVALID_* or UNSUPPORTED_* code) rather than a runtime failure.
func IsConfigError(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidAttachment, ErrCodeInvalidFormat,
		ErrCodeInvalidScene, ErrCodeInvalidColor, ErrCodeInvalidID,
		ErrCodeUnsupportedPathType, ErrCodeUnsupportedSocket, ErrCodeUnsupportedPlug,
		ErrCodeUnsupported:
		return true
	}
	return false
}
