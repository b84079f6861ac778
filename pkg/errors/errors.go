// Package errors provides structured error types for the paperdash application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and web server
//   - Machine-readable error codes for programmatic handling
//   - User-friendly placeholder messages for degraded dashboard sections
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes fall into two severity classes. Configuration and encoding errors are
// fatal: the run cannot produce its artifact. Provider and render errors are
// recoverable: the affected section degrades to a placeholder while the rest
// of the image is still generated.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfigInvalid, "section %q rows out of range", name)
//	if errors.Is(err, errors.ErrCodeConfigInvalid) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Fatal, pre-run: invalid region map or configuration file.
	ErrCodeConfigInvalid Code = "CONFIG_INVALID"

	// Recoverable, per-section provider failures.
	ErrCodeAuth    Code = "AUTH_ERROR"
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeNoData  Code = "NO_DATA"

	// Recoverable, per-section: a renderer rejected malformed data.
	ErrCodeRender Code = "RENDER_ERROR"

	// Fatal: the output artifact cannot be produced.
	ErrCodeEncode Code = "ENCODE_ERROR"

	// Internal errors outside the other categories.
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// IsFatal reports whether err should abort the whole generation run rather
// than degrade a single section.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeConfigInvalid, ErrCodeEncode:
		return true
	}
	return false
}
