// Package errors provides structured error types for labelbench.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the pipeline and the archive
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow the failure taxonomy of a benchmarking run:
//   - CONFIG_*, NO_ALGORITHMS: fatal before any test begins
//   - LOAD_FAILURE, DATASET_UNREADABLE: non-fatal, scoped to one file or dataset
//   - SINK_WRITE, ARCHIVE: fatal to one test's output only
//   - INTERNAL_ERROR: unexpected failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfigInvalid, "trials must be positive, got %d", n)
//	if errors.Is(err, errors.ErrCodeConfigInvalid) {
//	    // abort before testing
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeSinkWrite, origErr, "write %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors (fatal, abort before testing)
	ErrCodeConfigInvalid     Code = "CONFIG_INVALID"
	ErrCodeNoAlgorithms      Code = "NO_ALGORITHMS"
	ErrCodeAlgorithmNotFound Code = "ALGORITHM_NOT_FOUND"
	ErrCodeInvalidName       Code = "INVALID_NAME"

	// Input errors (non-fatal, scoped to a file or a dataset)
	ErrCodeLoadFailure       Code = "LOAD_FAILURE"
	ErrCodeDatasetUnreadable Code = "DATASET_UNREADABLE"

	// Output errors (fatal to one test's output)
	ErrCodeSinkWrite Code = "SINK_WRITE"
	ErrCodeArchive   Code = "ARCHIVE"
	ErrCodeNotFound  Code = "NOT_FOUND"

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
