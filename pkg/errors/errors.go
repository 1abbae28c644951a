// Package errors provides structured error types for meibo.
//
// The layout pipeline distinguishes four failure classes with very different
// consequences:
//
//   - FORMAT_ERROR: the container, header or TLV stream of a .lay file is
//     malformed. Always fatal for that file and never retried.
//   - REFERENCE_ERROR: a roster placeholder names a layout that is absent from
//     the supplied registry. Logged; only that placeholder is skipped.
//   - RESOURCE_ERROR: an embedded or linked photo cannot be decoded. The photo
//     degrades to an empty placeholder.
//   - DATA_ERROR: a requested logical field is absent from the record. The
//     value resolves to an empty string.
//
// Everything downstream of a successful parse degrades per field or per
// placeholder, so only FORMAT_ERROR ever aborts a run.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeFormat, "invalid header: %q", got)
//	if errors.Is(err, errors.ErrCodeFormat) {
//	    // the file is unreadable
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeResource, decodeErr, "decode photo %s", key)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Layout pipeline errors
	ErrCodeFormat    Code = "FORMAT_ERROR"
	ErrCodeReference Code = "REFERENCE_ERROR"
	ErrCodeResource  Code = "RESOURCE_ERROR"
	ErrCodeData      Code = "DATA_ERROR"

	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidPath  Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

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

// Fatal reports whether err makes the input unusable. Only format errors
// and errors without a code are fatal; the degradable classes are not.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	switch GetCode(err) {
	case ErrCodeReference, ErrCodeResource, ErrCodeData:
		return false
	}
	return true
}
