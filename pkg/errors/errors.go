// Package errors provides structured error types for the crumb engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the pass orchestrators
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (config, element export, record)
//   - *_FAILED: An engine stage failed (discovery, decode, store)
//   - NO_APPLICABLE_EXTENSION: Configuration mismatch between marked elements
//     and registered extensions
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDecodeFailed, "truncated record in %s", path)
//	if errors.Is(err, errors.ErrCodeDecodeFailed) {
//	    // Handle decode error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStoreFailed, origErr, "writing %s", entry)
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
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidElements Code = "INVALID_ELEMENTS"
	ErrCodeInvalidRecord   Code = "INVALID_RECORD"

	// Configuration mismatch between marked elements and extensions
	ErrCodeNoApplicableExtension Code = "NO_APPLICABLE_EXTENSION"
	ErrCodeDuplicateKey          Code = "DUPLICATE_KEY"

	// Stage failures
	ErrCodeDiscoveryFailed Code = "DISCOVERY_FAILED"
	ErrCodeDecodeFailed    Code = "DECODE_FAILED"
	ErrCodeStoreFailed     Code = "STORE_FAILED"
	ErrCodeExtensionPanic  Code = "EXTENSION_PANIC"

	// Resource not found
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
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

// GetCodeOr extracts the error code from an error, falling back to def for
// errors without one.
func GetCodeOr(err error, def Code) Code {
	if code := GetCode(err); code != "" {
		return code
	}
	return def
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
