// Package kberrors defines the structured error taxonomy for the retrieval
// engine. Failures in optional subsystems (shared cache, semantic path) never
// abort a request; failures in mandatory subsystems degrade to empty results.
package kberrors

import (
	"errors"
	"fmt"
)

// Error is the structured error type for kbengine. It carries an error code,
// category, and severity so callers can decide between degradation and abort
// without string matching.
type Error struct {
	// Code is the stable error code (e.g. ERR_CORPUS_LOAD).
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the subsystem that produced the error.
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Cause is the underlying error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so errors.Is works across wrapping.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new Error with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an Error from an existing error, keeping its message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ProviderUnavailable creates an error for a failed embedding or similarity
// provider call.
func ProviderUnavailable(message string, cause error) *Error {
	return New(CodeProviderUnavailable, message, cause)
}

// CorpusLoad creates an error for a failed document corpus load.
func CorpusLoad(message string, cause error) *Error {
	return New(CodeCorpusLoad, message, cause)
}

// ConfigInvalid creates a fatal configuration error.
func ConfigInvalid(message string) *Error {
	return New(CodeConfigInvalid, message, nil)
}

// CacheBackend creates an error for a shared cache tier failure.
func CacheBackend(message string, cause error) *Error {
	return New(CodeCacheBackend, message, cause)
}

// IsFatal reports whether the error has fatal severity.
func IsFatal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Severity == SeverityFatal
	}
	return false
}

// IsRetryable reports whether the failed operation may succeed on retry.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetCode extracts the error code, or empty string for plain errors.
func GetCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
