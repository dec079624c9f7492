// Package apperr defines the two user-facing error kinds of the answer
// pipeline: caller-caused errors that are safe to return verbatim, and
// application errors caused by upstream contract violations.
package apperr

import "fmt"

// UserError is a caller-caused failure (missing field, empty query, flagged
// content). It maps to a 400 response; Message and Data are safe to return.
type UserError struct {
	Message string
	Data    map[string]any
}

func (e *UserError) Error() string {
	return e.Message
}

// Userf creates a UserError without structured detail.
func Userf(format string, args ...any) *UserError {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

// AppError is an upstream or contract-violation failure (missing config,
// malformed upstream response). It maps to a 500 response with a generic
// body; the wrapped error is logged, never returned to the caller.
type AppError struct {
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Appf creates an AppError without a wrapped cause.
func Appf(format string, args ...any) *AppError {
	return &AppError{Message: fmt.Sprintf(format, args...)}
}

// WrapApp wraps err as an AppError with additional context.
// Returns nil if err is nil.
func WrapApp(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &AppError{Message: msg, Err: err}
}
