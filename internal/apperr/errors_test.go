package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestUserError(t *testing.T) {
	err := &UserError{
		Message: "prompt is required",
		Data:    map[string]any{"field": "prompt"},
	}

	if err.Error() != "prompt is required" {
		t.Errorf("Error() = %q, want %q", err.Error(), "prompt is required")
	}

	wrapped := fmt.Errorf("handling request: %w", err)
	var userErr *UserError
	if !errors.As(wrapped, &userErr) {
		t.Fatal("errors.As failed to unwrap UserError")
	}
	if userErr.Data["field"] != "prompt" {
		t.Errorf("Data lost through wrapping: %v", userErr.Data)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapApp(cause, "moderation call failed")

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("WrapApp did not produce an AppError")
	}
	if !errors.Is(err, cause) {
		t.Error("AppError does not unwrap to its cause")
	}
	if appErr.Error() != "moderation call failed: connection refused" {
		t.Errorf("Error() = %q", appErr.Error())
	}
}

func TestWrapAppNil(t *testing.T) {
	if err := WrapApp(nil, "context"); err != nil {
		t.Errorf("WrapApp(nil) = %v, want nil", err)
	}
}

func TestAppfNoCause(t *testing.T) {
	err := Appf("embedding service returned zero vectors")
	if err.Error() != "embedding service returned zero vectors" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Error("Unwrap() should be nil without a cause")
	}
}
