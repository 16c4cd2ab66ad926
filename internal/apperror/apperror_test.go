package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("identity required"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "AccessDenied wraps ErrAccessDenied",
			err:       AccessDenied("teachers only"),
			target:    ErrAccessDenied,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("age", "age must be greater than 18"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Uniqueness wraps ErrUniqueness",
			err:       Uniqueness("email"),
			target:    ErrUniqueness,
			wantMatch: true,
		},
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("student", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "InvalidCredentials wraps ErrInvalidCredentials",
			err:       InvalidCredentials(),
			target:    ErrInvalidCredentials,
			wantMatch: true,
		},
		{
			name:      "InvalidTarget wraps ErrInvalidTarget",
			err:       InvalidTarget("marks only apply to students"),
			target:    ErrInvalidTarget,
			wantMatch: true,
		},
		{
			name:      "Unauthorized does NOT match ErrAccessDenied",
			err:       Unauthorized("identity required"),
			target:    ErrAccessDenied,
			wantMatch: false,
		},
		{
			name:      "InvalidCredentials does NOT match ErrNotFound",
			err:       InvalidCredentials(),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorsIsThroughWrapping(t *testing.T) {
	// Services wrap store errors with fmt.Errorf("...: %w", err); the kind
	// must still be matchable through the extra layer.
	wrapped := fmt.Errorf("fetching student: %w", NotFound("student", "xyz"))
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("errors.Is should match through fmt.Errorf wrapping")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As should extract the AppError through wrapping")
	}
	if appErr.Message != "student not found with id xyz" {
		t.Errorf("Message = %q, want %q", appErr.Message, "student not found with id xyz")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("student", "abc123"),
			wantMessage: "student not found with id abc123",
		},
		{
			name:        "Uniqueness message names the field",
			err:         Uniqueness("address"),
			wantMessage: "address must be unique",
		},
		{
			name:        "InvalidCredentials message is undifferentiated",
			err:         InvalidCredentials(),
			wantMessage: "invalid credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("email", "invalid email format")
	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
}

func TestUniquenessField(t *testing.T) {
	err := Uniqueness("email")
	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
}
