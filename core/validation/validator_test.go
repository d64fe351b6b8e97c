package validation

import (
	"errors"
	"strings"
	"testing"

	"musiclib/core/apperr"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=50"`
	Rating   *int   `json:"rating" validate:"omitempty,oneof=0 1"`
}

func TestValidateStruct(t *testing.T) {
	two := 2
	one := 1
	tests := []struct {
		name    string
		in      signup
		wantErr string
	}{
		{"valid", signup{Email: "a@b.co", Password: "secret", Rating: &one}, ""},
		{"missing email", signup{Password: "secret"}, "email is required"},
		{"bad email", signup{Email: "nope", Password: "secret"}, "email must be a valid email address"},
		{"short password", signup{Email: "a@b.co", Password: "123"}, "password must be at least 6 characters long"},
		{"rating out of range", signup{Email: "a@b.co", Password: "secret", Rating: &two}, "rating must be one of: 0 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.in)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
			if !errors.Is(err, apperr.ErrInvalid) {
				t.Error("validation error should match apperr.ErrInvalid")
			}
		})
	}
}

func TestValidateStructCollectsAllFields(t *testing.T) {
	err := ValidateStruct(&signup{})
	var ve *RequestValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *RequestValidationError, got %T", err)
	}
	if len(ve.Fields) != 2 {
		t.Errorf("got %d field errors, want 2", len(ve.Fields))
	}
}
