package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/waitfree/internal/model"
)

func TestStruct_ValidSignup_ReturnsNil(t *testing.T) {
	v := New()

	inputs := []model.SignupInput{
		{Email: "patient@example.com", Password: "secret1"},
		{Email: "patient@example.com", Password: "secret1", PhoneNumber: "+819012345678"},
	}
	for _, in := range inputs {
		if err := v.Struct(in); err != nil {
			t.Errorf("Struct(%+v) = %v, want nil", in, err)
		}
	}
}

func TestStruct_InvalidSignup_ReturnsValidationError(t *testing.T) {
	tests := []struct {
		name      string
		input     model.SignupInput
		wantField string
	}{
		{"missing email", model.SignupInput{Password: "secret1"}, "email is required"},
		{"malformed email", model.SignupInput{Email: "not-an-email", Password: "secret1"}, "email must be a valid email address"},
		{"missing password", model.SignupInput{Email: "a@example.com"}, "password is required"},
		{"short password", model.SignupInput{Email: "a@example.com", Password: "12345"}, "password must be at least 6 characters long"},
		{"long password", model.SignupInput{Email: "a@example.com", Password: strings.Repeat("x", 129)}, "password must be at most 128 characters long"},
		{"bad phone", model.SignupInput{Email: "a@example.com", Password: "secret1", PhoneNumber: "090-1234-5678"}, "phone_number must be in E.164 format"},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if err == nil {
				t.Fatal("expected validation error")
			}

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *model.APIError, got %T", err)
			}
			if apiErr.Code != model.ErrCodeValidationFailed {
				t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeValidationFailed)
			}
			if !strings.Contains(apiErr.Message, tt.wantField) {
				t.Errorf("Message = %q, want it to contain %q", apiErr.Message, tt.wantField)
			}
		})
	}
}

func TestStruct_MultipleViolations_SortedByField(t *testing.T) {
	v := New()

	err := v.Struct(model.SignupInput{})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T", err)
	}

	want := "Invalid input: email is required; password is required"
	if apiErr.Message != want {
		t.Errorf("Message = %q, want %q", apiErr.Message, want)
	}
}

func TestStruct_Login(t *testing.T) {
	v := New()

	if err := v.Struct(model.LoginInput{Token: "abc"}); err != nil {
		t.Errorf("expected nil for valid token, got %v", err)
	}
	if err := v.Struct(model.LoginInput{}); err == nil {
		t.Error("expected error for empty token")
	}
	if err := v.Struct(model.LoginInput{Token: strings.Repeat("t", 4097)}); err == nil {
		t.Error("expected error for oversized token")
	}
}
