// Package validation はリクエスト入力の検証を提供する。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/waitfree/internal/model"
)

// Validator はgo-playground/validatorのラッパー。
// 検証エラーはJSONフィールド名付きのmodel.APIErrorとして返す。
type Validator struct {
	validate *validator.Validate
}

// New は新しいValidatorを生成する。
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// エラーメッセージにはJSONのフィールド名を使う
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: validate}
}

// Struct は構造体を検証する。
// 違反がある場合は*model.APIError（VALIDATION_FAILED）を返す。
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate struct: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return model.NewValidationError(fields)
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "e164":
		return fmt.Sprintf("%s must be in E.164 format (e.g. +819012345678)", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
