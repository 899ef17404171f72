package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"github.com/go-playground/validator/v10"
)

const (
	MsgRequired = "This field is required."
	MsgInvalid  = "Invalid value."
	MsgUUID     = "Must be a valid UUID."
)

// New returns a validator that reports fields by their json name.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// Struct validates s and reports the first failing field as an *errs.FieldError.
func Struct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return errs.NewFieldError("", err.Error(), errs.ErrValidation)
	}

	fe := ve[0]

	return errs.NewFieldError(fe.Field(), message(fe.Tag()), errs.ErrValidation)
}

func message(tag string) string {
	switch tag {
	case "required", "required_without":
		return MsgRequired
	case "uuid":
		return MsgUUID
	default:
		return MsgInvalid
	}
}
