package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/garnizeh/intake/internal/apperr"
	"github.com/go-playground/validator/v10"
)

// V validates staff DTOs and configuration structs. Field names in errors
// follow the json tag so they line up with request bodies.
var V = newValidator()

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// "key" accepts lowercase identifiers such as setting names.
	_ = v.RegisterValidation("key", func(fl validator.FieldLevel) bool {
		return keyPattern.MatchString(fl.Field().String())
	})
	return v
}

// Struct validates s and converts failures into a *apperr.ValidationError.
func Struct(s any) error {
	err := V.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	ve := apperr.NewValidationError(nil)
	for _, fe := range verrs {
		ve.Add(fieldPath(fe.Namespace()), describe(fe))
	}
	return ve
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + fe.Param()
	case "url", "http_url":
		return "must be a valid URL"
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "json":
		return "must be valid JSON"
	case "key":
		return "must use lowercase letters, digits, dots, dashes or underscores"
	case "gtefield":
		return "must not be less than " + strings.ToLower(fe.Param())
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}
