// Package validation wraps go-playground/validator with JSON field names and
// the custom rules used by request payloads and catalog records.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	tagColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

	once     sync.Once
	instance *validator.Validate
)

// Default returns the shared validator instance.
func Default() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		Register(instance)
	})
	return instance
}

// Register installs JSON tag naming and the custom rules on v.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "":
			return fld.Name
		case "-":
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("tagcolor", matches(tagColorPattern))
	_ = v.RegisterValidation("username", matches(usernamePattern))
	_ = v.RegisterValidation("slug", matches(slugPattern))
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// Struct validates s with the shared validator.
func Struct(s any) error {
	return Default().Struct(s)
}

// Fields converts validator errors into a field name to messages map. Nested
// errors are reported under their top-level field. Any other error yields nil.
func Fields(err error) map[string][]string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}

	fields := make(map[string][]string)
	for _, e := range validationErrs {
		key := topLevel(e.Namespace())
		fields[key] = append(fields[key], friendlyMessage(e))
	}
	return fields
}

// topLevel turns "RecipeRequest.ingredients[0].amount" into "ingredients".
func topLevel(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	name, _, _ := strings.Cut(parts[0], "[")
	return name
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("Ensure this list has at least %s items.", e.Param())
		}
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", e.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", e.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", e.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", e.Param())
	case "tagcolor":
		return "Enter a valid HEX color, e.g. #49B64E."
	case "username":
		return "Enter a valid username. Letters, digits and @/./+/-/_ only."
	case "slug":
		return "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	default:
		return "Invalid value."
	}
}
