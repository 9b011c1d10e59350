package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Record keys never contain path separators
	validate.RegisterValidation("nopath", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "/\\")
	})

	// File ids may name an object inside a folder ("flowersdz/rose.jpg") but never
	// escape it
	validate.RegisterValidation("fileid", func(fl validator.FieldLevel) bool {
		return IsFileID(fl.Field().String())
	})
}

// IsFileID reports whether id is a relative slash-separated path with no empty,
// "." or ".." segments.
func IsFileID(id string) bool {
	if id == "" || strings.ContainsRune(id, '\\') {
		return false
	}
	for _, seg := range strings.Split(id, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range validationErrors {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "url":
			errors[field] = "Invalid URL format"
		case "nopath":
			errors[field] = "Value must not contain path separators"
		case "fileid":
			errors[field] = "Value must be a relative file id"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
