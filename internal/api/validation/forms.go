package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"swipr-api/pkg/models"
)

// EmailPattern accepts the local@domain.tld shape used by the public forms
var EmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmailShape checks an address against EmailPattern
func ValidateEmailShape(fl validator.FieldLevel) bool {
	return EmailPattern.MatchString(fl.Field().String())
}

// ValidatePosition accepts only open roles
func ValidatePosition(fl validator.FieldLevel) bool {
	return models.Position(fl.Field().String()).Valid()
}

// ValidateApplicationStatus accepts only known review states
func ValidateApplicationStatus(fl validator.FieldLevel) bool {
	return models.ApplicationStatus(fl.Field().String()).Valid()
}

// ValidateContactSource accepts only known form sources
func ValidateContactSource(fl validator.FieldLevel) bool {
	return models.ContactSource(fl.Field().String()).Valid()
}

// RegisterFormValidators registers the custom tags used by the request models
func RegisterFormValidators(v *validator.Validate) {
	v.RegisterValidation("email_shape", ValidateEmailShape)
	v.RegisterValidation("position", ValidatePosition)
	v.RegisterValidation("application_status", ValidateApplicationStatus)
	v.RegisterValidation("contact_source", ValidateContactSource)
}

// New returns a validator that reports fields by their JSON names
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	RegisterFormValidators(v)
	return v
}

// Check validates s and returns every violation, or nil when s is valid
func Check(v *validator.Validate, s interface{}) []models.FieldError {
	return Fields(v.Struct(s))
}

// Fields converts a validator error into per-field messages, one per failing field
func Fields(err error) []models.FieldError {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.FieldError{{Field: "", Message: err.Error()}}
	}

	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Field:   fieldPath(fe),
			Message: message(fe),
		})
	}
	return out
}

// Summary joins field messages into one line for the response message
func Summary(fields []models.FieldError) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Message
	}
	return strings.Join(parts, "; ")
}

// fieldPath drops the root struct name from the namespace: ApplicationRequest.email -> email
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email_shape":
		return "Invalid email format"
	case "position":
		return "Invalid position"
	case "application_status":
		return "Invalid status"
	case "contact_source":
		return "Invalid source"
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
