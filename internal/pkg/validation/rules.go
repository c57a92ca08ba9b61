package validation

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

// RegisterJSONTagNames makes validator report fields by their json name
// instead of the Go field name.
func RegisterJSONTagNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(jsonTagName)
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// FromBindingError converts an error from gin's binding into an application
// error. Validator failures become a ValidationError listing every field;
// anything else (malformed JSON, wrong types) is a bad request.
func FromBindingError(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := &apperrors.ValidationError{}
		for _, fe := range verrs {
			out.Add(fe.Field(), formatFieldError(fe))
		}
		return out
	}

	return apperrors.NewBadRequestError("Invalid request format: " + err.Error())
}

// formatFieldError creates a human-readable validation error message
func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		if e.Kind() == reflect.Slice || e.Kind() == reflect.Array {
			return e.Field() + " must contain at least " + e.Param() + " item(s)"
		}
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "gtfield", "gtefield":
		return e.Field() + " must be after " + e.Param()
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}

// ValidateGrade checks a grade against the work's total marks.
func ValidateGrade(grade float64, totalMarks int) error {
	if math.IsNaN(grade) || math.IsInf(grade, 0) {
		return apperrors.NewValidationError("grade", "grade must be a number")
	}
	if grade < 0 {
		return apperrors.NewValidationError("grade", "grade cannot be negative")
	}
	if grade > float64(totalMarks) {
		return apperrors.NewValidationError("grade", "grade cannot exceed total marks of "+strconv.Itoa(totalMarks))
	}
	return nil
}

// RequireNonEmpty checks that a required list has at least one entry.
func RequireNonEmpty(field string, n int) error {
	if n == 0 {
		return apperrors.NewValidationError(field, field+" must contain at least 1 item(s)")
	}
	return nil
}
