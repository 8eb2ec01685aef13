package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	playground "github.com/go-playground/validator/v10"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
	TimeLayout  = "15:04"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// Set records message for field, replacing an earlier message for the same field.
func (v *ValidationErrors) Set(field, message string) {
	for i := range *v {
		if (*v)[i].Field == field {
			(*v)[i].Message = message
			return
		}
	}
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse(DateLayout, dateStr)
	return date, err == nil
}

// ParseTimeOfDay parses "HH:MM" on the zero reference day, so two results
// can be compared directly. Seconds are rejected since the upstream
// timestamps carry minutes only.
func ParseTimeOfDay(s string) (time.Time, bool) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	return t, err == nil
}

var (
	structValidator     *playground.Validate
	structValidatorOnce sync.Once
)

func structs() *playground.Validate {
	structValidatorOnce.Do(func() {
		structValidator = playground.New(playground.WithRequiredStructEnabled())
		structValidator.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return structValidator
}

// ValidateStruct runs the `validate` struct tags of s and converts failures
// into ValidationErrors keyed by the json field name.
func ValidateStruct(s interface{}) error {
	err := structs().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var errs ValidationErrors
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{
			Field:   fieldPath(fe),
			Message: tagMessage(fe),
		})
	}
	return errs
}

func fieldPath(fe playground.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func tagMessage(fe playground.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "datetime":
		if fe.Param() == DateLayout {
			return field + " must be in YYYY-MM-DD format"
		}
		return field + " must match " + fe.Param()
	case "oneof":
		return field + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		return field + " must have at least " + fe.Param() + " item(s)"
	case "max":
		return field + " must not exceed " + fe.Param()
	default:
		return field + " is invalid"
	}
}
