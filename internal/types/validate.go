package types

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"atsscorer/internal/errors"
)

var yearMonthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("yearmonth", func(fl validator.FieldLevel) bool {
			return yearMonthPattern.MatchString(fl.Field().String())
		})
		v.RegisterStructValidation(workEntryRules, WorkEntry{})
		v.RegisterStructValidation(educationEntryRules, EducationEntry{})
		validate = v
	})
	return validate
}

func workEntryRules(sl validator.StructLevel) {
	w := sl.Current().Interface().(WorkEntry)
	if w.IsCurrent && w.EndDate != "" {
		sl.ReportError(w.EndDate, "EndDate", "endDate", "current_no_end", "")
	}
	if !DateRangeValid(w.StartDate, w.EndDate) {
		sl.ReportError(w.EndDate, "EndDate", "endDate", "after_start", "")
	}
}

func educationEntryRules(sl validator.StructLevel) {
	e := sl.Current().Interface().(EducationEntry)
	if !DateRangeValid(e.StartDate, e.EndDate) {
		sl.ReportError(e.EndDate, "EndDate", "endDate", "after_start", "")
	}
}

// DateRangeValid reports whether start <= end for YYYY-MM strings. Missing or
// malformed dates are not a range violation.
func DateRangeValid(start, end string) bool {
	if !yearMonthPattern.MatchString(start) || !yearMonthPattern.MatchString(end) {
		return true
	}
	// YYYY-MM compares correctly as a string
	return start <= end
}

// FieldError describes one failed rule
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks a struct's validate tags (requests, documents) and
// returns a validation AppError listing every failing field.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "validation failed", err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fe.Namespace(),
			Message: describeRule(fe),
		})
	}

	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return errors.NewValidationError(errors.ErrCodeInvalidRequest, strings.Join(msgs, "; "), nil).
		WithContext("fields", fields)
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "yearmonth":
		return "must use YYYY-MM"
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "after_start":
		return "must not be before startDate"
	case "current_no_end":
		return "must be empty for a current position"
	default:
		return "failed " + fe.Tag()
	}
}
