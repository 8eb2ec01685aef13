package correction

import (
	"github.com/cmlabs-hris/hris-correction-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/validator"
)

// ========================================
// DRAFT DTOs
// ========================================

type SetDatesRequest struct {
	Dates []string `json:"dates" validate:"max=31,dive,datetime=2006-01-02"`
}

func (r *SetDatesRequest) Validate() error {
	return validator.ValidateStruct(r)
}

type SetFieldRequest struct {
	Field string `json:"field" validate:"required,oneof=clockIn clockOut comment"`
	Value string `json:"value"`
}

func (r *SetFieldRequest) Validate() error {
	return validator.ValidateStruct(r)
}

type SetEntryFieldRequest struct {
	Date  string `json:"-"`
	Field string `json:"field" validate:"required,oneof=clockIn clockOut comment"`
	Value string `json:"value"`
}

func (r *SetEntryFieldRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if err := validator.ValidateStruct(r); err != nil {
		tagErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, tagErrs...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListSubmissionsFilter struct {
	Limit int `json:"limit"`
}

func (f *ListSubmissionsFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========================================
// RESPONSE DTOs
// ========================================

type ValidateResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

type SubmitResponse struct {
	Success  bool          `json:"success"`
	Summary  Summary       `json:"summary"`
	Outcomes []DateOutcome `json:"outcomes"`
}

type AvailableDatesResponse struct {
	Month string   `json:"month"` // YYYY-MM
	Today string   `json:"today"` // YYYY-MM-DD
	Dates []string `json:"dates"`
}

type OverviewResponse struct {
	attendance.Snapshot
	AvailableDates []string `json:"available_dates"`
}

type ListSubmissionsResponse struct {
	Submissions []Submission `json:"submissions"`
}

type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
