package correction

import "errors"

var (
	ErrDateNotSelected      = errors.New("date is not selected for correction")
	ErrInvalidField         = errors.New("field must be one of: clockIn, clockOut, comment")
	ErrSubmissionInProgress = errors.New("a correction submission is already in progress")
	ErrEmployeeIDRequired   = errors.New("employee_id claim is required")
	ErrDraftConflict        = errors.New("draft was modified concurrently, please retry")
)
