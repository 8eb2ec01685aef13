package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-correction-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-correction-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-correction-go/internal/domain/correction"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/hrisapi"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, correction.ErrEmployeeIDRequired):
		writeError(w, http.StatusForbidden, CodeForbidden, "Employee ID not found in token", nil)

	// Correction domain errors
	case errors.Is(err, correction.ErrDateNotSelected):
		writeError(w, http.StatusNotFound, CodeDateNotSelected, "Date is not selected for correction", nil)
	case errors.Is(err, correction.ErrInvalidField):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, correction.ErrSubmissionInProgress):
		writeError(w, http.StatusConflict, CodeSubmissionInProgress, "A correction submission is already in progress", nil)
	case errors.Is(err, correction.ErrDraftConflict):
		writeError(w, http.StatusConflict, CodeDraftConflict, "Draft was modified concurrently, please retry", nil)

	// Attendance API errors
	case errors.Is(err, hrisapi.ErrNoBearerToken):
		Unauthorized(w, "Unauthorized")
	case errors.Is(err, attendance.ErrUpstreamUnavailable):
		slog.Warn("Attendance service unavailable", "error", err)
		writeError(w, http.StatusBadGateway, CodeUpstreamUnavailable, "Attendance service is unavailable", nil)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
