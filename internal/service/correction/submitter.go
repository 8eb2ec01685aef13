package correction

import (
	"context"
	"log/slog"

	"github.com/cmlabs-hris/hris-correction-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-correction-go/internal/domain/correction"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/validator"
)

const msgTimesRequired = "Clock-in and clock-out times are required."

// Submitter applies a correction form against the attendance API one date at
// a time. Steps for a single date always run in order: lookup, write,
// re-query, regularize.
type Submitter struct {
	client attendance.Client
}

func NewSubmitter(client attendance.Client) *Submitter {
	return &Submitter{client: client}
}

// Submit never fails as a whole; every date gets an outcome and a failing
// date does not stop the ones after it.
func (s *Submitter) Submit(ctx context.Context, employeeID string, form correction.Form) []correction.DateOutcome {
	outcomes := make([]correction.DateOutcome, 0, len(form.Dates))
	for _, date := range form.Dates {
		outcome := s.submitDate(ctx, employeeID, date, form.Entries[date], form.Broadcast)
		if outcome.Success {
			slog.Info("Correction applied", "employee_id", employeeID, "date", date, "action", outcome.Action)
		} else {
			slog.Warn("Correction failed", "employee_id", employeeID, "date", date, "error", outcome.Error)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// resolve returns the entry's values, falling back to the broadcast values
// for any that are empty.
func resolve(entry, broadcast correction.Entry) (clockIn, clockOut, comment string) {
	clockIn, clockOut, comment = entry.ClockIn, entry.ClockOut, entry.Comment
	if clockIn == "" {
		clockIn = broadcast.ClockIn
	}
	if clockOut == "" {
		clockOut = broadcast.ClockOut
	}
	if comment == "" {
		comment = broadcast.Comment
	}
	return clockIn, clockOut, comment
}

func (s *Submitter) submitDate(ctx context.Context, employeeID, date string, entry, broadcast correction.Entry) correction.DateOutcome {
	outcome := correction.DateOutcome{Date: date}

	clockIn, clockOut, comment := resolve(entry, broadcast)
	if validator.IsEmpty(clockIn) || validator.IsEmpty(clockOut) {
		outcome.Error = msgTimesRequired
		return outcome
	}
	clockInTS := attendance.Timestamp(date, clockIn)
	clockOutTS := attendance.Timestamp(date, clockOut)

	// A failed lookup is treated like a missing record and falls through to
	// the create path. On a transient error this can create a duplicate.
	existing, err := s.client.GetByEmployeeAndDate(ctx, employeeID, date)
	if err != nil {
		slog.Warn("Attendance lookup failed, treating as no record", "employee_id", employeeID, "date", date, "error", err)
		outcome.Warnings = append(outcome.Warnings, "lookup failed: "+err.Error())
		existing = nil
	}

	var attendanceID string
	if existing != nil && existing.ID != "" {
		err := s.client.Update(ctx, attendance.UpdateRequest{
			ID:       existing.ID,
			ClockIn:  clockInTS,
			ClockOut: clockOutTS,
			Status:   attendance.StatusPresent,
		})
		if err != nil {
			outcome.Error = err.Error()
			return outcome
		}
		outcome.Action = correction.ActionUpdated
		attendanceID = existing.ID
	} else {
		if err := s.client.ClockIn(ctx, attendance.ClockInRequest{EmployeeID: employeeID, Date: date, ClockIn: clockInTS}); err != nil {
			outcome.Error = err.Error()
			return outcome
		}
		if err := s.client.ClockOut(ctx, attendance.ClockOutRequest{EmployeeID: employeeID, Date: date, ClockOut: clockOutTS}); err != nil {
			outcome.Error = err.Error()
			return outcome
		}
		outcome.Action = correction.ActionCreated

		created, err := s.client.GetByEmployeeAndDate(ctx, employeeID, date)
		switch {
		case err != nil:
			outcome.Warnings = append(outcome.Warnings, "re-query failed: "+err.Error())
		case created != nil:
			attendanceID = created.ID
		}
	}
	outcome.AttendanceID = attendanceID

	if !validator.IsEmpty(comment) {
		if warning := s.regularize(ctx, employeeID, date, attendanceID, comment); warning != "" {
			outcome.Warnings = append(outcome.Warnings, warning)
		}
	}

	outcome.Success = true
	return outcome
}

// regularize attaches the comment. Its failure never fails the date.
func (s *Submitter) regularize(ctx context.Context, employeeID, date, attendanceID, comment string) string {
	if attendanceID == "" {
		slog.Warn("Skipping regularization, attendance id unknown", "employee_id", employeeID, "date", date)
		return "comment not attached: attendance id unknown"
	}

	err := s.client.Regularize(ctx, attendance.RegularizationRequest{
		AttendanceID: attendanceID,
		Reason:       comment,
		RequestedBy:  employeeID,
	})
	if err != nil {
		slog.Warn("Regularization failed", "employee_id", employeeID, "date", date, "attendance_id", attendanceID, "error", err)
		return "regularization failed: " + err.Error()
	}
	return ""
}
