package attendance

import (
	"strings"

	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/validator"
)

const StatusPresent = "present"

// Record is the canonical shape of an upstream attendance record. Clock values
// are kept as the upstream sent them; only their presence matters here.
type Record struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"` // YYYY-MM-DD
	ClockIn    string `json:"clock_in,omitempty"`
	ClockOut   string `json:"clock_out,omitempty"`
	Status     string `json:"status,omitempty"`
}

func (r Record) HasClockIn() bool {
	return !validator.IsEmpty(r.ClockIn)
}

func (r Record) HasClockOut() bool {
	return !validator.IsEmpty(r.ClockOut)
}

// IsComplete reports whether both clock-in and clock-out are recorded.
func (r Record) IsComplete() bool {
	return r.HasClockIn() && r.HasClockOut()
}

// MonthlyStats summarises one employee's attendance for a month.
type MonthlyStats struct {
	Month          string `json:"month"` // YYYY-MM
	PresentDays    int    `json:"present_days"`
	LateDays       int    `json:"late_days"`
	AbsentDays     int    `json:"absent_days"`
	LeaveDays      int    `json:"leave_days"`
	WorkingMinutes int    `json:"working_minutes"`
}

// Timestamp builds the "<date> <HH:MM>:00" local-time string the upstream API
// expects. No timezone conversion is applied.
func Timestamp(date, timeOfDay string) string {
	if t, ok := validator.ParseTimeOfDay(timeOfDay); ok {
		return date + " " + t.Format(validator.TimeLayout) + ":00"
	}
	return date + " " + strings.TrimSpace(timeOfDay) + ":00"
}
