package correction

import (
	"time"
)

// Field names one editable value of an Entry.
type Field string

const (
	FieldClockIn  Field = "clockIn"
	FieldClockOut Field = "clockOut"
	FieldComment  Field = "comment"
)

func (f Field) Valid() bool {
	switch f {
	case FieldClockIn, FieldClockOut, FieldComment:
		return true
	}
	return false
}

// Entry holds the requested times and reason for one date.
type Entry struct {
	ClockIn  string `json:"clock_in"`
	ClockOut string `json:"clock_out"`
	Comment  string `json:"comment"`
}

func (e Entry) Get(f Field) string {
	switch f {
	case FieldClockIn:
		return e.ClockIn
	case FieldClockOut:
		return e.ClockOut
	case FieldComment:
		return e.Comment
	}
	return ""
}

func (e *Entry) Set(f Field, value string) {
	switch f {
	case FieldClockIn:
		e.ClockIn = value
	case FieldClockOut:
		e.ClockOut = value
	case FieldComment:
		e.Comment = value
	}
}

// Form is the editable correction request. Keys of Entries always equal the
// set of Dates; Dates keeps selection order.
type Form struct {
	Dates     []string         `json:"dates"`
	Entries   map[string]Entry `json:"date_entries"`
	Broadcast Entry            `json:"broadcast"`
}

// Draft is one employee's form together with its current validation errors.
type Draft struct {
	EmployeeID string            `json:"employee_id"`
	Form       Form              `json:"form"`
	Errors     map[string]string `json:"errors"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func NewDraft(employeeID string) Draft {
	return Draft{
		EmployeeID: employeeID,
		Form: Form{
			Dates:   []string{},
			Entries: map[string]Entry{},
		},
		Errors: map[string]string{},
	}
}

type Action string

const (
	ActionNone    Action = ""
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// DateOutcome is the result of submitting one date.
type DateOutcome struct {
	Date         string   `json:"date"`
	Success      bool     `json:"success"`
	Action       Action   `json:"action,omitempty"`
	AttendanceID string   `json:"attendance_id,omitempty"`
	Error        string   `json:"error,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

type OutcomeKind string

const (
	OutcomeAllSucceeded OutcomeKind = "all_succeeded"
	OutcomePartial      OutcomeKind = "partial"
	OutcomeAllFailed    OutcomeKind = "all_failed"
)

// Summary is the aggregate classification of a submission.
type Summary struct {
	Kind      OutcomeKind `json:"kind"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Message   string      `json:"message"`
}

// Submission is one persisted submit attempt.
type Submission struct {
	ID         string        `json:"id"`
	EmployeeID string        `json:"employee_id"`
	Summary    Summary       `json:"summary"`
	Dates      []DateOutcome `json:"dates"`
	CreatedAt  time.Time     `json:"created_at"`
}
