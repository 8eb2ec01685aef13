package correction

import (
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/validator"
)

const (
	MsgDatesRequired    = "At least one date is required"
	MsgClockInRequired  = "Clock-in time is required"
	MsgClockOutRequired = "Clock-out time is required"
	MsgClockOutOrder    = "Clock-out time must be after clock-in time"
	MsgTimeFormat       = "Time must be in HH:MM format"

	ErrKeyDates = "dates"
)

// ErrorKey is the validation-error key of one field of one date.
func ErrorKey(date string, f Field) string {
	return date + "_" + string(f)
}

func (d *Draft) ensure() {
	if d.Form.Entries == nil {
		d.Form.Entries = map[string]Entry{}
	}
	if d.Form.Dates == nil {
		d.Form.Dates = []string{}
	}
	if d.Errors == nil {
		d.Errors = map[string]string{}
	}
}

// SetDates replaces the selection. Entries of dates that stay selected are
// kept, new dates get an empty entry, deselected dates lose theirs.
func (d *Draft) SetDates(dates []string) {
	d.ensure()

	seen := make(map[string]struct{}, len(dates))
	selected := make([]string, 0, len(dates))
	for _, date := range dates {
		if _, dup := seen[date]; dup {
			continue
		}
		seen[date] = struct{}{}
		selected = append(selected, date)
	}

	entries := make(map[string]Entry, len(selected))
	for _, date := range selected {
		entries[date] = d.Form.Entries[date]
	}

	d.Form.Dates = selected
	d.Form.Entries = entries
	delete(d.Errors, ErrKeyDates)
}

func (d *Draft) IsSelected(date string) bool {
	_, ok := d.Form.Entries[date]
	return ok
}

func (d *Draft) SetBroadcastField(f Field, value string) error {
	if !f.Valid() {
		return ErrInvalidField
	}
	d.ensure()
	d.Form.Broadcast.Set(f, value)
	delete(d.Errors, string(f))
	return nil
}

func (d *Draft) SetEntryField(date string, f Field, value string) error {
	if !f.Valid() {
		return ErrInvalidField
	}
	d.ensure()
	entry, ok := d.Form.Entries[date]
	if !ok {
		return ErrDateNotSelected
	}
	entry.Set(f, value)
	d.Form.Entries[date] = entry
	delete(d.Errors, ErrorKey(date, f))
	return nil
}

// ApplyBroadcastToAll copies the broadcast values into every selected date.
// Later broadcast edits do not touch entries written here.
func (d *Draft) ApplyBroadcastToAll() {
	d.ensure()
	b := d.Form.Broadcast
	for _, date := range d.Form.Dates {
		d.Form.Entries[date] = Entry{
			ClockIn:  b.ClockIn,
			ClockOut: b.ClockOut,
			Comment:  b.Comment,
		}
	}
}

func (d *Draft) Reset() {
	employeeID := d.EmployeeID
	*d = NewDraft(employeeID)
}

// Validate recomputes the error map and reports whether it is empty.
func (d *Draft) Validate() bool {
	d.ensure()
	errs := ValidateForm(d.Form)
	d.Errors = errs.ToMap()
	return len(errs) == 0
}

// ValidateForm checks that every selected date has a clock-in and a clock-out
// and that clock-out is strictly after clock-in.
func ValidateForm(f Form) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if len(f.Dates) == 0 {
		errs.Set(ErrKeyDates, MsgDatesRequired)
	}

	for _, date := range f.Dates {
		entry := f.Entries[date]
		inKey, outKey := ErrorKey(date, FieldClockIn), ErrorKey(date, FieldClockOut)

		if validator.IsEmpty(entry.ClockIn) {
			errs.Set(inKey, MsgClockInRequired)
		}
		if validator.IsEmpty(entry.ClockOut) {
			errs.Set(outKey, MsgClockOutRequired)
		}
		if validator.IsEmpty(entry.ClockIn) || validator.IsEmpty(entry.ClockOut) {
			continue
		}

		in, inOK := validator.ParseTimeOfDay(entry.ClockIn)
		out, outOK := validator.ParseTimeOfDay(entry.ClockOut)
		if !inOK {
			errs.Set(inKey, MsgTimeFormat)
		}
		if !outOK {
			errs.Set(outKey, MsgTimeFormat)
		}
		if inOK && outOK && !out.After(in) {
			errs.Set(outKey, MsgClockOutOrder)
		}
	}

	return errs
}
