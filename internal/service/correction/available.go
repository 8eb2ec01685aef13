package correction

import (
	"time"

	"github.com/cmlabs-hris/hris-correction-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/validator"
)

// monthRange returns the first and last day of the month containing t.
func monthRange(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first, first.AddDate(0, 1, -1)
}

// AvailableDates lists the dates from the 1st of today's month up to today
// that can still be corrected: every date whose record lacks a clock-in or a
// clock-out. Today is judged by todayRecord, earlier dates by an exact date
// match in history.
func AvailableDates(today time.Time, todayRecord *attendance.Record, history []attendance.Record) []string {
	byDate := make(map[string]attendance.Record, len(history))
	for _, rec := range history {
		if _, seen := byDate[rec.Date]; !seen {
			byDate[rec.Date] = rec
		}
	}

	first, last := monthRange(today)
	todayKey := today.Format(validator.DateLayout)
	if lastKey := last.Format(validator.DateLayout); lastKey < todayKey {
		todayKey = lastKey
	}

	dates := []string{}
	for day := first; ; day = day.AddDate(0, 0, 1) {
		key := day.Format(validator.DateLayout)
		if key > todayKey {
			break
		}

		var rec *attendance.Record
		if key == today.Format(validator.DateLayout) {
			rec = todayRecord
		} else if r, ok := byDate[key]; ok {
			rec = &r
		}

		if rec != nil && rec.IsComplete() {
			continue
		}
		dates = append(dates, key)
	}
	return dates
}
