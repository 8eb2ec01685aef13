package attendance

import "errors"

var (
	ErrUpstreamUnavailable = errors.New("attendance service is unavailable")
	ErrMissingAttendanceID = errors.New("attendance record has no identifier")
)
