package attendance

type ClockInRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	ClockIn    string `json:"clock_in"`
}

type ClockOutRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	ClockOut   string `json:"clock_out"`
}

// UpdateRequest overwrites the clock values and status of an existing record.
type UpdateRequest struct {
	ID       string `json:"-"`
	ClockIn  string `json:"clock_in"`
	ClockOut string `json:"clock_out"`
	Status   string `json:"status"`
}

// RegularizationRequest attaches a reason to an attendance record on behalf
// of the requesting employee.
type RegularizationRequest struct {
	AttendanceID string `json:"-"`
	Reason       string `json:"reason"`
	RequestedBy  string `json:"requested_by"`
}

// Snapshot is the refreshed view of an employee's attendance.
type Snapshot struct {
	Today   *Record      `json:"today,omitempty"`
	History []Record     `json:"history"`
	Stats   MonthlyStats `json:"stats"`
}
