package attendance

import "context"

// Client is the contract of the external HRIS attendance API.
type Client interface {
	// GetByEmployeeAndDate returns nil, nil when no record exists.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date string) (*Record, error)

	ClockIn(ctx context.Context, req ClockInRequest) error
	ClockOut(ctx context.Context, req ClockOutRequest) error
	Update(ctx context.Context, req UpdateRequest) error
	Regularize(ctx context.Context, req RegularizationRequest) error

	// History lists records with startDate <= date <= endDate (YYYY-MM-DD).
	History(ctx context.Context, employeeID string, startDate string, endDate string) ([]Record, error)

	// Today returns nil, nil when the employee has no record today.
	Today(ctx context.Context, employeeID string) (*Record, error)

	MonthlyStats(ctx context.Context, employeeID string, month string) (MonthlyStats, error)
}
