package correction

import (
	"context"
)

// CorrectionService drives the correction workflow of the authenticated employee.
type CorrectionService interface {
	GetDraft(ctx context.Context) (Draft, error)
	SetDates(ctx context.Context, req SetDatesRequest) (Draft, error)
	SetBroadcastField(ctx context.Context, req SetFieldRequest) (Draft, error)
	SetEntryField(ctx context.Context, req SetEntryFieldRequest) (Draft, error)
	ApplyBroadcastToAll(ctx context.Context) (Draft, error)

	// Validate stores the recomputed errors on the draft
	Validate(ctx context.Context) (ValidateResponse, error)

	Reset(ctx context.Context) (Draft, error)

	// Submit validates the draft, applies every selected date against the
	// attendance API and resets the draft whatever the outcome.
	Submit(ctx context.Context) (SubmitResponse, error)

	AvailableDates(ctx context.Context) (AvailableDatesResponse, error)
	Overview(ctx context.Context) (OverviewResponse, error)
	ListSubmissions(ctx context.Context, filter ListSubmissionsFilter) (ListSubmissionsResponse, error)
}
